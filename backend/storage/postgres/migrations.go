// Copyright (C) 2025 efchat.net <tj@efchat.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package postgres

func (s *Store) Migrate() error {
	migrations := []string{
		// User directory, synced from the auth service
		`CREATE TABLE IF NOT EXISTS users (
			user_id VARCHAR(255) PRIMARY KEY,
			username VARCHAR(255) NOT NULL,
			email VARCHAR(255),
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		// Chats table. pair_key is the sorted user pair for private chats;
		// NULL is reserved for future non-private chats.
		`CREATE TABLE IF NOT EXISTS chats (
			chat_id VARCHAR(255) PRIMARY KEY,
			is_private BOOLEAN NOT NULL DEFAULT TRUE,
			pair_key VARCHAR(511),
			created_by VARCHAR(255) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_message_at TIMESTAMPTZ
		)`,

		// At most one private chat per unordered user pair. Concurrent
		// creators race on this index; the loser gets a unique violation.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_chats_pair_key
		ON chats(pair_key)
		WHERE pair_key IS NOT NULL`,

		// Chat membership
		`CREATE TABLE IF NOT EXISTS chat_participants (
			chat_id VARCHAR(255) NOT NULL,
			user_id VARCHAR(255) NOT NULL,
			joined_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (chat_id, user_id),
			FOREIGN KEY (chat_id) REFERENCES chats(chat_id) ON DELETE CASCADE
		)`,

		`CREATE INDEX IF NOT EXISTS idx_participants_user
		ON chat_participants(user_id)`,

		// Messages table. seq gives a total order when created_at ties.
		`CREATE TABLE IF NOT EXISTS messages (
			message_id VARCHAR(255) PRIMARY KEY,
			seq BIGSERIAL,
			chat_id VARCHAR(255) NOT NULL,
			sender_id VARCHAR(255) NOT NULL,
			body TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (chat_id) REFERENCES chats(chat_id) ON DELETE CASCADE
		)`,

		// Index for paginated retrieval
		`CREATE INDEX IF NOT EXISTS idx_chat_messages
		ON messages(chat_id, created_at DESC, seq DESC)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
