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

import (
	"context"
	"database/sql"

	"github.com/efchatnet/efmsg/backend/models"
)

// SaveMessage persists the message and bumps the chat's activity timestamps
// in one transaction. Timestamps come from the database so ordering is not
// subject to clock skew between instances.
func (s *Store) SaveMessage(ctx context.Context, msg models.Message) (*models.Message, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	saved := msg
	err = tx.QueryRowContext(ctx, `
		INSERT INTO messages (message_id, chat_id, sender_id, body)
		VALUES ($1, $2, $3, $4)
		RETURNING seq, created_at
	`, msg.ID, msg.ChatID, msg.SenderID, msg.Body).Scan(&saved.Seq, &saved.CreatedAt)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE chats
		SET updated_at = CURRENT_TIMESTAMP, last_message_at = CURRENT_TIMESTAMP
		WHERE chat_id = $1
	`, msg.ChatID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	sender, err := s.GetUser(ctx, msg.SenderID)
	if err != nil {
		return nil, err
	}
	saved.Sender = sender

	return &saved, nil
}

// GetMessages returns one page of a chat's messages, newest first. One extra
// row is fetched to detect whether another page exists without counting.
func (s *Store) GetMessages(ctx context.Context, chatID string, page, pageSize int) ([]models.Message, bool, error) {
	offset := (page - 1) * pageSize

	rows, err := s.db.QueryContext(ctx, `
		SELECT m.message_id, m.seq, m.chat_id, m.sender_id, m.body, m.created_at, u.username
		FROM messages m
		LEFT JOIN users u ON u.user_id = m.sender_id
		WHERE m.chat_id = $1
		ORDER BY m.created_at DESC, m.seq DESC
		LIMIT $2 OFFSET $3
	`, chatID, pageSize+1, offset)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		var username sql.NullString

		err := rows.Scan(&msg.ID, &msg.Seq, &msg.ChatID, &msg.SenderID, &msg.Body, &msg.CreatedAt, &username)
		if err != nil {
			return nil, false, err
		}
		if username.Valid {
			msg.Sender = &models.User{ID: msg.SenderID, Username: username.String}
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}

	hasMore := len(messages) > pageSize
	if hasMore {
		messages = messages[:pageSize]
	}

	return messages, hasMore, nil
}
