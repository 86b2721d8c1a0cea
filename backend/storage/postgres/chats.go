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

	"github.com/lib/pq"

	"github.com/efchatnet/efmsg/backend/models"
	"github.com/efchatnet/efmsg/backend/storage"
)

const uniqueViolation = "23505"

// CreatePrivateChat inserts the chat and both participants atomically.
// The unique index on pair_key serializes concurrent creators; the loser
// gets storage.ErrConflict and is expected to re-read the winner's chat.
func (s *Store) CreatePrivateChat(ctx context.Context, chat models.Chat, userID, otherUserID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO chats (chat_id, is_private, pair_key, created_by)
		VALUES ($1, TRUE, $2, $3)
	`, chat.ID, storage.PairKey(userID, otherUserID), chat.CreatedBy)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == uniqueViolation {
			return storage.ErrConflict
		}
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO chat_participants (chat_id, user_id)
		VALUES ($1, $2), ($1, $3)
	`, chat.ID, userID, otherUserID)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// FindPrivateChat looks up the private chat for an unordered user pair and
// returns it fully hydrated, or nil when it does not exist.
func (s *Store) FindPrivateChat(ctx context.Context, userID, otherUserID string) (*models.Chat, error) {
	var chatID string
	err := s.db.QueryRowContext(ctx, `
		SELECT chat_id FROM chats
		WHERE is_private = TRUE AND pair_key = $1
	`, storage.PairKey(userID, otherUserID)).Scan(&chatID)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return s.GetChat(ctx, chatID)
}

// GetChat returns the chat with participants (and their users) and the
// latest message (and its sender) loaded. Nil when the chat does not exist.
func (s *Store) GetChat(ctx context.Context, chatID string) (*models.Chat, error) {
	var chat models.Chat
	var lastMessageAt sql.NullTime

	err := s.db.QueryRowContext(ctx, `
		SELECT chat_id, is_private, created_by, created_at, updated_at, last_message_at
		FROM chats
		WHERE chat_id = $1
	`, chatID).Scan(
		&chat.ID, &chat.IsPrivate, &chat.CreatedBy,
		&chat.CreatedAt, &chat.UpdatedAt, &lastMessageAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if lastMessageAt.Valid {
		chat.LastMessageAt = &lastMessageAt.Time
	}

	if chat.Participants, err = s.getParticipants(ctx, chatID); err != nil {
		return nil, err
	}
	if chat.LastMessage, err = s.getLastMessage(ctx, chatID); err != nil {
		return nil, err
	}

	return &chat, nil
}

// GetUserChats returns the user's private chats that have at least one
// message, most recently active first.
func (s *Store) GetUserChats(ctx context.Context, userID string) ([]models.Chat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.chat_id
		FROM chats c
		JOIN chat_participants p ON p.chat_id = c.chat_id
		WHERE c.is_private = TRUE
		  AND p.user_id = $1
		  AND EXISTS (SELECT 1 FROM messages m WHERE m.chat_id = c.chat_id)
		ORDER BY COALESCE(c.last_message_at, c.created_at) DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chatIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		chatIDs = append(chatIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	chats := make([]models.Chat, 0, len(chatIDs))
	for _, id := range chatIDs {
		chat, err := s.GetChat(ctx, id)
		if err != nil {
			return nil, err
		}
		if chat != nil {
			chats = append(chats, *chat)
		}
	}

	return chats, nil
}

func (s *Store) getParticipants(ctx context.Context, chatID string) ([]models.Participant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.chat_id, p.user_id, p.joined_at, u.username, u.created_at
		FROM chat_participants p
		LEFT JOIN users u ON u.user_id = p.user_id
		WHERE p.chat_id = $1
		ORDER BY p.joined_at, p.user_id
	`, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []models.Participant
	for rows.Next() {
		var p models.Participant
		var username sql.NullString
		var userCreatedAt sql.NullTime

		if err := rows.Scan(&p.ChatID, &p.UserID, &p.JoinedAt, &username, &userCreatedAt); err != nil {
			return nil, err
		}
		if username.Valid {
			p.User = &models.User{
				ID:        p.UserID,
				Username:  username.String,
				CreatedAt: userCreatedAt.Time,
			}
		}
		participants = append(participants, p)
	}

	return participants, rows.Err()
}

func (s *Store) getLastMessage(ctx context.Context, chatID string) (*models.Message, error) {
	var msg models.Message
	var username sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT m.message_id, m.seq, m.chat_id, m.sender_id, m.body, m.created_at, u.username
		FROM messages m
		LEFT JOIN users u ON u.user_id = m.sender_id
		WHERE m.chat_id = $1
		ORDER BY m.created_at DESC, m.seq DESC
		LIMIT 1
	`, chatID).Scan(
		&msg.ID, &msg.Seq, &msg.ChatID, &msg.SenderID, &msg.Body, &msg.CreatedAt, &username,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if username.Valid {
		msg.Sender = &models.User{ID: msg.SenderID, Username: username.String}
	}

	return &msg, nil
}
