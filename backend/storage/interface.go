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

package storage

import (
	"context"
	"errors"

	"github.com/efchatnet/efmsg/backend/models"
)

// ErrConflict is returned by CreatePrivateChat when another writer won the
// race for the same user pair. Callers re-read and use the winner's chat.
var ErrConflict = errors.New("storage: duplicate private chat for pair")

type ChatStore interface {
	// CreatePrivateChat inserts the chat and both participant rows as a
	// single transaction. Returns ErrConflict if the pair already exists.
	CreatePrivateChat(ctx context.Context, chat models.Chat, userID, otherUserID string) error
	// FindPrivateChat looks up the private chat for an unordered user pair.
	// Returns nil without error when no chat exists.
	FindPrivateChat(ctx context.Context, userID, otherUserID string) (*models.Chat, error)
	// GetChat returns a chat with participants (including their users) and
	// the latest message (including its sender) loaded. Nil when not found.
	GetChat(ctx context.Context, chatID string) (*models.Chat, error)
	// GetUserChats returns the user's private chats that contain at least one
	// message, hydrated like GetChat, most recently active first.
	GetUserChats(ctx context.Context, userID string) ([]models.Chat, error)
}

type MessageStore interface {
	// SaveMessage persists the message and bumps the chat's activity
	// timestamps in one transaction. The returned message carries the
	// store-assigned seq, creation time and hydrated sender.
	SaveMessage(ctx context.Context, msg models.Message) (*models.Message, error)
	// GetMessages returns one page of a chat's messages, newest first,
	// and whether another page exists.
	GetMessages(ctx context.Context, chatID string, page, pageSize int) ([]models.Message, bool, error)
}

type UserStore interface {
	// GetUser returns nil without error when the user does not exist.
	GetUser(ctx context.Context, userID string) (*models.User, error)
	ListUsersExcept(ctx context.Context, userID string) ([]models.User, error)
}

type Store interface {
	ChatStore
	MessageStore
	UserStore
}
