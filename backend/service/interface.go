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

package service

import (
	"context"

	"github.com/efchatnet/efmsg/backend/models"
)

// ChatResolver resolves private chat sessions between user pairs.
type ChatResolver interface {
	// ResolveOrCreate returns the private chat between caller and the other
	// user, creating it if this is their first contact. Concurrent calls for
	// the same pair, in either order, resolve to the same chat.
	ResolveOrCreate(ctx context.Context, callerID, otherUserID string) (*models.Chat, error)
	// GetChat returns a hydrated chat the caller participates in.
	GetChat(ctx context.Context, callerID, chatID string) (*models.Chat, error)
	// ListChats returns the caller's chats with messages, most recent first.
	ListChats(ctx context.Context, callerID string) ([]models.Chat, error)
}

// MessageDispatcher sends and retrieves chat messages.
type MessageDispatcher interface {
	// Send persists the message, then fans it out to the other participants
	// through the live channel and the notification sink. Fan-out failures
	// never fail a send that already committed.
	Send(ctx context.Context, senderID, chatID, body string) (*models.Message, error)
	// ListMessages returns one page of a chat's messages, newest first, and
	// whether another page exists. pageSize 0 means the default of 10.
	ListMessages(ctx context.Context, callerID, chatID string, page, pageSize int) ([]models.Message, bool, error)
}
