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
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/efchatnet/efmsg/backend/models"
	"github.com/efchatnet/efmsg/backend/storage"
)

// ChatService resolves private chat sessions. Creation for a given user pair
// is serialized twice: in-process through singleflight on the pair key, and
// across instances through the store's unique pair constraint. Either way the
// losing caller receives the winner's chat, never an error.
type ChatService struct {
	store storage.Store
	sf    singleflight.Group
	log   zerolog.Logger
}

func NewChatService(store storage.Store, log zerolog.Logger) *ChatService {
	return &ChatService{store: store, log: log}
}

func (s *ChatService) ResolveOrCreate(ctx context.Context, callerID, otherUserID string) (*models.Chat, error) {
	if callerID == otherUserID {
		return nil, ErrSelfChat
	}

	other, err := s.store.GetUser(ctx, otherUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if other == nil {
		return nil, ErrUserNotFound
	}

	// Collapse concurrent calls for the same pair, regardless of which side
	// initiates. The pair key is order-independent.
	pairKey := storage.PairKey(callerID, otherUserID)
	result, err, _ := s.sf.Do(pairKey, func() (interface{}, error) {
		return s.resolveOrCreate(ctx, callerID, otherUserID)
	})
	if err != nil {
		return nil, err
	}

	return result.(*models.Chat), nil
}

func (s *ChatService) resolveOrCreate(ctx context.Context, callerID, otherUserID string) (*models.Chat, error) {
	existing, err := s.store.FindPrivateChat(ctx, callerID, otherUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up chat: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	chat := models.Chat{
		ID:        uuid.New().String(),
		IsPrivate: true,
		CreatedBy: callerID,
	}

	err = s.store.CreatePrivateChat(ctx, chat, callerID, otherUserID)
	if errors.Is(err, storage.ErrConflict) {
		// Another instance created the chat first; use theirs.
		s.log.Debug().
			Str("caller_id", callerID).
			Str("other_user_id", otherUserID).
			Msg("lost chat creation race, reusing existing chat")
		return s.requireExisting(ctx, callerID, otherUserID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}

	created, err := s.store.GetChat(ctx, chat.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load created chat: %w", err)
	}
	return created, nil
}

func (s *ChatService) requireExisting(ctx context.Context, callerID, otherUserID string) (*models.Chat, error) {
	chat, err := s.store.FindPrivateChat(ctx, callerID, otherUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up chat after conflict: %w", err)
	}
	if chat == nil {
		return nil, fmt.Errorf("chat vanished after creation conflict")
	}
	return chat, nil
}

func (s *ChatService) GetChat(ctx context.Context, callerID, chatID string) (*models.Chat, error) {
	chat, err := s.store.GetChat(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat: %w", err)
	}
	if chat == nil {
		return nil, ErrChatNotFound
	}
	if !chat.HasParticipant(callerID) {
		return nil, ErrNotParticipant
	}
	return chat, nil
}

func (s *ChatService) ListChats(ctx context.Context, callerID string) ([]models.Chat, error) {
	chats, err := s.store.GetUserChats(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	return chats, nil
}
