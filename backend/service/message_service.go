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
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/efchatnet/efmsg/backend/models"
	"github.com/efchatnet/efmsg/backend/notify"
	"github.com/efchatnet/efmsg/backend/realtime"
	"github.com/efchatnet/efmsg/backend/storage"
)

const defaultPageSize = 10

// MessageService is the dispatch pipeline: validate, commit, then fan out to
// the live channel and the notification sink. The two side effects are
// independent and best effort; a send reports success once the message is
// durably stored.
type MessageService struct {
	store     storage.Store
	publisher realtime.Publisher
	sink      notify.Sink
	log       zerolog.Logger
}

func NewMessageService(store storage.Store, publisher realtime.Publisher, sink notify.Sink, log zerolog.Logger) *MessageService {
	return &MessageService{
		store:     store,
		publisher: publisher,
		sink:      sink,
		log:       log,
	}
}

// deliveryEvent is the live-channel payload for a committed message.
type deliveryEvent struct {
	ChatID  string          `json:"chat_id"`
	Message *models.Message `json:"message"`
}

func (s *MessageService) Send(ctx context.Context, senderID, chatID, body string) (*models.Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyMessage
	}

	chat, err := s.store.GetChat(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat: %w", err)
	}
	if chat == nil {
		return nil, ErrChatNotFound
	}
	if !chat.HasParticipant(senderID) {
		return nil, ErrNotParticipant
	}

	msg, err := s.store.SaveMessage(ctx, models.Message{
		ID:       uuid.New().String(),
		ChatID:   chatID,
		SenderID: senderID,
		Body:     body,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	// The message is durable from here on. Fan-out runs on a context
	// detached from the caller so a cancelled request still delivers,
	// and fan-out errors degrade to warnings.
	s.fanOut(context.WithoutCancel(ctx), chat, msg)

	return msg, nil
}

func (s *MessageService) fanOut(ctx context.Context, chat *models.Chat, msg *models.Message) {
	err := s.publisher.Publish(
		ctx,
		realtime.ChannelFor(chat.ID),
		realtime.EventMessageSent,
		deliveryEvent{ChatID: chat.ID, Message: msg},
		msg.SenderID,
	)
	if err != nil {
		s.log.Warn().Err(err).
			Str("chat_id", chat.ID).
			Str("message_id", msg.ID).
			Msg("live publish failed, delivery degraded")
	}

	senderName := msg.SenderID
	if msg.Sender != nil {
		senderName = msg.Sender.Username
	}

	notification := notify.Notification{
		Title: senderName + " sent you a message",
		Body:  msg.Body,
		Data: map[string]string{
			"sender_name": senderName,
			"message":     msg.Body,
			"chat_id":     chat.ID,
		},
	}

	// Each recipient is notified independently; one failure must not stop
	// the others.
	for _, recipientID := range chat.Recipients(msg.SenderID) {
		if err := s.sink.Notify(ctx, recipientID, notification); err != nil {
			s.log.Warn().Err(err).
				Str("chat_id", chat.ID).
				Str("message_id", msg.ID).
				Str("recipient_id", recipientID).
				Msg("notification failed, delivery degraded")
		}
	}
}

func (s *MessageService) ListMessages(ctx context.Context, callerID, chatID string, page, pageSize int) ([]models.Message, bool, error) {
	if page == 0 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = defaultPageSize
	}
	if page < 1 || pageSize < 1 {
		return nil, false, ErrInvalidPage
	}

	chat, err := s.store.GetChat(ctx, chatID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load chat: %w", err)
	}
	if chat == nil {
		return nil, false, ErrChatNotFound
	}
	if !chat.HasParticipant(callerID) {
		return nil, false, ErrNotParticipant
	}

	messages, hasMore, err := s.store.GetMessages(ctx, chatID, page, pageSize)
	if err != nil {
		return nil, false, fmt.Errorf("failed to list messages: %w", err)
	}

	return messages, hasMore, nil
}
