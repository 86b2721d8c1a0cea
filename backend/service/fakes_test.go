// Copyright (C) 2025 efchat.net <tj@efchat.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/efchatnet/efmsg/backend/models"
	"github.com/efchatnet/efmsg/backend/notify"
	"github.com/efchatnet/efmsg/backend/storage"
)

// fakeStore is an in-memory storage.Store with the same atomicity rules as
// the postgres implementation: pair uniqueness enforced on insert.
type fakeStore struct {
	mu        sync.Mutex
	users     map[string]models.User
	chats     map[string]*models.Chat
	byPair    map[string]string
	messages  map[string][]models.Message
	seq       int64
	failSave  bool
	findMiss  int // force FindPrivateChat to miss this many times
	conflicts int
}

func newFakeStore(userIDs ...string) *fakeStore {
	s := &fakeStore{
		users:    make(map[string]models.User),
		chats:    make(map[string]*models.Chat),
		byPair:   make(map[string]string),
		messages: make(map[string][]models.Message),
	}
	for _, id := range userIDs {
		s.users[id] = models.User{ID: id, Username: "user-" + id, CreatedAt: time.Now()}
	}
	return s
}

func (s *fakeStore) CreatePrivateChat(_ context.Context, chat models.Chat, userID, otherUserID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := storage.PairKey(userID, otherUserID)
	if _, exists := s.byPair[key]; exists {
		s.conflicts++
		return storage.ErrConflict
	}

	now := time.Now()
	stored := chat
	stored.CreatedAt = now
	stored.UpdatedAt = now
	for _, id := range []string{userID, otherUserID} {
		u := s.users[id]
		stored.Participants = append(stored.Participants, models.Participant{
			ChatID:   chat.ID,
			UserID:   id,
			JoinedAt: now,
			User:     &u,
		})
	}

	s.chats[chat.ID] = &stored
	s.byPair[key] = chat.ID
	return nil
}

func (s *fakeStore) FindPrivateChat(ctx context.Context, userID, otherUserID string) (*models.Chat, error) {
	s.mu.Lock()
	if s.findMiss > 0 {
		s.findMiss--
		s.mu.Unlock()
		return nil, nil
	}
	id, ok := s.byPair[storage.PairKey(userID, otherUserID)]
	s.mu.Unlock()

	if !ok {
		return nil, nil
	}
	return s.GetChat(ctx, id)
}

func (s *fakeStore) GetChat(_ context.Context, chatID string) (*models.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat, ok := s.chats[chatID]
	if !ok {
		return nil, nil
	}

	cp := *chat
	cp.Participants = append([]models.Participant(nil), chat.Participants...)
	if msgs := s.messages[chatID]; len(msgs) > 0 {
		last := msgs[len(msgs)-1]
		cp.LastMessage = &last
	}
	return &cp, nil
}

func (s *fakeStore) GetUserChats(ctx context.Context, userID string) ([]models.Chat, error) {
	s.mu.Lock()
	var ids []string
	for id, chat := range s.chats {
		if chat.HasParticipant(userID) && len(s.messages[id]) > 0 {
			ids = append(ids, id)
		}
	}
	s.mu.Unlock()

	sort.Strings(ids)
	var chats []models.Chat
	for _, id := range ids {
		chat, err := s.GetChat(ctx, id)
		if err != nil {
			return nil, err
		}
		chats = append(chats, *chat)
	}
	return chats, nil
}

func (s *fakeStore) SaveMessage(_ context.Context, msg models.Message) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failSave {
		return nil, errors.New("storage unavailable")
	}

	s.seq++
	saved := msg
	saved.Seq = s.seq
	saved.CreatedAt = time.Now()
	if u, ok := s.users[msg.SenderID]; ok {
		saved.Sender = &u
	}

	s.messages[msg.ChatID] = append(s.messages[msg.ChatID], saved)
	if chat, ok := s.chats[msg.ChatID]; ok {
		chat.UpdatedAt = saved.CreatedAt
		chat.LastMessageAt = &saved.CreatedAt
	}
	return &saved, nil
}

func (s *fakeStore) GetMessages(_ context.Context, chatID string, page, pageSize int) ([]models.Message, bool, error) {
	s.mu.Lock()
	msgs := append([]models.Message(nil), s.messages[chatID]...)
	s.mu.Unlock()

	// Newest first, seq breaks timestamp ties
	sort.Slice(msgs, func(i, j int) bool {
		if !msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].CreatedAt.After(msgs[j].CreatedAt)
		}
		return msgs[i].Seq > msgs[j].Seq
	})

	offset := (page - 1) * pageSize
	if offset >= len(msgs) {
		return nil, false, nil
	}

	end := offset + pageSize
	hasMore := end < len(msgs)
	if end > len(msgs) {
		end = len(msgs)
	}
	return msgs[offset:end], hasMore, nil
}

func (s *fakeStore) GetUser(_ context.Context, userID string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *fakeStore) ListUsersExcept(_ context.Context, userID string) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var users []models.User
	for id, u := range s.users {
		if id != userID {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

type publishedEvent struct {
	channel       string
	event         string
	payload       interface{}
	excludeOrigin string
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, channel, event string, payload interface{}, excludeOrigin string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, publishedEvent{
		channel:       channel,
		event:         event,
		payload:       payload,
		excludeOrigin: excludeOrigin,
	})
	return nil
}

func (p *fakePublisher) published() []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedEvent(nil), p.events...)
}

type sentNotification struct {
	userID string
	n      notify.Notification
}

type fakeSink struct {
	mu   sync.Mutex
	sent []sentNotification
	err  error
}

func (s *fakeSink) Notify(_ context.Context, userID string, n notify.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentNotification{userID: userID, n: n})
	return nil
}

func (s *fakeSink) notified() []sentNotification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentNotification(nil), s.sent...)
}
