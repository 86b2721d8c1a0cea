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
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/efchatnet/efmsg/backend/models"
	"github.com/efchatnet/efmsg/backend/realtime"
)

type fixture struct {
	store     *fakeStore
	publisher *fakePublisher
	sink      *fakeSink
	chats     *ChatService
	messages  *MessageService
}

func newFixture(t *testing.T, userIDs ...string) *fixture {
	t.Helper()
	store := newFakeStore(userIDs...)
	publisher := &fakePublisher{}
	sink := &fakeSink{}
	return &fixture{
		store:     store,
		publisher: publisher,
		sink:      sink,
		chats:     NewChatService(store, zerolog.Nop()),
		messages:  NewMessageService(store, publisher, sink, zerolog.Nop()),
	}
}

func (f *fixture) privateChat(t *testing.T, a, b string) *models.Chat {
	t.Helper()
	chat, err := f.chats.ResolveOrCreate(context.Background(), a, b)
	require.NoError(t, err)
	return chat
}

func TestSend_EmptyBodyRejected(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, "alice", "bob")
	chat := f.privateChat(t, "alice", "bob")

	_, err := f.messages.Send(context.Background(), "alice", chat.ID, "   ")
	req.ErrorIs(err, ErrEmptyMessage)
	req.Empty(f.publisher.published())
	req.Empty(f.sink.notified())
}

func TestSend_ChatNotFound(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, "alice")

	_, err := f.messages.Send(context.Background(), "alice", "missing", "hi")
	req.ErrorIs(err, ErrChatNotFound)
}

func TestSend_NonParticipantForbidden(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, "alice", "bob", "mallory")
	chat := f.privateChat(t, "alice", "bob")

	_, err := f.messages.Send(context.Background(), "mallory", chat.ID, "hi")
	req.ErrorIs(err, ErrNotParticipant)

	_, _, err = f.messages.ListMessages(context.Background(), "mallory", chat.ID, 1, 10)
	req.ErrorIs(err, ErrNotParticipant)
}

func TestSend_PersistsAndFansOut(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, "alice", "bob")
	chat := f.privateChat(t, "alice", "bob")

	msg, err := f.messages.Send(context.Background(), "alice", chat.ID, "hello bob")
	req.NoError(err)
	req.Equal("hello bob", msg.Body)
	req.Equal("alice", msg.SenderID)
	req.NotNil(msg.Sender)

	events := f.publisher.published()
	req.Len(events, 1)
	req.Equal(realtime.ChannelFor(chat.ID), events[0].channel)
	req.Equal(realtime.EventMessageSent, events[0].event)
	// The sender is excluded so they never receive their own echo
	req.Equal("alice", events[0].excludeOrigin)

	payload, ok := events[0].payload.(deliveryEvent)
	req.True(ok)
	req.Equal(chat.ID, payload.ChatID)
	req.Equal(msg.ID, payload.Message.ID)

	// Only the other participant is notified
	notes := f.sink.notified()
	req.Len(notes, 1)
	req.Equal("bob", notes[0].userID)
	req.Equal("user-alice sent you a message", notes[0].n.Title)
	req.Equal("hello bob", notes[0].n.Body)
	req.Equal(chat.ID, notes[0].n.Data["chat_id"])
	req.Equal("user-alice", notes[0].n.Data["sender_name"])
}

func TestSend_SinkFailureDoesNotFailSend(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, "alice", "bob")
	chat := f.privateChat(t, "alice", "bob")
	f.sink.err = errors.New("push provider unreachable")

	msg, err := f.messages.Send(context.Background(), "alice", chat.ID, "still delivered")
	req.NoError(err)
	req.NotNil(msg)

	// The message committed and is retrievable
	messages, _, err := f.messages.ListMessages(context.Background(), "bob", chat.ID, 1, 10)
	req.NoError(err)
	req.Len(messages, 1)
	req.Equal("still delivered", messages[0].Body)
}

func TestSend_PublishFailureDoesNotFailSend(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, "alice", "bob")
	chat := f.privateChat(t, "alice", "bob")
	f.publisher.err = errors.New("redis down")

	_, err := f.messages.Send(context.Background(), "alice", chat.ID, "hello")
	req.NoError(err)

	// Notification still attempted independently
	req.Len(f.sink.notified(), 1)
}

func TestSend_NoFanOutWithoutCommit(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, "alice", "bob")
	chat := f.privateChat(t, "alice", "bob")
	f.store.failSave = true

	_, err := f.messages.Send(context.Background(), "alice", chat.ID, "hello")
	req.Error(err)
	req.Empty(f.publisher.published())
	req.Empty(f.sink.notified())
}

func TestListMessages_NewestFirst(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, "alice", "bob")
	chat := f.privateChat(t, "alice", "bob")

	for _, body := range []string{"m1", "m2", "m3"} {
		_, err := f.messages.Send(context.Background(), "alice", chat.ID, body)
		req.NoError(err)
	}

	messages, hasMore, err := f.messages.ListMessages(context.Background(), "bob", chat.ID, 1, 10)
	req.NoError(err)
	req.False(hasMore)
	req.Len(messages, 3)
	req.Equal("m3", messages[0].Body)
	req.Equal("m2", messages[1].Body)
	req.Equal("m1", messages[2].Body)
}

func TestListMessages_PaginationBoundary(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, "alice", "bob")
	chat := f.privateChat(t, "alice", "bob")

	for i := 0; i < 15; i++ {
		_, err := f.messages.Send(context.Background(), "alice", chat.ID, fmt.Sprintf("msg-%d", i))
		req.NoError(err)
	}

	page1, hasMore, err := f.messages.ListMessages(context.Background(), "alice", chat.ID, 1, 10)
	req.NoError(err)
	req.Len(page1, 10)
	req.True(hasMore)

	page2, hasMore, err := f.messages.ListMessages(context.Background(), "alice", chat.ID, 2, 10)
	req.NoError(err)
	req.Len(page2, 5)
	req.False(hasMore)

	// Pages do not overlap
	req.Equal("msg-14", page1[0].Body)
	req.Equal("msg-5", page1[9].Body)
	req.Equal("msg-4", page2[0].Body)
	req.Equal("msg-0", page2[4].Body)
}

func TestListMessages_PageSizeDefaults(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, "alice", "bob")
	chat := f.privateChat(t, "alice", "bob")

	for i := 0; i < 12; i++ {
		_, err := f.messages.Send(context.Background(), "alice", chat.ID, fmt.Sprintf("msg-%d", i))
		req.NoError(err)
	}

	messages, hasMore, err := f.messages.ListMessages(context.Background(), "alice", chat.ID, 0, 0)
	req.NoError(err)
	req.Len(messages, 10)
	req.True(hasMore)
}

func TestListMessages_InvalidPaging(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, "alice", "bob")
	chat := f.privateChat(t, "alice", "bob")

	_, _, err := f.messages.ListMessages(context.Background(), "alice", chat.ID, -1, 10)
	req.ErrorIs(err, ErrInvalidPage)

	_, _, err = f.messages.ListMessages(context.Background(), "alice", chat.ID, 1, -5)
	req.ErrorIs(err, ErrInvalidPage)
}

func TestListMessages_UnknownChat(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, "alice")

	_, _, err := f.messages.ListMessages(context.Background(), "alice", "missing", 1, 10)
	req.ErrorIs(err, ErrChatNotFound)
}

func TestSend_CancelledCallerStillFansOut(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, "alice", "bob")
	chat := f.privateChat(t, "alice", "bob")

	// Cancel the caller's context; the commit path in the fake ignores it,
	// and fan-out must run on a detached context.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.messages.Send(ctx, "alice", chat.ID, "late but delivered")
	req.NoError(err)
	req.Len(f.publisher.published(), 1)
	req.Len(f.sink.notified(), 1)
}
