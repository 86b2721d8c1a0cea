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

package realtime

import "context"

// EventMessageSent is published on a chat's live channel for every
// committed message.
const EventMessageSent = "message.sent"

// Publisher pushes events onto per-chat live channels. Subscribers are the
// websocket edges holding connections for chat participants; the edge drops
// the event for the connection identified by excludeOrigin so senders never
// receive their own echo.
type Publisher interface {
	Publish(ctx context.Context, channel, event string, payload interface{}, excludeOrigin string) error
}

// ChannelFor derives the live channel name for a chat.
func ChannelFor(chatID string) string {
	return "conversation:" + chatID
}

// Envelope is the wire format carried on the live channel.
type Envelope struct {
	Event         string      `json:"event"`
	ExcludeOrigin string      `json:"exclude_origin,omitempty"`
	Payload       interface{} `json:"payload"`
}
