// Copyright (C) 2025 efchat.net <tj@efchat.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package models

import "time"

// Message is an immutable chat message. Seq is a store-assigned insertion id
// that breaks ordering ties between messages with equal timestamps.
type Message struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chat_id"`
	SenderID  string    `json:"sender_id"`
	Body      string    `json:"message"`
	Seq       int64     `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	Sender    *User     `json:"user,omitempty"`
}
