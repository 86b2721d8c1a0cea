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

import "errors"

// Operation failures surfaced to callers. Storage races on chat creation are
// resolved internally and never appear here.
var (
	// Invalid operations (rejected before any write)
	ErrSelfChat     = errors.New("cannot chat with yourself")
	ErrEmptyMessage = errors.New("message body must not be empty")
	ErrInvalidPage  = errors.New("page and page size must be positive")

	// Authorization
	ErrNotParticipant = errors.New("not a participant of this chat")

	// Missing records
	ErrChatNotFound = errors.New("chat not found")
	ErrUserNotFound = errors.New("user not found")
)
