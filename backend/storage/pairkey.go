// Copyright (C) 2025 efchat.net <tj@efchat.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package storage

// PairKey derives the order-independent signature for a private chat's user
// pair. Users are ordered consistently so the unique constraint holds no
// matter which side initiates the chat.
func PairKey(userID, otherUserID string) string {
	if userID > otherUserID {
		userID, otherUserID = otherUserID, userID
	}
	return userID + ":" + otherUserID
}
