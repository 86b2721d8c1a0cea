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

package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/efchatnet/efmsg/backend/middleware"
	"github.com/efchatnet/efmsg/backend/service"
)

// MessageHandler exposes message send and paginated retrieval
type MessageHandler struct {
	messages service.MessageDispatcher
}

func NewMessageHandler(messages service.MessageDispatcher) *MessageHandler {
	return &MessageHandler{messages: messages}
}

// SendMessageRequest carries a new message for a chat
type SendMessageRequest struct {
	ChatID  string `json:"chat_id"`
	Message string `json:"message"`
}

// SendMessage persists a message and fans it out to the other participants
// POST /api/messages
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.ChatID == "" {
		http.Error(w, "chat_id is required", http.StatusBadRequest)
		return
	}

	msg, err := h.messages.Send(r.Context(), userID, req.ChatID, req.Message)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": msg,
		"status":  "sent",
	})
}

// ListMessages returns one page of a chat's messages, newest first
// GET /api/messages?chat_id=xxx&page=1&page_size=10
func (h *MessageHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	chatID := r.URL.Query().Get("chat_id")
	if chatID == "" {
		http.Error(w, "chat_id is required", http.StatusBadRequest)
		return
	}

	page, ok := queryInt(r, "page", 1)
	if !ok {
		http.Error(w, "page must be a positive integer", http.StatusBadRequest)
		return
	}

	pageSize, ok := queryInt(r, "page_size", 0)
	if !ok {
		http.Error(w, "page_size must be a positive integer", http.StatusBadRequest)
		return
	}

	messages, hasMore, err := h.messages.ListMessages(r.Context(), userID, chatID, page, pageSize)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"messages": messages,
		"count":    len(messages),
		"has_more": hasMore,
	})
}

// queryInt parses an optional integer query parameter. Absent values yield
// def; non-numeric or non-positive values are rejected.
func queryInt(r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, false
	}
	return v, true
}
