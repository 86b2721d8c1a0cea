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

package integration

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/efchatnet/efmsg/backend/handlers"
	"github.com/efchatnet/efmsg/backend/middleware"
	"github.com/efchatnet/efmsg/backend/notify"
	"github.com/efchatnet/efmsg/backend/realtime"
	"github.com/efchatnet/efmsg/backend/service"
	"github.com/efchatnet/efmsg/backend/storage/postgres"
)

// MessagingIntegration provides direct messaging as a plugin for efchat
type MessagingIntegration struct {
	store          *postgres.Store
	sink           *notify.AsyncSink
	chatHandler    *handlers.ChatHandler
	messageHandler *handlers.MessageHandler
	userHandler    *handlers.UserHandler
	jwtSecret      string
	jwtIssuer      string
}

// Config holds configuration for the messaging integration
type Config struct {
	DB              *sql.DB
	Redis           *redis.Client
	JWTSecret       string
	JWTIssuer       string
	NotifyQueueSize int
	Logger          zerolog.Logger
}

// NewMessagingIntegration creates a messaging integration that can be
// embedded into efchat
func NewMessagingIntegration(config *Config) (*MessagingIntegration, error) {
	store := postgres.NewStore(config.DB)

	// Run migrations
	if err := store.Migrate(); err != nil {
		return nil, err
	}

	publisher := realtime.NewRedisPublisher(config.Redis)
	sink := notify.NewAsyncSink(notify.NewRedisSink(config.Redis), config.NotifyQueueSize, config.Logger)

	chatService := service.NewChatService(store, config.Logger)
	messageService := service.NewMessageService(store, publisher, sink, config.Logger)

	return &MessagingIntegration{
		store:          store,
		sink:           sink,
		chatHandler:    handlers.NewChatHandler(chatService),
		messageHandler: handlers.NewMessageHandler(messageService),
		userHandler:    handlers.NewUserHandler(store),
		jwtSecret:      config.JWTSecret,
		jwtIssuer:      config.JWTIssuer,
	}, nil
}

// RegisterRoutes adds messaging routes to an existing router.
// If authMiddleware is nil, it will use the built-in JWT validation
func (m *MessagingIntegration) RegisterRoutes(router *mux.Router, authMiddleware func(http.Handler) http.Handler) {
	api := router.PathPrefix("/api").Subrouter()

	// Use provided auth middleware or create our own
	if authMiddleware != nil {
		api.Use(authMiddleware)
	} else {
		api.Use(middleware.NewAuthMiddleware(m.jwtSecret, m.jwtIssuer))
	}

	// Chat session endpoints
	api.HandleFunc("/chats", m.chatHandler.CreateChat).Methods("POST", "OPTIONS")
	api.HandleFunc("/chats", m.chatHandler.ListChats).Methods("GET", "OPTIONS")
	api.HandleFunc("/chats/{chatId}", m.chatHandler.GetChat).Methods("GET", "OPTIONS")

	// Message endpoints
	api.HandleFunc("/messages", m.messageHandler.SendMessage).Methods("POST", "OPTIONS")
	api.HandleFunc("/messages", m.messageHandler.ListMessages).Methods("GET", "OPTIONS")

	// User directory
	api.HandleFunc("/users", m.userHandler.ListUsers).Methods("GET", "OPTIONS")
}

// GetStore returns the underlying storage implementation
func (m *MessagingIntegration) GetStore() *postgres.Store {
	return m.store
}

// ValidateSetup checks if the messaging module is properly configured
func (m *MessagingIntegration) ValidateSetup() error {
	if err := m.store.Migrate(); err != nil {
		return err
	}

	if m.jwtSecret == "" {
		return errors.New("JWT secret is not configured")
	}

	return nil
}

// Close drains the notification queue. Call during host shutdown.
func (m *MessagingIntegration) Close() {
	m.sink.Close()
}
