// Copyright (C) 2025 efchat.net <tj@efchat.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "test-secret"
	testIssuer = "efchat"
)

func signToken(t *testing.T, userID, issuer string, expiresIn time.Duration) string {
	t.Helper()
	claims := &Claims{
		UserID:   userID,
		Username: "tester",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    issuer,
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func authedEcho(t *testing.T) (http.Handler, *string) {
	t.Helper()
	var seenUserID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := GetUserID(r)
		require.True(t, ok)
		seenUserID = userID
		w.WriteHeader(http.StatusOK)
	})
	return NewAuthMiddleware(testSecret, testIssuer)(next), &seenUserID
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	req := require.New(t)
	handler, seenUserID := authedEcho(t)

	r := httptest.NewRequest("GET", "/api/chats", nil)
	r.Header.Set("Authorization", "Bearer "+signToken(t, "alice", testIssuer, time.Hour))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	req.Equal(http.StatusOK, w.Code)
	req.Equal("alice", *seenUserID)
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	handler, _ := authedEcho(t)

	r := httptest.NewRequest("GET", "/api/chats", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_MalformedHeader(t *testing.T) {
	handler, _ := authedEcho(t)

	r := httptest.NewRequest("GET", "/api/chats", nil)
	r.Header.Set("Authorization", "Basic abc123")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	handler, _ := authedEcho(t)

	r := httptest.NewRequest("GET", "/api/chats", nil)
	r.Header.Set("Authorization", "Bearer "+signToken(t, "alice", testIssuer, -time.Minute))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_WrongIssuer(t *testing.T) {
	handler, _ := authedEcho(t)

	r := httptest.NewRequest("GET", "/api/chats", nil)
	r.Header.Set("Authorization", "Bearer "+signToken(t, "alice", "someone-else", time.Hour))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_MissingUserID(t *testing.T) {
	handler, _ := authedEcho(t)

	r := httptest.NewRequest("GET", "/api/chats", nil)
	r.Header.Set("Authorization", "Bearer "+signToken(t, "", testIssuer, time.Hour))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}
