// Copyright (C) 2025 efchat.net <tj@efchat.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package postgres

import (
	"context"
	"database/sql"

	"github.com/efchatnet/efmsg/backend/models"
)

func (s *Store) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	var email sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, username, email, created_at
		FROM users
		WHERE user_id = $1
	`, userID).Scan(&user.ID, &user.Username, &email, &user.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	user.Email = email.String
	return &user, nil
}

func (s *Store) ListUsersExcept(ctx context.Context, userID string) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, username, email, created_at
		FROM users
		WHERE user_id != $1
		ORDER BY username
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		var email sql.NullString

		if err := rows.Scan(&user.ID, &user.Username, &email, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.Email = email.String
		users = append(users, user)
	}

	return users, rows.Err()
}
