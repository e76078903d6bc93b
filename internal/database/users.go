package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"resort/internal/models"
)

const selectUser = `SELECT id, username, email, is_admin, created_at FROM users`

func (s *store) CreateUser(ctx context.Context, user *models.User) error {
	ts := now()
	id, err := s.insert(ctx, `INSERT INTO users (username, email, is_admin, created_at) VALUES (?, ?, ?, ?)`,
		user.Username,
		user.Email,
		user.IsAdmin,
		ts,
	)
	if err != nil {
		return fmt.Errorf("failed to create user %q: %w", user.Username, err)
	}
	user.ID = id
	user.CreatedAt = ts
	return nil
}

func (s *store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.queryUser(ctx, selectUser+` WHERE id = ?`, id)
}

func (s *store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.queryUser(ctx, selectUser+` WHERE username = ?`, username)
}

func (s *store) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := s.query(ctx, selectUser+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.IsAdmin, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

func (s *store) queryUser(ctx context.Context, query string, arg any) (*models.User, error) {
	var u models.User
	err := s.queryRow(ctx, query, arg).Scan(&u.ID, &u.Username, &u.Email, &u.IsAdmin, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %v: %w", arg, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}
