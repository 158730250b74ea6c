package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"practiceplanner/internal/db"
)

type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*db.User, error)
	Create(ctx context.Context, email, password string) (*db.User, error)
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(conn *sql.DB) UserRepository {
	return &userRepository{db: conn}
}

// GetByEmail returns nil, nil when no user has that email.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*db.User, error) {
	var u db.User
	err := r.db.QueryRowContext(ctx, "SELECT id, email, password_hash FROM api_users WHERE email = $1", email).
		Scan(&u.ID, &u.Email, &u.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}

func (r *userRepository) Create(ctx context.Context, email, password string) (*db.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &db.User{Email: email, PasswordHash: string(hashed)}
	err = r.db.QueryRowContext(ctx,
		"INSERT INTO api_users (email, password_hash) VALUES ($1, $2) RETURNING id",
		email, u.PasswordHash,
	).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("user %s: %w", email, ErrConflict)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}
