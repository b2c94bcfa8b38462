package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"chargefleet/internal/models"
)

// ErrUserNotFound indicates a missing user row.
var ErrUserNotFound = errors.New("user not found")

// UserRepository persists account holders.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository returns repository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	const query = `
		INSERT INTO users (user_id, name, contact, password_hash, is_member, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at
	`
	return r.db.QueryRowContext(ctx, query,
		user.UserID,
		user.Name,
		user.Contact,
		user.PasswordHash,
		user.IsMember,
	).Scan(&user.CreatedAt)
}

// GetByUserID returns a user by id.
func (r *UserRepository) GetByUserID(ctx context.Context, userID string) (*models.User, error) {
	const query = `
		SELECT user_id, name, contact, password_hash, is_member, created_at
		FROM users
		WHERE user_id = $1
	`
	var u models.User
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&u.UserID,
		&u.Name,
		&u.Contact,
		&u.PasswordHash,
		&u.IsMember,
		&u.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", userID, ErrUserNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// SetMember flips the membership flag, enabling the balance ledger.
func (r *UserRepository) SetMember(ctx context.Context, userID string, isMember bool) error {
	const query = `
		UPDATE users
		SET is_member = $2
		WHERE user_id = $1
	`
	result, err := r.db.ExecContext(ctx, query, userID, isMember)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("user %s: %w", userID, ErrUserNotFound)
	}
	return nil
}
