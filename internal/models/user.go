package models

import "time"

// User is an account holder. The user id doubles as the ledger customer id.
// A member's balance is not stored here: it is derived from the ledger log.
type User struct {
	UserID       string    `db:"user_id" json:"user_id"`
	Name         string    `db:"name" json:"name"`
	Contact      string    `db:"contact" json:"contact"`
	PasswordHash string    `db:"password_hash" json:"-"`
	IsMember     bool      `db:"is_member" json:"is_member"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
