package model

import "time"

// PendingUpgrade records a paid upgrade for an email that had no account yet.
// It is applied and removed when the account is created.
type PendingUpgrade struct {
	ID        string    `db:"id"`
	Email     string    `db:"email"`
	Plan      string    `db:"plan"`
	Provider  string    `db:"provider"`
	CreatedAt time.Time `db:"created_at"`
}
