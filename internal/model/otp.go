package model

import "time"

// OTPCode is a hashed one-time password waiting to be verified.
type OTPCode struct {
	Email     string    `json:"email"`
	Hash      string    `json:"hash"`
	ExpiresAt time.Time `json:"expires_at"`
	Attempts  int       `json:"attempts"`
}

func (o *OTPCode) IsExpired() bool {
	return time.Now().After(o.ExpiresAt)
}
