package model

import "time"

type Account struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Plan      string    `db:"plan" json:"plan"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

const (
	PlanFree = "free"
	PlanPro  = "pro"
)

func (a *Account) IsPro() bool {
	return a.Plan == PlanPro
}

// IsValidPlan reports whether plan is a known tier.
func IsValidPlan(plan string) bool {
	return plan == PlanFree || plan == PlanPro
}
