package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/aicrypto/predictor/internal/model"
	"github.com/jmoiron/sqlx"
)

var ErrPendingUpgradeNotFound = errors.New("pending upgrade not found")

type PendingUpgradeRepository interface {
	// Save keeps the first pending upgrade recorded for an email.
	Save(ctx context.Context, upgrade *model.PendingUpgrade) error
	ByEmail(ctx context.Context, email string) (*model.PendingUpgrade, error)
	// Apply moves the pending upgrade for email onto its account and removes
	// it, atomically. Without an account the row is kept and
	// ErrAccountNotFound is returned.
	Apply(ctx context.Context, email string) (*model.PendingUpgrade, error)
}

type pendingUpgradeRepository struct {
	db *sqlx.DB
}

func NewPendingUpgradeRepository(db *sqlx.DB) PendingUpgradeRepository {
	return &pendingUpgradeRepository{db: db}
}

func (r *pendingUpgradeRepository) Save(ctx context.Context, upgrade *model.PendingUpgrade) error {
	query := `
		INSERT INTO pending_upgrades (id, email, plan, provider, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query,
		upgrade.ID,
		upgrade.Email,
		upgrade.Plan,
		upgrade.Provider,
		upgrade.CreatedAt,
	)
	return err
}

func (r *pendingUpgradeRepository) ByEmail(ctx context.Context, email string) (*model.PendingUpgrade, error) {
	var upgrade model.PendingUpgrade
	query := `SELECT id, email, plan, provider, created_at FROM pending_upgrades WHERE email = $1`

	err := r.db.GetContext(ctx, &upgrade, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPendingUpgradeNotFound
	}
	if err != nil {
		return nil, err
	}

	return &upgrade, nil
}

// Apply claims the row with DELETE ... RETURNING so two concurrent signups
// cannot both apply it; any failure rolls the delete back.
func (r *pendingUpgradeRepository) Apply(ctx context.Context, email string) (*model.PendingUpgrade, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var upgrade model.PendingUpgrade
	query := `
		DELETE FROM pending_upgrades
		WHERE email = $1
		RETURNING id, email, plan, provider, created_at
	`
	err = tx.GetContext(ctx, &upgrade, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPendingUpgradeNotFound
	}
	if err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE accounts SET plan = $1, updated_at = $2 WHERE email = $3`,
		upgrade.Plan, time.Now(), email,
	)
	if err != nil {
		return nil, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrAccountNotFound
	}

	err = tx.Commit()
	if err != nil {
		return nil, err
	}

	return &upgrade, nil
}
