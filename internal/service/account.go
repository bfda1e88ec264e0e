package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aicrypto/predictor/internal/model"
	"github.com/aicrypto/predictor/internal/repository"
	"github.com/google/uuid"
)

type AccountService struct {
	accounts repository.AccountRepository
	pending  repository.PendingUpgradeRepository
}

func NewAccountService(accounts repository.AccountRepository, pending repository.PendingUpgradeRepository) *AccountService {
	return &AccountService{
		accounts: accounts,
		pending:  pending,
	}
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// UpgradeToPro sets the account's plan to pro. It is idempotent.
// An email without an account is not an error: the upgrade is kept as
// pending, tagged with provider, and applied by EnsureAccount at signup.
// Store failures are returned.
func (s *AccountService) UpgradeToPro(ctx context.Context, email, provider string) error {
	email = normalizeEmail(email)

	found, err := s.accounts.SetPlan(ctx, email, model.PlanPro)
	if err != nil {
		return fmt.Errorf("failed to upgrade account: %w", err)
	}

	if found {
		slog.Info("account upgraded", "email", email, "plan", model.PlanPro)
		return nil
	}

	if s.pending == nil {
		slog.Warn("upgrade for unknown account discarded", "email", email)
		return nil
	}

	err = s.pending.Save(ctx, &model.PendingUpgrade{
		ID:        uuid.New().String(),
		Email:     email,
		Plan:      model.PlanPro,
		Provider:  provider,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to record pending upgrade: %w", err)
	}

	// The account may have been created since SetPlan looked
	upgrade, err := s.applyPending(ctx, email)
	if err != nil {
		return err
	}
	if upgrade != nil {
		slog.Info("account upgraded", "email", email, "plan", upgrade.Plan)
		return nil
	}

	slog.Warn("upgrade for unknown account recorded as pending", "email", email, "provider", provider)
	return nil
}

func (s *AccountService) Account(ctx context.Context, email string) (*model.Account, error) {
	account, err := s.accounts.ByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return account, nil
}

// EnsureAccount returns the account for email, creating a free one on first
// sign-in. Any pending upgrade recorded for the email is applied first.
func (s *AccountService) EnsureAccount(ctx context.Context, email string) (*model.Account, error) {
	email = normalizeEmail(email)

	account, err := s.accounts.ByEmail(ctx, email)
	if err == nil {
		return s.withPending(ctx, account)
	}
	if !errors.Is(err, repository.ErrAccountNotFound) {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	now := time.Now()
	account = &model.Account{
		ID:        uuid.New().String(),
		Email:     email,
		Plan:      model.PlanFree,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.accounts.Create(ctx, account)
	if errors.Is(err, repository.ErrDuplicateEmail) {
		// Lost a race with a concurrent sign-in
		account, err = s.accounts.ByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("failed to get account: %w", err)
		}
		return s.withPending(ctx, account)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	slog.Info("new account created", "email", email, "account_id", account.ID)
	return s.withPending(ctx, account)
}

func (s *AccountService) withPending(ctx context.Context, account *model.Account) (*model.Account, error) {
	upgrade, err := s.applyPending(ctx, account.Email)
	if err != nil {
		return nil, err
	}
	if upgrade != nil {
		account.Plan = upgrade.Plan
	}
	return account, nil
}

// applyPending returns nil when there is nothing to apply or no account yet
func (s *AccountService) applyPending(ctx context.Context, email string) (*model.PendingUpgrade, error) {
	if s.pending == nil {
		return nil, nil
	}

	upgrade, err := s.pending.Apply(ctx, email)
	if errors.Is(err, repository.ErrPendingUpgradeNotFound) || errors.Is(err, repository.ErrAccountNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to apply pending upgrade: %w", err)
	}

	slog.Info("pending upgrade applied",
		"email", email,
		"plan", upgrade.Plan,
		"provider", upgrade.Provider,
		"recorded_at", upgrade.CreatedAt,
	)
	return upgrade, nil
}
