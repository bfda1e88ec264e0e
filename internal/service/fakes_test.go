package service

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/aicrypto/predictor/internal/model"
	"github.com/aicrypto/predictor/internal/repository"
	"github.com/aicrypto/predictor/internal/service/payment"
)

type setPlanCall struct {
	Email string
	Plan  string
}

// spyAccounts is an in-memory AccountRepository that records SetPlan calls
type spyAccounts struct {
	mu       sync.Mutex
	accounts map[string]*model.Account
	calls    []setPlanCall
	err      error
	// setPlanFailures makes the next SetPlan calls fail with setPlanErr
	setPlanFailures int
	setPlanErr      error
}

func newSpyAccounts(existing ...*model.Account) *spyAccounts {
	s := &spyAccounts{accounts: map[string]*model.Account{}}
	for _, a := range existing {
		s.accounts[a.Email] = a
	}
	return s
}

func (s *spyAccounts) Create(ctx context.Context, account *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	if _, ok := s.accounts[account.Email]; ok {
		return repository.ErrDuplicateEmail
	}
	copied := *account
	s.accounts[account.Email] = &copied
	return nil
}

func (s *spyAccounts) ByEmail(ctx context.Context, email string) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	account, ok := s.accounts[email]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	copied := *account
	return &copied, nil
}

func (s *spyAccounts) SetPlan(ctx context.Context, email, plan string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, setPlanCall{Email: email, Plan: plan})
	if s.err != nil {
		return false, s.err
	}
	if s.setPlanFailures > 0 {
		s.setPlanFailures--
		return false, s.setPlanErr
	}
	account, ok := s.accounts[email]
	if !ok {
		return false, nil
	}
	account.Plan = plan
	return true, nil
}

func (s *spyAccounts) exists(email string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.accounts[email]
	return ok
}

func (s *spyAccounts) setPlanCalls() []setPlanCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]setPlanCall(nil), s.calls...)
}

// memoryPending applies upgrades through accounts the way the SQL
// repository does in one transaction: the row is only removed once
// SetPlan succeeds
type memoryPending struct {
	mu         sync.Mutex
	upgrades   map[string]*model.PendingUpgrade
	accounts   *spyAccounts
	beforeSave func()
}

func newMemoryPending(accounts *spyAccounts) *memoryPending {
	return &memoryPending{upgrades: map[string]*model.PendingUpgrade{}, accounts: accounts}
}

func (p *memoryPending) Save(ctx context.Context, upgrade *model.PendingUpgrade) error {
	if p.beforeSave != nil {
		p.beforeSave()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.upgrades[upgrade.Email]; !ok {
		p.upgrades[upgrade.Email] = upgrade
	}
	return nil
}

func (p *memoryPending) ByEmail(ctx context.Context, email string) (*model.PendingUpgrade, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	upgrade, ok := p.upgrades[email]
	if !ok {
		return nil, repository.ErrPendingUpgradeNotFound
	}
	return upgrade, nil
}

func (p *memoryPending) Apply(ctx context.Context, email string) (*model.PendingUpgrade, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	upgrade, ok := p.upgrades[email]
	if !ok {
		return nil, repository.ErrPendingUpgradeNotFound
	}
	if !p.accounts.exists(email) {
		return nil, repository.ErrAccountNotFound
	}

	_, err := p.accounts.SetPlan(ctx, email, upgrade.Plan)
	if err != nil {
		return nil, err
	}
	delete(p.upgrades, email)
	return upgrade, nil
}

func (p *memoryPending) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.upgrades)
}

type memoryEvents struct {
	mu     sync.Mutex
	events map[string]*model.WebhookEvent
}

func newMemoryEvents() *memoryEvents {
	return &memoryEvents{events: map[string]*model.WebhookEvent{}}
}

func (e *memoryEvents) Exists(ctx context.Context, id string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, ok := e.events[id]
	return ok, nil
}

func (e *memoryEvents) Record(ctx context.Context, event *model.WebhookEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.events[event.ID] = event
	return nil
}

func (e *memoryEvents) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var n int64
	for id, event := range e.events {
		if event.ProcessedAt.Before(cutoff) {
			delete(e.events, id)
			n++
		}
	}
	return n, nil
}

// fakeProvider returns canned checkout results and counts calls
type fakeProvider struct {
	mu            sync.Mutex
	url           string
	err           error
	checkoutCalls int
	lastEmail     string
	event         *payment.Event
	parseErr      error
}

func (f *fakeProvider) Name() string {
	return "fake"
}

func (f *fakeProvider) CreateCheckoutURL(ctx context.Context, customerEmail string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.checkoutCalls++
	f.lastEmail = customerEmail
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

func (f *fakeProvider) ParseWebhook(payload []byte, headers http.Header) (*payment.Event, error) {
	if f.parseErr != nil {
		return nil, f.parseErr
	}
	return f.event, nil
}

// recordingMailer captures sent messages
type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

func (m *recordingMailer) Send(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *recordingMailer) last() sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[len(m.sent)-1]
}
