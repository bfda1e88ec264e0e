package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aicrypto/predictor/internal/model"
	"github.com/go-redis/redis/v8"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

var ErrOTPNotFound = errors.New("otp not found")

// OTPStore keeps pending one-time passwords and the per-email resend window.
type OTPStore interface {
	// AllowSend reports whether a new code may be sent to email and, if so,
	// starts the resend window.
	AllowSend(ctx context.Context, email string) (bool, error)
	Save(ctx context.Context, code *model.OTPCode) error
	Get(ctx context.Context, email string) (*model.OTPCode, error)
	// Fail counts a wrong guess against the pending code for email and
	// returns the failures so far. Saving a new code resets the count.
	Fail(ctx context.Context, email string) (int, error)
	Delete(ctx context.Context, email string) error
}

const otpStoreSize = 10000

type MemoryOTPStore struct {
	mu    sync.Mutex
	sent  *expirable.LRU[string, time.Time]
	codes *expirable.LRU[string, *model.OTPCode]
}

func NewMemoryOTPStore(expiry, resendWindow time.Duration) *MemoryOTPStore {
	return &MemoryOTPStore{
		sent:  expirable.NewLRU[string, time.Time](otpStoreSize, nil, resendWindow),
		codes: expirable.NewLRU[string, *model.OTPCode](otpStoreSize, nil, expiry),
	}
}

func (s *MemoryOTPStore) AllowSend(ctx context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sent.Contains(email) {
		return false, nil
	}
	s.sent.Add(email, time.Now())
	return true, nil
}

func (s *MemoryOTPStore) Save(ctx context.Context, code *model.OTPCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *code
	stored.Attempts = 0
	s.codes.Add(code.Email, &stored)
	return nil
}

func (s *MemoryOTPStore) Get(ctx context.Context, email string) (*model.OTPCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code, ok := s.codes.Get(email)
	if !ok || code.IsExpired() {
		return nil, ErrOTPNotFound
	}
	copied := *code
	return &copied, nil
}

func (s *MemoryOTPStore) Fail(ctx context.Context, email string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code, ok := s.codes.Peek(email)
	if !ok || code.IsExpired() {
		return 0, ErrOTPNotFound
	}
	code.Attempts++
	return code.Attempts, nil
}

func (s *MemoryOTPStore) Delete(ctx context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.codes.Remove(email)
	return nil
}

type RedisOTPStore struct {
	client       *redis.Client
	expiry       time.Duration
	resendWindow time.Duration
}

func NewRedisOTPStore(client *redis.Client, expiry, resendWindow time.Duration) *RedisOTPStore {
	return &RedisOTPStore{
		client:       client,
		expiry:       expiry,
		resendWindow: resendWindow,
	}
}

func otpSentKey(email string) string {
	return "otp:sent:" + email
}

func otpCodeKey(email string) string {
	return "otp:code:" + email
}

func otpFailKey(email string) string {
	return "otp:fail:" + email
}

func (s *RedisOTPStore) AllowSend(ctx context.Context, email string) (bool, error) {
	ok, err := s.client.SetNX(ctx, otpSentKey(email), time.Now().Unix(), s.resendWindow).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

func (s *RedisOTPStore) Save(ctx context.Context, code *model.OTPCode) error {
	data, err := json.Marshal(code)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, otpCodeKey(code.Email), data, s.expiry)
		pipe.Del(ctx, otpFailKey(code.Email))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisOTPStore) Get(ctx context.Context, email string) (*model.OTPCode, error) {
	data, err := s.client.Get(ctx, otpCodeKey(email)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrOTPNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var code model.OTPCode
	err = json.Unmarshal(data, &code)
	if err != nil {
		return nil, fmt.Errorf("decode otp: %w", err)
	}
	if code.IsExpired() {
		return nil, ErrOTPNotFound
	}
	return &code, nil
}

// Fail uses INCR so concurrent guesses across instances are all counted
func (s *RedisOTPStore) Fail(ctx context.Context, email string) (int, error) {
	exists, err := s.client.Exists(ctx, otpCodeKey(email)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis exists: %w", err)
	}
	if exists == 0 {
		return 0, ErrOTPNotFound
	}

	var incr *redis.IntCmd
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, otpFailKey(email))
		pipe.Expire(ctx, otpFailKey(email), s.expiry)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis incr: %w", err)
	}
	return int(incr.Val()), nil
}

func (s *RedisOTPStore) Delete(ctx context.Context, email string) error {
	err := s.client.Del(ctx, otpCodeKey(email), otpFailKey(email)).Err()
	if err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
