package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/aicrypto/predictor/internal/metrics"
	"github.com/aicrypto/predictor/internal/model"
	"github.com/aicrypto/predictor/internal/validation"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidEmail        = errors.New("invalid email address")
	ErrInvalidOTPFormat    = errors.New("OTP must be exactly 6 digits")
	ErrOTPRateLimited      = errors.New("please wait before requesting another OTP")
	ErrOTPIncorrect        = errors.New("invalid or expired OTP")
	ErrOTPAttemptsExceeded = errors.New("too many incorrect OTP attempts")
	ErrInvalidToken        = errors.New("invalid token")
)

// maxOTPAttempts wrong guesses discard the pending code
const maxOTPAttempts = 5

// Session is the result of a successful OTP verification
type Session struct {
	Account *model.Account
	Token   string
}

// Claims carried by session tokens
type Claims struct {
	AccountID string
	Email     string
}

type AuthService struct {
	otps      OTPStore
	emails    *EmailService
	accounts  *AccountService
	metrics   *metrics.Metrics
	jwtSecret string
	jwtExpiry time.Duration
	otpExpiry time.Duration
}

func NewAuthService(
	otps OTPStore,
	emails *EmailService,
	accounts *AccountService,
	m *metrics.Metrics,
	jwtSecret string,
	jwtExpiry time.Duration,
	otpExpiry time.Duration,
) *AuthService {
	return &AuthService{
		otps:      otps,
		emails:    emails,
		accounts:  accounts,
		metrics:   m,
		jwtSecret: jwtSecret,
		jwtExpiry: jwtExpiry,
		otpExpiry: otpExpiry,
	}
}

// SendOTP emails a fresh six digit code to email. At most one code is sent
// per resend window; earlier codes are replaced.
func (s *AuthService) SendOTP(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	err := validation.ValidateEmail(email)
	if err != nil {
		return ErrInvalidEmail
	}

	allowed, err := s.otps.AllowSend(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check resend window: %w", err)
	}
	if !allowed {
		s.metrics.RecordOTPEmail("rate_limited")
		return ErrOTPRateLimited
	}

	code, err := generateOTP()
	if err != nil {
		return fmt.Errorf("failed to generate otp: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash otp: %w", err)
	}

	err = s.otps.Save(ctx, &model.OTPCode{
		Email:     email,
		Hash:      string(hash),
		ExpiresAt: time.Now().Add(s.otpExpiry),
	})
	if err != nil {
		return fmt.Errorf("failed to save otp: %w", err)
	}

	err = s.emails.SendOTPEmail(ctx, email, code, s.otpExpiry)
	if err != nil {
		s.metrics.RecordOTPEmail("failed")
		return fmt.Errorf("failed to send otp email: %w", err)
	}

	s.metrics.RecordOTPEmail("sent")
	return nil
}

// VerifyOTP consumes the pending code for email and opens a session,
// creating the account on first sign-in.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) (*Session, error) {
	email = normalizeEmail(email)

	if !validation.ValidOTP(code) {
		return nil, ErrInvalidOTPFormat
	}

	stored, err := s.otps.Get(ctx, email)
	if errors.Is(err, ErrOTPNotFound) {
		return nil, ErrOTPIncorrect
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load otp: %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(stored.Hash), []byte(code))
	if err != nil {
		return nil, s.recordFailure(ctx, email)
	}

	err = s.otps.Delete(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to consume otp: %w", err)
	}

	account, err := s.accounts.EnsureAccount(ctx, email)
	if err != nil {
		return nil, err
	}

	token, err := s.GenerateJWT(account)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	slog.Info("otp verified", "email", email, "account_id", account.ID)
	return &Session{Account: account, Token: token}, nil
}

func (s *AuthService) recordFailure(ctx context.Context, email string) error {
	attempts, err := s.otps.Fail(ctx, email)
	if errors.Is(err, ErrOTPNotFound) {
		return ErrOTPIncorrect
	}
	if err != nil {
		return fmt.Errorf("failed to record otp attempt: %w", err)
	}
	if attempts < maxOTPAttempts {
		return ErrOTPIncorrect
	}

	err = s.otps.Delete(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to discard otp: %w", err)
	}

	slog.Warn("otp discarded after repeated failures", "email", email, "attempts", attempts)
	return ErrOTPAttemptsExceeded
}

func (s *AuthService) GenerateJWT(account *model.Account) (string, error) {
	claims := jwt.MapClaims{
		"account_id": account.ID,
		"email":      account.Email,
		"exp":        time.Now().Add(s.jwtExpiry).Unix(),
		"iat":        time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func (s *AuthService) VerifyJWT(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	email, _ := mapClaims["email"].(string)
	accountID, _ := mapClaims["account_id"].(string)
	if email == "" {
		return nil, ErrInvalidToken
	}

	return &Claims{AccountID: accountID, Email: email}, nil
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
