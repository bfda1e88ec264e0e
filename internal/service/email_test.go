package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aicrypto/predictor/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendOTPEmail(t *testing.T) {
	mailer := &recordingMailer{}
	svc := NewEmailService(mailer, "AI Crypto Predictor")

	err := svc.SendOTPEmail(context.Background(), "alice@example.com", "042917", 10*time.Minute)
	require.NoError(t, err)

	sent := mailer.last()
	assert.Equal(t, "alice@example.com", sent.To)
	assert.Equal(t, "Your OTP Code", sent.Subject)
	assert.True(t, strings.HasPrefix(sent.Body, "Your login OTP is: 042917\n\nThis code expires in 10 minutes."))
}

func TestSendOTPEmail_MailerError(t *testing.T) {
	mailer := &recordingMailer{err: errors.New("smtp down")}
	svc := NewEmailService(mailer, "AI Crypto Predictor")

	err := svc.SendOTPEmail(context.Background(), "alice@example.com", "042917", 10*time.Minute)
	assert.Error(t, err)
}

func TestNewMailer(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		want    any
		wantErr bool
	}{
		{"log", config.Config{EmailProvider: "log"}, LogMailer{}, false},
		{"resend", config.Config{EmailProvider: "resend", ResendAPIKey: "re_123"}, &ResendMailer{}, false},
		{"resend without key", config.Config{EmailProvider: "resend"}, nil, true},
		{"sendgrid", config.Config{EmailProvider: "sendgrid", SendGridAPIKey: "SG.123"}, &SendGridMailer{}, false},
		{"smtp", config.Config{EmailProvider: "smtp", SMTPServer: "smtp.example.com", SMTPPort: 587, SMTPUser: "u", SMTPPass: "p"}, &SMTPMailer{}, false},
		{"smtp incomplete", config.Config{EmailProvider: "smtp", SMTPServer: "smtp.example.com"}, nil, true},
		{"unknown", config.Config{EmailProvider: "pigeon"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mailer, err := NewMailer(&tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, mailer)
		})
	}
}

func TestBuildMessage(t *testing.T) {
	msg := string(buildMessage("noreply@example.com", "alice@example.com", "Hi", "line1\nline2"))

	assert.Contains(t, msg, "From: noreply@example.com\r\n")
	assert.Contains(t, msg, "To: alice@example.com\r\n")
	assert.Contains(t, msg, "Subject: Hi\r\n")
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\nline1\r\nline2"))
}
