package service

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/aicrypto/predictor/internal/config"
	"github.com/resend/resend-go/v2"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer delivers a plain-text email
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// NewMailer selects the mail transport configured by EMAIL_PROVIDER
func NewMailer(cfg *config.Config) (Mailer, error) {
	switch cfg.EmailProvider {
	case "log", "":
		return LogMailer{}, nil
	case "resend":
		if cfg.ResendAPIKey == "" {
			return nil, fmt.Errorf("RESEND_API_KEY is required when EMAIL_PROVIDER=resend")
		}
		return NewResendMailer(cfg.ResendAPIKey, cfg.EmailFrom), nil
	case "sendgrid":
		if cfg.SendGridAPIKey == "" {
			return nil, fmt.Errorf("SENDGRID_API_KEY is required when EMAIL_PROVIDER=sendgrid")
		}
		return NewSendGridMailer(cfg.SendGridAPIKey, cfg.EmailFrom, cfg.AppName), nil
	case "smtp":
		if cfg.SMTPServer == "" || cfg.SMTPUser == "" || cfg.SMTPPass == "" {
			return nil, fmt.Errorf("SMTP_SERVER, SMTP_USER and SMTP_PASS are required when EMAIL_PROVIDER=smtp")
		}
		return &SMTPMailer{
			Host:     cfg.SMTPServer,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.EmailFrom,
			Timeout:  20 * time.Second,
		}, nil
	default:
		return nil, fmt.Errorf("unknown email provider: %s (supported: log, resend, sendgrid, smtp)", cfg.EmailProvider)
	}
}

// LogMailer writes emails to the log instead of sending them (development)
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, to, subject, body string) error {
	slog.Info("email sent (dev mode)", "to", to, "subject", subject, "body", body)
	return nil
}

type ResendMailer struct {
	client *resend.Client
	from   string
}

func NewResendMailer(apiKey, from string) *ResendMailer {
	return &ResendMailer{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

func (m *ResendMailer) Send(ctx context.Context, to, subject, body string) error {
	params := &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{to},
		Subject: subject,
		Text:    body,
	}

	_, err := m.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	return nil
}

type SendGridMailer struct {
	client   *sendgrid.Client
	from     string
	fromName string
}

func NewSendGridMailer(apiKey, from, fromName string) *SendGridMailer {
	return &SendGridMailer{
		client:   sendgrid.NewSendClient(apiKey),
		from:     from,
		fromName: fromName,
	}
}

func (m *SendGridMailer) Send(ctx context.Context, to, subject, body string) error {
	message := mail.NewSingleEmail(
		mail.NewEmail(m.fromName, m.from),
		subject,
		mail.NewEmail("", to),
		body,
		"",
	)

	response, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if response.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: unexpected status %d: %s", response.StatusCode, response.Body)
	}
	return nil
}

// SMTPMailer sends through an SMTP relay using STARTTLS and PLAIN auth
type SMTPMailer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	addr := net.JoinHostPort(m.Host, strconv.Itoa(m.Port))

	ctx, cancel := context.WithTimeout(ctx, m.Timeout)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, m.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		err = client.StartTLS(&tls.Config{ServerName: m.Host, MinVersion: tls.VersionTLS12})
		if err != nil {
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}

	err = client.Auth(smtp.PlainAuth("", m.Username, m.Password, m.Host))
	if err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}

	err = client.Mail(m.From)
	if err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	err = client.Rcpt(to)
	if err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	_, err = w.Write(buildMessage(m.From, to, subject, body))
	if err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	err = w.Close()
	if err != nil {
		return fmt.Errorf("smtp data close: %w", err)
	}

	return client.Quit()
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}

// EmailService renders and sends the application's emails
type EmailService struct {
	mailer  Mailer
	appName string
}

func NewEmailService(mailer Mailer, appName string) *EmailService {
	return &EmailService{
		mailer:  mailer,
		appName: appName,
	}
}

func (s *EmailService) SendOTPEmail(ctx context.Context, email, code string, expiry time.Duration) error {
	subject, body := otpEmailTemplate(code, expiry, s.appName)

	err := s.mailer.Send(ctx, email, subject, body)
	if err != nil {
		return err
	}

	slog.Info("email sent", "type", "otp", "to", email)
	return nil
}

func (s *EmailService) SendUpgradeEmail(ctx context.Context, email string) error {
	subject, body := upgradeEmailTemplate(s.appName)

	err := s.mailer.Send(ctx, email, subject, body)
	if err != nil {
		return err
	}

	slog.Info("email sent", "type", "upgrade", "to", email)
	return nil
}
