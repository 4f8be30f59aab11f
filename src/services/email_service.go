package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"github.com/mailgun/mailgun-go/v4"

	"github.com/username/vendasbanco/src/config"
	"github.com/username/vendasbanco/src/logger"
)

func NewEmailService() EmailService {
	if config.Cfg == nil {
		slog.Error("Configuration (config.Cfg) is nil. Email service will default to mock.")
		return &MockEmailService{}
	}

	provider := strings.ToLower(config.Cfg.EmailServiceProvider)
	logger.L.Info("Initializing email service", "provider", provider)

	switch provider {
	case "mailgun":
		if config.Cfg.MailgunDomain == "" || config.Cfg.MailgunPrivateAPIKey == "" || config.Cfg.AlertRecipient == "" {
			logger.L.Warn("Mailgun configuration incomplete (Domain, API Key, or AlertRecipient missing). Falling back to MockEmailService.")
			return &MockEmailService{}
		}
		mg := mailgun.NewMailgun(config.Cfg.MailgunDomain, config.Cfg.MailgunPrivateAPIKey)
		logger.L.Info("Mailgun client initialized", "domain", config.Cfg.MailgunDomain)
		return &MailgunEmailService{
			mg:             mg,
			senderEmail:    config.Cfg.SenderEmail,
			senderName:     config.Cfg.SenderName,
			alertRecipient: config.Cfg.AlertRecipient,
		}
	case "smtp":
		if config.Cfg.SMTPServer == "" || config.Cfg.SMTPUser == "" || config.Cfg.SMTPPassword == "" || config.Cfg.AlertRecipient == "" {
			logger.L.Warn("SMTP configuration incomplete. Falling back to MockEmailService.")
			return &MockEmailService{}
		}
		return &SMTPEmailService{
			SMTPServer:     config.Cfg.SMTPServer,
			SMTPPort:       config.Cfg.SMTPPort,
			SMTPUser:       config.Cfg.SMTPUser,
			SMTPPassword:   config.Cfg.SMTPPassword,
			SenderEmail:    config.Cfg.SenderEmail,
			AlertRecipient: config.Cfg.AlertRecipient,
		}
	default:
		logger.L.Info("Defaulting to MockEmailService.")
		return &MockEmailService{}
	}
}

type SMTPEmailService struct {
	SMTPServer     string
	SMTPPort       int
	SMTPUser       string
	SMTPPassword   string
	SenderEmail    string
	AlertRecipient string
}

func (s *SMTPEmailService) SendSyncFailureAlert(runID, reason string) error {
	from := s.SenderEmail
	to := []string{s.AlertRecipient}
	subject := fmt.Sprintf("Sales sync failed (run %s)", runID)
	body := fmt.Sprintf("Sales synchronization run %s failed:\r\n\r\n%s\r\n", runID, reason)

	header := make(map[string]string)
	header["From"] = from
	header["To"] = s.AlertRecipient
	header["Subject"] = subject
	header["MIME-version"] = "1.0"
	header["Content-Type"] = "text/plain; charset=\"UTF-8\""
	message := ""
	for k, v := range header {
		message += fmt.Sprintf("%s: %s\r\n", k, v)
	}
	message += "\r\n" + body
	auth := smtp.PlainAuth("", s.SMTPUser, s.SMTPPassword, s.SMTPServer)
	addr := fmt.Sprintf("%s:%d", s.SMTPServer, s.SMTPPort)
	if err := smtp.SendMail(addr, auth, from, to, []byte(message)); err != nil {
		logger.L.Error("Failed to send sync failure alert via SMTP", "error", err, "to", s.AlertRecipient)
		return fmt.Errorf("failed to send sync failure alert via SMTP: %w", err)
	}
	logger.L.Info("Sync failure alert sent via SMTP", "runID", runID, "to", s.AlertRecipient)
	return nil
}

type MailgunEmailService struct {
	mg             *mailgun.MailgunImpl
	senderEmail    string
	senderName     string
	alertRecipient string
}

func (s *MailgunEmailService) SendSyncFailureAlert(runID, reason string) error {
	sender := fmt.Sprintf("%s <%s>", s.senderName, s.senderEmail)
	subject := fmt.Sprintf("Sales sync failed (run %s)", runID)
	body := fmt.Sprintf("Sales synchronization run %s failed:\n\n%s\n", runID, reason)

	message := s.mg.NewMessage(sender, subject, body, s.alertRecipient)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	_, id, err := s.mg.Send(ctx, message)
	if err != nil {
		logger.L.Error("Failed to send sync failure alert via Mailgun", "error", err, "to", s.alertRecipient)
		return fmt.Errorf("failed to send sync failure alert via Mailgun: %w", err)
	}
	logger.L.Info("Sync failure alert sent via Mailgun", "runID", runID, "messageID", id, "to", s.alertRecipient)
	return nil
}

// MockEmailService logs alerts instead of sending them. Used when no email
// provider is configured.
type MockEmailService struct{}

func (s *MockEmailService) SendSyncFailureAlert(runID, reason string) error {
	logger.L.Info("MOCK EMAIL: sync failure alert", "runID", runID, "reason", reason)
	return nil
}
