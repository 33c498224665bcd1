package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

type EmailService struct {
	client    *resend.Client
	fromEmail string
	isDev     bool
	appURL    string
	appName   string
}

func NewEmailService(apiKey, fromEmail, appURL, appName string, isDev bool) *EmailService {
	var client *resend.Client
	if apiKey != "" && !isDev {
		client = resend.NewClient(apiKey)
	}

	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		isDev:     isDev,
		appURL:    appURL,
		appName:   appName,
	}
}

// SendUnlockEmail delivers the single-use unlock link for a fresh purchase.
func (s *EmailService) SendUnlockEmail(email, token, listTitle string) error {
	unlockURL := fmt.Sprintf("%s/unlock/%s", s.appURL, token)
	subject, body := unlockEmailTemplate(unlockURL, listTitle, s.appName)

	if s.isDev {
		slog.Info("email sent (dev mode)", "type", "unlock", "to", email, "subject", subject, "url", unlockURL)
		return nil
	}

	if s.client == nil {
		return fmt.Errorf("email service not configured (missing RESEND_API_KEY)")
	}

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{email},
		Subject: subject,
		Text:    body,
	}

	_, err := s.client.Emails.SendWithContext(context.Background(), params)
	if err == nil {
		slog.Info("email sent", "type", "unlock", "to", email)
	}
	return err
}

// SendAccessLinkEmail delivers a time-limited access link to a buyer who
// asked for their purchase to be resent.
func (s *EmailService) SendAccessLinkEmail(email, token, listTitle string) error {
	accessURL := fmt.Sprintf("%s/access/%s", s.appURL, token)
	subject, body := accessLinkEmailTemplate(accessURL, listTitle, s.appName)

	if s.isDev {
		slog.Info("email sent (dev mode)", "type", "access_link", "to", email, "subject", subject, "url", accessURL)
		return nil
	}

	if s.client == nil {
		return fmt.Errorf("email service not configured (missing RESEND_API_KEY)")
	}

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{email},
		Subject: subject,
		Text:    body,
	}

	_, err := s.client.Emails.SendWithContext(context.Background(), params)
	if err == nil {
		slog.Info("email sent", "type", "access_link", "to", email)
	}
	return err
}
