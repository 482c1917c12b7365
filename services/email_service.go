package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/craftsite-simple/config"
	"github.com/craftsite-simple/utils"
)

const (
	emailSendAttempts = 3
	emailRetryBackoff = 2 * time.Second
)

// EmailService sends transactional mail through an external delivery API.
// Sends are retried a fixed number of times with a linearly growing delay.
type EmailService struct {
	baseURL    string
	apiKey     string
	sender     string
	httpClient *http.Client
}

// NewEmailService creates a client against the configured email API.
func NewEmailService() *EmailService {
	return &EmailService{
		baseURL:    config.GetEnv("EMAIL_API_URL", "https://api.email.example.com"),
		apiKey:     os.Getenv("EMAIL_API_KEY"),
		sender:     config.GetEnv("EMAIL_SENDER", "no-reply@craftsite.app"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type emailSendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// SendOTP mails a one-time passcode to the recipient.
func (s *EmailService) SendOTP(ctx context.Context, to, code string) error {
	subject := "Your verification code"
	body := fmt.Sprintf("Your verification code is %s. It expires in 5 minutes.", code)
	return s.Send(ctx, to, subject, body)
}

// Send delivers a single message, retrying transient failures.
func (s *EmailService) Send(ctx context.Context, to, subject, body string) error {
	if s.apiKey == "" {
		return utils.NewError(utils.ErrConfiguration, "EMAIL_API_KEY is not set in environment variables")
	}

	payload, _ := json.Marshal(emailSendRequest{
		From:    s.sender,
		To:      to,
		Subject: subject,
		Body:    body,
	})

	var lastErr error
	for attempt := 1; attempt <= emailSendAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return utils.WrapError(utils.ErrTimeout, "email send cancelled", ctx.Err())
			case <-time.After(time.Duration(attempt-1) * emailRetryBackoff):
			}
		}

		lastErr = s.trySend(ctx, payload)
		if lastErr == nil {
			log.Printf("✅ Email sent to: %s", to)
			return nil
		}
		log.Printf("❌ Email send attempt %d/%d failed: %v", attempt, emailSendAttempts, lastErr)
	}

	return utils.WrapError(utils.ErrInternal, "failed to send email", lastErr)
}

func (s *EmailService) trySend(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/send", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("email service responded with status %d", resp.StatusCode)
	}
	return nil
}
