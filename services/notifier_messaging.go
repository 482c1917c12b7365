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

// MessagingAPIRelay delivers notifications through a stateless transactional
// messaging HTTP API.
type MessagingAPIRelay struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewMessagingAPIRelay creates a relay against the configured messaging API.
func NewMessagingAPIRelay() *MessagingAPIRelay {
	return &MessagingAPIRelay{
		baseURL:    config.GetEnv("MESSAGING_API_URL", "https://api.messaging.example.com"),
		apiKey:     os.Getenv("MESSAGING_API_KEY"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type messagingSendRequest struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

// Notify posts the message to the messaging API. It never returns an error;
// failures are reported in the result.
func (r *MessagingAPIRelay) Notify(ctx context.Context, destination, message string) NotifyResult {
	if destination == "" {
		return NotifyResult{Delivered: false, Error: "no destination configured"}
	}
	if r.apiKey == "" {
		return NotifyResult{Delivered: false, Error: "MESSAGING_API_KEY is not set in environment variables"}
	}

	to := "whatsapp:" + utils.NormalizePhoneNumber(destination)

	body, _ := json.Marshal(messagingSendRequest{To: to, Body: message})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return NotifyResult{Delivered: false, Error: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		log.Printf("❌ Failed to send notification to %s: %v", to, err)
		return NotifyResult{Delivered: false, Error: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := fmt.Sprintf("messaging service rejected send (status %d)", resp.StatusCode)
		log.Printf("❌ Failed to send notification to %s: %s", to, msg)
		return NotifyResult{Delivered: false, Error: msg}
	}

	log.Printf("✅ Notification sent to: %s", to)
	return NotifyResult{Delivered: true}
}
