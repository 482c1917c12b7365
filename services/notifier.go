package services

import (
	"context"
	"log"

	"github.com/craftsite-simple/config"
)

// NotifyResult reports whether a notification reached the destination.
// Delivery is best-effort: callers inspect the result, they never get an
// error to propagate.
type NotifyResult struct {
	Delivered bool   `json:"delivered"`
	Error     string `json:"error,omitempty"`
}

// NotificationRelay delivers short out-of-band messages to site owners.
type NotificationRelay interface {
	Notify(ctx context.Context, destination, message string) NotifyResult
}

// NewNotificationRelayFromEnv selects the relay backend by configuration.
// Defaults to the persistent gateway session; NOTIFIER_BACKEND=messaging-api
// switches to the stateless HTTP backend.
func NewNotificationRelayFromEnv() NotificationRelay {
	backend := config.GetEnv("NOTIFIER_BACKEND", "gateway")
	switch backend {
	case "messaging-api":
		log.Println("📨 Using messaging-api notification relay")
		return NewMessagingAPIRelay()
	default:
		log.Println("📨 Using gateway notification relay")
		return NewGatewayRelay()
	}
}
