package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/craftsite-simple/config"
	"github.com/craftsite-simple/utils"
	"github.com/gorilla/websocket"
)

type gatewayState int

const (
	gatewayConnecting gatewayState = iota
	gatewayReady
	gatewayDisconnected
)

const (
	gatewayDialRetry = 5 * time.Second
	gatewayReadyWait = 10 * time.Second
)

type gatewayMessage struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

// GatewayRelay holds a persistent websocket session to a messaging gateway.
// The session moves through Connecting, Ready and Disconnected; sends block
// until the session is ready, up to a bounded wait.
type GatewayRelay struct {
	url string

	mu    sync.Mutex
	conn  *websocket.Conn
	state gatewayState
	ready chan struct{}
}

// NewGatewayRelay creates the relay and starts its session loop.
func NewGatewayRelay() *GatewayRelay {
	r := &GatewayRelay{
		url:   config.GetEnv("NOTIFY_GATEWAY_URL", "ws://localhost:8089/session"),
		state: gatewayConnecting,
		ready: make(chan struct{}),
	}
	go r.sessionLoop()
	return r
}

// sessionLoop keeps dialing the gateway and holds the connection open. On
// disconnect the relay flips back to Connecting and redials.
func (r *GatewayRelay) sessionLoop() {
	for {
		conn, _, err := websocket.DefaultDialer.Dial(r.url, nil)
		if err != nil {
			log.Printf("❌ Notification gateway dial failed: %v", err)
			time.Sleep(gatewayDialRetry)
			continue
		}

		log.Println("✅ Notification gateway session ready")
		r.mu.Lock()
		r.conn = conn
		r.state = gatewayReady
		close(r.ready)
		r.mu.Unlock()

		// Block reading until the gateway drops us; inbound frames are
		// only acks and pings.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}

		log.Println("❌ Notification gateway disconnected")
		r.mu.Lock()
		r.conn = nil
		r.state = gatewayConnecting
		r.ready = make(chan struct{})
		r.mu.Unlock()
		conn.Close()
	}
}

// Notify sends a message through the gateway session. It never returns an
// error; failures are reported in the result.
func (r *GatewayRelay) Notify(ctx context.Context, destination, message string) NotifyResult {
	if destination == "" {
		return NotifyResult{Delivered: false, Error: "no destination configured"}
	}

	r.mu.Lock()
	ready := r.ready
	state := r.state
	r.mu.Unlock()

	if state != gatewayReady {
		select {
		case <-ready:
		case <-time.After(gatewayReadyWait):
			return NotifyResult{Delivered: false, Error: "gateway session not ready"}
		case <-ctx.Done():
			return NotifyResult{Delivered: false, Error: "cancelled waiting for gateway session"}
		}
	}

	// Country code digits only, then the chat-user suffix.
	to := utils.NormalizePhoneNumber(destination) + "@c.us"

	r.mu.Lock()
	conn := r.conn
	var err error
	if conn == nil {
		err = fmt.Errorf("gateway session lost")
	} else {
		err = conn.WriteJSON(gatewayMessage{To: to, Body: message})
	}
	r.mu.Unlock()

	if err != nil {
		log.Printf("❌ Failed to send notification to %s: %v", to, err)
		return NotifyResult{Delivered: false, Error: err.Error()}
	}

	log.Printf("✅ Notification sent to: %s", to)
	return NotifyResult{Delivered: true}
}
