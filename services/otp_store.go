package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/craftsite-simple/utils"
	"github.com/redis/go-redis/v9"
)

const (
	// OTPPurposeSignup gates account creation.
	OTPPurposeSignup = "signup"
	// OTPPurposePasswordReset gates password changes.
	OTPPurposePasswordReset = "password-reset"

	otpTTL = 5 * time.Minute
)

// OTPStore keeps short-lived one-time codes keyed by email and purpose.
// Codes are single-use: a successful verify consumes them.
type OTPStore interface {
	Save(ctx context.Context, email, purpose, code string) error
	Verify(ctx context.Context, email, purpose, code string) error
}

// NewOTPStoreFromEnv returns the redis-backed store when REDIS_ADDR is set,
// otherwise the in-process store. Codes in the in-process store do not
// survive a restart, which is acceptable for their 5-minute lifetime.
func NewOTPStoreFromEnv() OTPStore {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		log.Println("🔑 Using redis OTP store")
		return NewRedisOTPStore(addr, os.Getenv("REDIS_PASSWORD"))
	}
	log.Println("🔑 Using in-memory OTP store")
	return NewMemoryOTPStore()
}

type otpEntry struct {
	code      string
	expiresAt time.Time
}

// MemoryOTPStore is the process-local backend.
type MemoryOTPStore struct {
	mu      sync.Mutex
	entries map[string]otpEntry
	now     func() time.Time
}

// NewMemoryOTPStore creates an empty in-process store.
func NewMemoryOTPStore() *MemoryOTPStore {
	return &MemoryOTPStore{
		entries: make(map[string]otpEntry),
		now:     time.Now,
	}
}

func (s *MemoryOTPStore) Save(ctx context.Context, email, purpose, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[otpKey(email, purpose)] = otpEntry{
		code:      code,
		expiresAt: s.now().Add(otpTTL),
	}
	return nil
}

func (s *MemoryOTPStore) Verify(ctx context.Context, email, purpose, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := otpKey(email, purpose)
	entry, ok := s.entries[key]
	if !ok {
		return utils.NewError(utils.ErrAuth, "invalid verification code")
	}
	if s.now().After(entry.expiresAt) {
		delete(s.entries, key)
		return utils.NewError(utils.ErrAuth, "verification code expired")
	}
	if entry.code != code {
		return utils.NewError(utils.ErrAuth, "invalid verification code")
	}
	delete(s.entries, key)
	return nil
}

// RedisOTPStore keeps codes in redis with a native TTL so they survive a
// process restart and are shared across replicas.
type RedisOTPStore struct {
	client *redis.Client
}

// NewRedisOTPStore connects to the configured redis instance.
func NewRedisOTPStore(addr, password string) *RedisOTPStore {
	return &RedisOTPStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
	}
}

func (s *RedisOTPStore) Save(ctx context.Context, email, purpose, code string) error {
	return s.client.Set(ctx, otpKey(email, purpose), code, otpTTL).Err()
}

func (s *RedisOTPStore) Verify(ctx context.Context, email, purpose, code string) error {
	key := otpKey(email, purpose)
	stored, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return utils.NewError(utils.ErrAuth, "invalid verification code")
	}
	if err != nil {
		return utils.WrapError(utils.ErrInternal, "failed to read verification code", err)
	}
	if stored != code {
		return utils.NewError(utils.ErrAuth, "invalid verification code")
	}
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return utils.WrapError(utils.ErrInternal, "failed to consume verification code", err)
	}
	return nil
}

func otpKey(email, purpose string) string {
	return fmt.Sprintf("craftsite:auth:otp:%s:%s", purpose, strings.ToLower(strings.TrimSpace(email)))
}
