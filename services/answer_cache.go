package services

import (
	"context"
	"errors"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const answerCacheTTL = time.Hour

// AnswerCache short-circuits repeated identical chatbot questions. Entries
// expire after a fixed window and are never invalidated early; it is
// populated on success and graceful-failure answers alike.
type AnswerCache interface {
	Get(ctx context.Context, question string) (string, bool)
	Set(ctx context.Context, question, answer string)
}

// NewAnswerCacheFromEnv returns the redis-backed cache when REDIS_ADDR is
// set, otherwise the in-process cache.
func NewAnswerCacheFromEnv() AnswerCache {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		log.Println("💬 Using redis answer cache")
		return NewRedisAnswerCache(addr, os.Getenv("REDIS_PASSWORD"))
	}
	log.Println("💬 Using in-memory answer cache")
	return NewMemoryAnswerCache()
}

type cachedAnswer struct {
	answer    string
	expiresAt time.Time
}

// MemoryAnswerCache is the process-local backend; a restart clears it.
type MemoryAnswerCache struct {
	mu      sync.Mutex
	entries map[string]cachedAnswer
	now     func() time.Time
}

// NewMemoryAnswerCache creates an empty in-process cache.
func NewMemoryAnswerCache() *MemoryAnswerCache {
	return &MemoryAnswerCache{
		entries: make(map[string]cachedAnswer),
		now:     time.Now,
	}
}

func (c *MemoryAnswerCache) Get(ctx context.Context, question string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := normalizeQuestion(question)
	entry, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if c.now().After(entry.expiresAt) {
		delete(c.entries, key)
		return "", false
	}
	return entry.answer, true
}

func (c *MemoryAnswerCache) Set(ctx context.Context, question, answer string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[normalizeQuestion(question)] = cachedAnswer{
		answer:    answer,
		expiresAt: c.now().Add(answerCacheTTL),
	}
}

// RedisAnswerCache shares the cache across replicas with a native TTL.
type RedisAnswerCache struct {
	client *redis.Client
}

// NewRedisAnswerCache connects to the configured redis instance.
func NewRedisAnswerCache(addr, password string) *RedisAnswerCache {
	return &RedisAnswerCache{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
	}
}

func (c *RedisAnswerCache) Get(ctx context.Context, question string) (string, bool) {
	answer, err := c.client.Get(ctx, answerKey(question)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false
	}
	if err != nil {
		log.Printf("Warning: answer cache read failed: %v", err)
		return "", false
	}
	return answer, true
}

func (c *RedisAnswerCache) Set(ctx context.Context, question, answer string) {
	if err := c.client.Set(ctx, answerKey(question), answer, answerCacheTTL).Err(); err != nil {
		log.Printf("Warning: answer cache write failed: %v", err)
	}
}

func answerKey(question string) string {
	return "craftsite:chat:answer:" + normalizeQuestion(question)
}

// normalizeQuestion collapses whitespace and case so trivially different
// phrasings of the same question share a cache entry.
func normalizeQuestion(question string) string {
	return strings.Join(strings.Fields(strings.ToLower(question)), " ")
}
