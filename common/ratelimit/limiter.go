package ratelimit

import (
	"context"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

//go:embed rate_limit.lua
var rateLimitScript string

// Logger interface for logging
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
}

// Result contains the result of a rate limit check
type Result struct {
	Allowed           bool  // Whether the request is allowed
	CurrentCount      int64 // Current count in the window
	Limit             int64 // The limit that was checked
	RetryAfterSeconds int64 // Seconds until the window frees a slot (0 if allowed)
}

// Limiter provides sliding-window rate limiting using Redis + Lua.
// The window is a ZSET of request timestamps so a burst at a window edge
// cannot double the effective limit.
type Limiter struct {
	redis  *redis.Client
	script *redis.Script
	logger Logger
}

// NewLimiter creates a new rate limiter with embedded Lua script
func NewLimiter(redisClient *redis.Client, logger Logger) *Limiter {
	return &Limiter{
		redis:  redisClient,
		script: redis.NewScript(rateLimitScript),
		logger: logger,
	}
}

// HashClientID derives a stable, non-reversible rate-limit key from a client
// identifier (usually the remote IP).
func HashClientID(clientID string) string {
	sum := sha256.Sum256([]byte(clientID))
	return hex.EncodeToString(sum[:16])
}

// CheckClaim checks the claim-attempt limit for a client
func (r *Limiter) CheckClaim(ctx context.Context, clientHash string, limit int64, windowSec int) (*Result, error) {
	key := fmt.Sprintf("rate_limit:claim:%s", clientHash)
	return r.check(ctx, key, limit, windowSec)
}


// check executes the sliding-window Lua script
func (r *Limiter) check(ctx context.Context, key string, limit int64, windowSec int) (*Result, error) {
	now := time.Now().UnixMilli()
	member := uuid.NewString()

	result, err := r.script.Run(ctx, r.redis, []string{key}, limit, windowSec, now, member).Result()
	if err != nil {
		r.logger.Error("rate limit check failed", "key", key, "error", err)
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}

	// Parse result array: {allowed, current_count, limit, retry_after}
	resultArray, ok := result.([]interface{})
	if !ok || len(resultArray) != 4 {
		return nil, fmt.Errorf("unexpected script result format")
	}

	allowed := resultArray[0].(int64) == 1
	currentCount := resultArray[1].(int64)
	returnedLimit := resultArray[2].(int64)
	retryAfter := resultArray[3].(int64)

	res := &Result{
		Allowed:           allowed,
		CurrentCount:      currentCount,
		Limit:             returnedLimit,
		RetryAfterSeconds: retryAfter,
	}

	if !allowed {
		r.logger.Warn("rate limit exceeded",
			"key", key,
			"current", currentCount,
			"limit", limit,
			"retry_after", retryAfter)
	} else {
		r.logger.Debug("rate limit check passed",
			"key", key,
			"current", currentCount,
			"limit", limit)
	}

	return res, nil
}

// Reset clears a rate limit counter (for testing/admin)
func (r *Limiter) Reset(ctx context.Context, key string) error {
	return r.redis.Del(ctx, key).Err()
}
