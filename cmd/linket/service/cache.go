package service

import (
	"context"
	"fmt"

	rediscommon "github.com/linkethq/linket/common/redis"
)

// RedirectCachePurger purges cached redirect resolutions from Redis.
// Downstream edges cache the /l/{token} resolution under redirect:{token};
// target changes must drop the key so the next scan sees the new target.
type RedirectCachePurger struct {
	redis *rediscommon.Client
}

// NewRedirectCachePurger creates a purger backed by Redis
func NewRedirectCachePurger(redis *rediscommon.Client) *RedirectCachePurger {
	return &RedirectCachePurger{redis: redis}
}

// Purge drops the cached resolution for a public token
func (p *RedirectCachePurger) Purge(ctx context.Context, token string) error {
	return p.redis.Delete(ctx, fmt.Sprintf("redirect:%s", token))
}
