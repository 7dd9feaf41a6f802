package resolver

import (
	"context"
	"sync"

	"github.com/goliatone/go-campus-authz/pkg/types"
	"github.com/google/uuid"
)

type requestCacheKey struct{}

type cacheEntry struct {
	actor uuid.UUID
	role  string
}

// requestCache memoizes resolutions for the lifetime of one request context.
type requestCache struct {
	mu      sync.Mutex
	entries map[cacheEntry]types.ResolvedIdentity
}

// WithRequestCache returns a context that memoizes Resolve results. Install it
// once per incoming request; it is discarded with the context.
func WithRequestCache(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Value(requestCacheKey{}).(*requestCache); ok {
		return ctx
	}
	return context.WithValue(ctx, requestCacheKey{}, &requestCache{
		entries: make(map[cacheEntry]types.ResolvedIdentity),
	})
}

func cacheFromContext(ctx context.Context) *requestCache {
	if ctx == nil {
		return nil
	}
	cache, _ := ctx.Value(requestCacheKey{}).(*requestCache)
	return cache
}

func (c *requestCache) get(actor types.ActorRef) (types.ResolvedIdentity, bool) {
	if c == nil {
		return types.ResolvedIdentity{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	identity, ok := c.entries[cacheEntry{actor: actor.ID, role: actor.Role}]
	return identity, ok
}

func (c *requestCache) put(identity types.ResolvedIdentity) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries[cacheEntry{actor: identity.Actor.ID, role: identity.Actor.Role}] = identity
	c.mu.Unlock()
}
