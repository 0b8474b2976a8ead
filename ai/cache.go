package ai

import (
	"context"
	"slices"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// DefaultEmbedCallTimeout bounds a shared upstream embedding call.
const DefaultEmbedCallTimeout = 30 * time.Second

// CachingEmbedder memoizes single-text embeddings for a TTL. Concurrent misses
// for the same text share one upstream call. The shared call is detached from
// any one caller's cancellation and bounded by its own timeout, so a caller
// that gives up does not fail the others.
type CachingEmbedder struct {
	next        Embedder
	cache       *gocache.Cache
	group       singleflight.Group
	callTimeout time.Duration
}

var _ Embedder = (*CachingEmbedder)(nil)

// CacheOption configures a CachingEmbedder.
type CacheOption func(*CachingEmbedder)

// WithCallTimeout bounds each shared upstream call. Non-positive values keep
// the default.
func WithCallTimeout(d time.Duration) CacheOption {
	return func(c *CachingEmbedder) {
		if d > 0 {
			c.callTimeout = d
		}
	}
}

// NewCachingEmbedder wraps next with a TTL cache.
func NewCachingEmbedder(next Embedder, ttl time.Duration, opts ...CacheOption) *CachingEmbedder {
	c := &CachingEmbedder{
		next:        next,
		cache:       gocache.New(ttl, 2*ttl),
		callTimeout: DefaultEmbedCallTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EmbedText returns the cached vector for text, embedding it on a miss.
// Callers receive a copy and may modify it.
func (c *CachingEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if v, ok := c.cache.Get(text); ok {
		return slices.Clone(v.([]float32)), nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ch := c.group.DoChan(text, func() (any, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.callTimeout)
		defer cancel()
		vec, err := c.next.EmbedText(callCtx, text)
		if err != nil {
			return nil, err
		}
		c.cache.Set(text, vec, gocache.DefaultExpiration)
		return vec, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return slices.Clone(res.Val.([]float32)), nil
	}
}

// EmbedTexts passes batches through uncached.
func (c *CachingEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	return c.next.EmbedTexts(ctx, texts)
}

// Len reports the number of cached embeddings.
func (c *CachingEmbedder) Len() int {
	return c.cache.ItemCount()
}
