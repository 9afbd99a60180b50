// Package ratelimit implements the sliding-window client-facing quota of
// spec.md §4.D on top of the store.Store port, and derives client
// identity from proxy headers the way the teacher's middleware package
// does for request ids.
package ratelimit

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/corvidlabs/vidsum/store"
)

// Class distinguishes the two rate-limited method groups.
type Class string

const (
	ClassPost Class = "post"
	ClassGet  Class = "get"
)

// Result is the outcome of a Check call, echoed to the client as
// X-RateLimit-* headers.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAtMs int64
}

// Limiter implements the sliding-window counter. Grounded on the
// teacher's RateLimiter interface shape (app/middleware/middleware.go),
// generalized from a token-bucket Allow() to an exact per-window count
// because spec.md §8 property 6 requires "the N+1th request in-window is
// rejected", which a refilling token bucket cannot guarantee losslessly.
type Limiter struct {
	backend backend
	enabled bool
	postRPM int
	getRPM  int
	window  time.Duration
}

// backend is the subset of store.Store the limiter uses.
type backend interface {
	Put(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string, out any) (bool, error)
}

func New(s store.Store, enabled bool, postRPM, getRPM int) *Limiter {
	return &Limiter{backend: s, enabled: enabled, postRPM: postRPM, getRPM: getRPM, window: time.Minute}
}

type window struct {
	Timestamps []int64 `json:"timestamps"`
}

// Check applies the sliding-window quota for (class, identity). When the
// limiter is disabled every check is allowed and reports the configured
// limit as remaining, per spec.md §4.D.
func (l *Limiter) Check(ctx context.Context, class Class, identity string) (Result, error) {
	limit := l.limitFor(class)

	if !l.enabled {
		return Result{Allowed: true, Limit: limit, Remaining: limit, ResetAtMs: 0}, nil
	}

	now := time.Now()
	cutoff := now.Add(-l.window).UnixMilli()

	key := store.RateLimitKey(string(class), identity)

	var w window
	_, err := l.backend.Get(ctx, key, &w)
	if err != nil {
		return Result{}, err
	}

	kept := w.Timestamps[:0]
	for _, ts := range w.Timestamps {
		if ts > cutoff {
			kept = append(kept, ts)
		}
	}

	resetAtMs := now.Add(l.window).UnixMilli()
	if len(kept) > 0 {
		resetAtMs = kept[0] + l.window.Milliseconds()
	}

	if len(kept) >= limit {
		return Result{Allowed: false, Limit: limit, Remaining: 0, ResetAtMs: resetAtMs}, nil
	}

	kept = append(kept, now.UnixMilli())
	if err := l.backend.Put(ctx, key, window{Timestamps: kept}, l.window); err != nil {
		return Result{}, err
	}

	return Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - len(kept),
		ResetAtMs: resetAtMs,
	}, nil
}

func (l *Limiter) limitFor(class Class) int {
	if class == ClassPost {
		return l.postRPM
	}
	return l.getRPM
}

// Identity derives a client identity from CF-Connecting-IP, X-Real-IP or
// the first X-Forwarded-For entry, in that order; without any of them it
// uses the connection's remote IP, and "unknown" only when that is empty.
func Identity(c *fiber.Ctx) string {
	if v := c.Get("CF-Connecting-IP"); v != "" {
		return v
	}
	if v := c.Get("X-Real-IP"); v != "" {
		return v
	}
	if v := c.Get("X-Forwarded-For"); v != "" {
		parts := strings.Split(v, ",")
		return strings.TrimSpace(parts[0])
	}
	if ip := c.IP(); ip != "" {
		return ip
	}
	return "unknown"
}
