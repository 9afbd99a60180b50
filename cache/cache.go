// Package cache fronts the KV store with a fingerprinted result cache,
// keyed on a deterministic hash of (normalized url, canonical options).
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/corvidlabs/vidsum/store"
)

// Options is the subset of job input that participates in the cache key.
type Options struct {
	Length         string
	Format         string
	TranscriptMode string
}

// Result mirrors job.Result without importing the job package, avoiding a
// cache<->job import cycle; job.Result is convertible field-for-field.
type Result struct {
	Summary    string   `json:"summary"`
	KeyPoints  []string `json:"keyPoints"`
	Confidence int      `json:"confidence"`
	ModelID    string   `json:"modelId"`
}

// Meta mirrors the optional job metadata surfaced alongside a result.
type Meta struct {
	TranscriptLang string   `json:"transcriptLang,omitempty"`
	AvailableLangs []string `json:"availableLangs,omitempty"`
}

// Entry is the CacheEntry of spec.md §3.
type Entry struct {
	Result    Result    `json:"result"`
	Meta      Meta      `json:"meta"`
	CreatedAt time.Time `json:"createdAt"`
}

// Cache wraps a store.Store with the cache:{fingerprint} namespace and
// configured TTL. Grounded on spec.md §4.C; only completed results are
// ever stored (enforced by the caller — job.Driver only calls Store after
// a job reaches completed, per invariant 5).
type Cache struct {
	backend store.Store
	ttl     time.Duration
}

func New(backend store.Store, ttl time.Duration) *Cache {
	return &Cache{backend: backend, ttl: ttl}
}

// Fingerprint computes the deterministic cache key for (url, options).
// Canonicalization sorts keys and always emits defaults explicitly so
// clients that omit defaults still hit the cache (spec.md §9).
func Fingerprint(rawURL string, opts Options) string {
	h := sha256.New()
	h.Write([]byte(normalizeURL(rawURL)))
	h.Write([]byte(":"))
	h.Write([]byte(canonicalizeOptions(opts)))
	return hex.EncodeToString(h.Sum(nil))
}

func normalizeURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(raw))
	}
	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)
	parsed.Fragment = ""
	return parsed.String()
}

func canonicalizeOptions(opts Options) string {
	if opts.Length == "" {
		opts.Length = "standard"
	}
	if opts.Format == "" {
		opts.Format = "paragraph"
	}
	if opts.TranscriptMode == "" {
		opts.TranscriptMode = "auto"
	}

	pairs := []string{
		"format=" + opts.Format,
		"length=" + opts.Length,
		"transcriptMode=" + opts.TranscriptMode,
	}
	sort.Strings(pairs)
	return strings.Join(pairs, "&")
}

// Lookup returns the cached entry for (url, opts), if any.
func (c *Cache) Lookup(ctx context.Context, rawURL string, opts Options) (Entry, bool, error) {
	var entry Entry
	ok, err := c.backend.Get(ctx, store.CacheKey(Fingerprint(rawURL, opts)), &entry)
	if err != nil || !ok {
		return Entry{}, false, err
	}
	return entry, true, nil
}

// Store persists a completed result under the (url, opts) fingerprint.
func (c *Cache) Store(ctx context.Context, rawURL string, opts Options, entry Entry) error {
	return c.backend.Put(ctx, store.CacheKey(Fingerprint(rawURL, opts)), entry, c.ttl)
}

// Invalidate removes any cached entry for (url, opts).
func (c *Cache) Invalidate(ctx context.Context, rawURL string, opts Options) error {
	return c.backend.Delete(ctx, store.CacheKey(Fingerprint(rawURL, opts)))
}
