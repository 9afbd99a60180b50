package store

import (
	"context"
	"testing"
	"time"
)

type payload struct {
	Name string `json:"name"`
}

func TestMemoryPutGet(t *testing.T) {
	m := NewMemory(50 * time.Millisecond)
	defer m.Close()
	ctx := context.Background()

	if err := m.Put(ctx, "job:1", payload{Name: "a"}, time.Minute); err != nil {
		t.Fatalf("put: %v", err)
	}

	var got payload
	ok, err := m.Get(ctx, "job:1", &got)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok || got.Name != "a" {
		t.Fatalf("get returned %v, %v", ok, got)
	}
}

func TestMemoryGetMissing(t *testing.T) {
	m := NewMemory(time.Minute)
	defer m.Close()

	var got payload
	ok, err := m.Get(context.Background(), "job:missing", &got)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatal("expected missing key to be absent")
	}
}

func TestMemoryExpiryOnGet(t *testing.T) {
	m := NewMemory(time.Hour)
	defer m.Close()
	ctx := context.Background()

	if err := m.Put(ctx, "job:1", payload{Name: "a"}, time.Millisecond); err != nil {
		t.Fatalf("put: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	var got payload
	ok, err := m.Get(ctx, "job:1", &got)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatal("expected expired key to be absent")
	}
}

func TestMemoryJanitorSweep(t *testing.T) {
	m := NewMemory(10 * time.Millisecond)
	defer m.Close()
	ctx := context.Background()

	if err := m.Put(ctx, "job:1", payload{Name: "a"}, time.Millisecond); err != nil {
		t.Fatalf("put: %v", err)
	}

	time.Sleep(50 * time.Millisecond)

	m.mu.Lock()
	_, exists := m.records["job:1"]
	m.mu.Unlock()

	if exists {
		t.Fatal("expected janitor to sweep expired key")
	}
}

func TestMemoryDelete(t *testing.T) {
	m := NewMemory(time.Minute)
	defer m.Close()
	ctx := context.Background()

	_ = m.Put(ctx, "cache:x", payload{Name: "a"}, time.Minute)
	if err := m.Delete(ctx, "cache:x"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var got payload
	ok, _ := m.Get(ctx, "cache:x", &got)
	if ok {
		t.Fatal("expected key to be gone after delete")
	}
}

func TestMemoryKeysWithPrefix(t *testing.T) {
	m := NewMemory(time.Minute)
	defer m.Close()
	ctx := context.Background()

	_ = m.Put(ctx, "job:1", payload{Name: "a"}, time.Minute)
	_ = m.Put(ctx, "job:2", payload{Name: "b"}, time.Minute)
	_ = m.Put(ctx, "cache:x", payload{Name: "c"}, time.Minute)

	keys, err := m.KeysWithPrefix(ctx, "job:")
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 job keys, got %d: %v", len(keys), keys)
	}
}

func TestNamespacedKeys(t *testing.T) {
	if JobKey("abc") != "job:abc" {
		t.Errorf("JobKey = %q", JobKey("abc"))
	}
	if CacheKey("abc") != "cache:abc" {
		t.Errorf("CacheKey = %q", CacheKey("abc"))
	}
	if RateLimitKey("post", "1.2.3.4") != "ratelimit:post:1.2.3.4" {
		t.Errorf("RateLimitKey = %q", RateLimitKey("post", "1.2.3.4"))
	}
}
