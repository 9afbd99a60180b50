package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/corvidlabs/vidsum/store"
)

func TestCheckAllowsUpToLimitThenRejects(t *testing.T) {
	backend := store.NewMemory(time.Minute)
	defer backend.Close()
	l := New(backend, true, 2, 60)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := l.Check(ctx, ClassPost, "1.2.3.4")
		if err != nil {
			t.Fatalf("check %d: %v", i, err)
		}
		if !res.Allowed {
			t.Fatalf("check %d: expected allowed", i)
		}
	}

	res, err := l.Check(ctx, ClassPost, "1.2.3.4")
	if err != nil {
		t.Fatalf("third check: %v", err)
	}
	if res.Allowed {
		t.Fatal("expected third request within window to be rejected")
	}
	if res.Remaining != 0 {
		t.Errorf("remaining = %d, want 0", res.Remaining)
	}
	if res.ResetAtMs <= 0 {
		t.Error("expected positive reset time")
	}
}

func TestCheckDisabledAlwaysAllows(t *testing.T) {
	backend := store.NewMemory(time.Minute)
	defer backend.Close()
	l := New(backend, false, 1, 1)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		res, err := l.Check(ctx, ClassPost, "1.2.3.4")
		if err != nil {
			t.Fatalf("check %d: %v", i, err)
		}
		if !res.Allowed {
			t.Fatalf("check %d: expected allowed when disabled", i)
		}
		if res.Remaining != res.Limit {
			t.Errorf("remaining = %d, want %d when disabled", res.Remaining, res.Limit)
		}
	}
}

func TestCheckIsolatedByIdentityAndClass(t *testing.T) {
	backend := store.NewMemory(time.Minute)
	defer backend.Close()
	l := New(backend, true, 1, 1)
	ctx := context.Background()

	if res, _ := l.Check(ctx, ClassPost, "a"); !res.Allowed {
		t.Fatal("expected first identity to be allowed")
	}
	if res, _ := l.Check(ctx, ClassPost, "b"); !res.Allowed {
		t.Fatal("expected distinct identity to be allowed independently")
	}
	if res, _ := l.Check(ctx, ClassGet, "a"); !res.Allowed {
		t.Fatal("expected distinct class to be allowed independently")
	}
}
