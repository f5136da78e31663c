package ratelimit

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestLimiter(t *testing.T, limit int) *Limiter {
	t.Helper()
	l, err := NewLimiter(filepath.Join(t.TempDir(), "rate_limits.json"), limit)
	if err != nil {
		t.Fatalf("NewLimiter failed: %v", err)
	}
	return l
}

func TestLimiterAllowsUpToLimit(t *testing.T) {
	l := newTestLimiter(t, 3)

	for i := 0; i < 3; i++ {
		if !l.Allow("user-1", "playerfact") {
			t.Fatalf("Use %d should be allowed", i+1)
		}
	}
	if l.Allow("user-1", "playerfact") {
		t.Error("Fourth use should be denied")
	}
	if got := l.Remaining("user-1", "playerfact"); got != 0 {
		t.Errorf("Expected 0 remaining, got %d", got)
	}

	// Other users and other commands have their own quotas
	if !l.Allow("user-2", "playerfact") {
		t.Error("Different user should have a fresh quota")
	}
	if !l.Allow("user-1", "fact") {
		t.Error("Different command should have a fresh quota")
	}
}

func TestLimiterRemaining(t *testing.T) {
	l := newTestLimiter(t, 3)

	if got := l.Remaining("user-1", "playerfact"); got != 3 {
		t.Errorf("Fresh user should have 3 remaining, got %d", got)
	}
	l.Allow("user-1", "playerfact")
	if got := l.Remaining("user-1", "playerfact"); got != 2 {
		t.Errorf("Expected 2 remaining, got %d", got)
	}
}

func TestLimiterResetsNextDay(t *testing.T) {
	l := newTestLimiter(t, 3)

	day := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return day }

	for i := 0; i < 3; i++ {
		l.Allow("user-1", "playerfact")
	}
	if l.Allow("user-1", "playerfact") {
		t.Fatal("Quota should be exhausted")
	}

	l.now = func() time.Time { return day.AddDate(0, 0, 1) }
	if !l.Allow("user-1", "playerfact") {
		t.Error("Quota should reset on the next day")
	}
}

func TestLimiterPrunesOldEntries(t *testing.T) {
	l := newTestLimiter(t, 3)

	day := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return day }
	l.Allow("user-1", "playerfact")

	// Eight days later the old counter is gone entirely
	l.now = func() time.Time { return day.AddDate(0, 0, 8) }
	l.Allow("user-2", "playerfact")

	l.mu.Lock()
	_, exists := l.counts["user-1_playerfact"]
	l.mu.Unlock()
	if exists {
		t.Error("Entries older than the retention window should be pruned")
	}
}

func TestLimiterPersistsAcrossRestarts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rate_limits.json")

	l, err := NewLimiter(path, 3)
	if err != nil {
		t.Fatalf("NewLimiter failed: %v", err)
	}
	l.Allow("user-1", "playerfact")
	l.Allow("user-1", "playerfact")

	reloaded, err := NewLimiter(path, 3)
	if err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if got := reloaded.Remaining("user-1", "playerfact"); got != 1 {
		t.Errorf("Expected 1 remaining after reload, got %d", got)
	}
}
