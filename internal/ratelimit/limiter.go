package ratelimit

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"ninjserv/pkg/logger"
)

const (
	// DefaultDailyLimit is the per-user per-command allowance.
	DefaultDailyLimit = 3

	retentionDays = 7
	dateLayout    = "2006-01-02"
)

// Limiter enforces a per-user, per-command daily quota. Counters are keyed
// by "<userID>_<command>" and day, kept in a JSON file so they survive
// restarts, and pruned after seven days.
type Limiter struct {
	path  string
	limit int

	mu sync.Mutex
	// counts maps user key -> date -> uses that day
	counts map[string]map[string]int

	now    func() time.Time
	logger *zap.Logger
}

// NewLimiter loads limiter state from path, tolerating a missing file.
func NewLimiter(path string, limit int) (*Limiter, error) {
	if limit <= 0 {
		limit = DefaultDailyLimit
	}

	l := &Limiter{
		path:   path,
		limit:  limit,
		counts: make(map[string]map[string]int),
		now:    time.Now,
		logger: logger.Get(),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, fmt.Errorf("failed to read rate limit file: %w", err)
	}
	if err := json.Unmarshal(data, &l.counts); err != nil {
		return nil, fmt.Errorf("failed to parse rate limit file: %w", err)
	}

	l.logger.Info("Loaded rate limits",
		zap.String("path", path),
		zap.Int("users", len(l.counts)),
	)
	return l, nil
}

// Allow consumes one use for the user and command if the daily quota has
// room. It returns false without consuming when the quota is exhausted.
func (l *Limiter) Allow(userID, command string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	today := l.now().Format(dateLayout)
	key := userID + "_" + command

	l.pruneLocked()

	if l.counts[key][today] >= l.limit {
		return false
	}

	if l.counts[key] == nil {
		l.counts[key] = make(map[string]int)
	}
	l.counts[key][today]++
	l.persistLocked()
	return true
}

// Remaining reports how many uses the user has left today for the command.
func (l *Limiter) Remaining(userID, command string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	today := l.now().Format(dateLayout)
	remaining := l.limit - l.counts[userID+"_"+command][today]
	if remaining < 0 {
		return 0
	}
	return remaining
}

// pruneLocked drops counters older than the retention window. Caller holds mu.
func (l *Limiter) pruneLocked() {
	cutoff := l.now().AddDate(0, 0, -retentionDays).Format(dateLayout)
	for key, days := range l.counts {
		for date := range days {
			if date < cutoff {
				delete(days, date)
			}
		}
		if len(days) == 0 {
			delete(l.counts, key)
		}
	}
}

// persistLocked writes the counters through to disk. Failures are logged; an
// unpersisted counter only risks granting extra uses after a restart.
func (l *Limiter) persistLocked() {
	data, err := json.MarshalIndent(l.counts, "", "  ")
	if err != nil {
		l.logger.Error("Failed to marshal rate limits", zap.Error(err))
		return
	}
	if err := os.WriteFile(l.path, data, 0o644); err != nil {
		l.logger.Error("Failed to persist rate limits",
			zap.String("path", l.path),
			zap.Error(err),
		)
	}
}
