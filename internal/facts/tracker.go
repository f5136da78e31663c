package facts

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"ninjserv/pkg/logger"
)

// Tracker remembers the canonical hash of every fact ever emitted so the same
// fact is never sent twice. The hash set is loaded once at construction; every
// mutation is written through to the backing file before MarkUsed returns.
type Tracker struct {
	path   string
	mu     sync.Mutex
	hashes map[string]struct{}
	logger *zap.Logger
}

// NewTracker loads the persisted hash set from path. A missing file starts an
// empty set; a corrupt file is an error so history is never silently dropped.
func NewTracker(path string) (*Tracker, error) {
	t := &Tracker{
		path:   path,
		hashes: make(map[string]struct{}),
		logger: logger.Get(),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return nil, fmt.Errorf("failed to read used facts file: %w", err)
	}

	var stored []string
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to parse used facts file: %w", err)
	}
	for _, h := range stored {
		t.hashes[h] = struct{}{}
	}

	t.logger.Info("Fact tracker loaded",
		zap.String("path", path),
		zap.Int("facts", len(stored)),
	)
	return t, nil
}

// Canonicalize lower-cases and trims text, then digests it. Facts differing
// only by case or surrounding whitespace collide to the same hash.
func Canonicalize(text string) string {
	normalized := strings.ToLower(strings.TrimSpace(text))
	return fmt.Sprintf("%x", md5.Sum([]byte(normalized)))
}

// IsUsed reports whether the fact has been emitted before.
func (t *Tracker) IsUsed(text string) bool {
	h := Canonicalize(text)
	t.mu.Lock()
	defer t.mu.Unlock()
	_, used := t.hashes[h]
	return used
}

// MarkUsed records the fact and persists the full set before returning.
// Persistence failure is logged but does not undo the in-memory mark: a
// duplicate fact after a crash is preferable to a tight re-emission loop.
func (t *Tracker) MarkUsed(text string) {
	h := Canonicalize(text)

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, used := t.hashes[h]; used {
		return
	}
	t.hashes[h] = struct{}{}

	if err := t.persistLocked(); err != nil {
		t.logger.Error("Failed to persist used facts",
			zap.String("path", t.path),
			zap.Error(err),
		)
	}
}

// Count returns the number of distinct facts emitted.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.hashes)
}

func (t *Tracker) persistLocked() error {
	stored := make([]string, 0, len(t.hashes))
	for h := range t.hashes {
		stored = append(stored, h)
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return err
	}
	return os.WriteFile(t.path, data, 0o644)
}
