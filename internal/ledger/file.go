package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"cfbfeed/internal/atomicfile"
)

// FileLedger stores posted ids as a sorted JSON array in a single file
type FileLedger struct {
	path string

	mu     sync.Mutex
	ids    map[string]struct{}
	loaded bool
}

// NewFileLedger returns a ledger backed by path. The file is created on first append.
func NewFileLedger(path string) *FileLedger {
	return &FileLedger{path: path}
}

func (l *FileLedger) load() error {
	if l.loaded {
		return nil
	}

	l.ids = make(map[string]struct{})
	raw, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		l.loaded = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read ledger: %w", err)
	}

	if len(raw) > 0 {
		var ids []string
		if err := json.Unmarshal(raw, &ids); err != nil {
			return fmt.Errorf("failed to decode ledger %s: %w", l.path, err)
		}
		for _, id := range ids {
			l.ids[id] = struct{}{}
		}
	}

	l.loaded = true
	return nil
}

// Contains implements Ledger
func (l *FileLedger) Contains(_ context.Context, id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.load(); err != nil {
		return false, err
	}
	_, ok := l.ids[id]
	return ok, nil
}

// Append implements Ledger. The in-memory set only changes once the file is replaced.
func (l *FileLedger) Append(_ context.Context, ids []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.load(); err != nil {
		return err
	}

	next := make(map[string]struct{}, len(l.ids)+len(ids))
	for id := range l.ids {
		next[id] = struct{}{}
	}
	added := 0
	for _, id := range ids {
		if _, ok := next[id]; !ok {
			next[id] = struct{}{}
			added++
		}
	}
	if added == 0 {
		return nil
	}

	sorted := make([]string, 0, len(next))
	for id := range next {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	encoded, err := json.MarshalIndent(sorted, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode ledger: %w", err)
	}
	if err := atomicfile.Write(l.path, encoded); err != nil {
		return err
	}

	l.ids = next
	return nil
}

// Len returns the number of recorded ids
func (l *FileLedger) Len() (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.load(); err != nil {
		return 0, err
	}
	return len(l.ids), nil
}
