package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"cfbfeed/internal/atomicfile"
	"cfbfeed/internal/models"
)

// FileStore keeps one JSON document per (season, datatype), mapping week to payload.
// Documents are replaced whole via tmp file and rename so a crash never leaves a partial write.
type FileStore struct {
	basePath string
	mu       sync.Mutex
}

// NewFileStore constructs a file-backed store rooted at basePath
func NewFileStore(basePath string) *FileStore {
	return &FileStore{basePath: basePath}
}

// DocumentPath returns {basePath}/{season}/{datatype}.json
func (s *FileStore) DocumentPath(season int, dt models.Datatype) string {
	return filepath.Join(s.basePath, strconv.Itoa(season), fmt.Sprintf("%s.json", dt))
}

// Get reads a single week from its document
func (s *FileStore) Get(_ context.Context, key models.SnapshotKey) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readDocument(key)
	if err != nil {
		return nil, false, err
	}

	data, ok := doc[strconv.Itoa(key.Week)]
	if !ok {
		return nil, false, nil
	}
	return data, true, nil
}

// Put adds a week to its document and atomically replaces the file
func (s *FileStore) Put(_ context.Context, key models.SnapshotKey, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("snapshot %s is not valid JSON", key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readDocument(key)
	if err != nil {
		return err
	}

	week := strconv.Itoa(key.Week)
	if _, ok := doc[week]; ok {
		return fmt.Errorf("%w: %s", ErrKeyExists, key)
	}
	doc[week] = json.RawMessage(data)

	encoded, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot document: %w", err)
	}

	return atomicfile.Write(s.DocumentPath(key.Season, key.Datatype), encoded)
}

func (s *FileStore) readDocument(key models.SnapshotKey) (map[string]json.RawMessage, error) {
	path := s.DocumentPath(key.Season, key.Datatype)

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]json.RawMessage), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot document: %w", err)
	}

	doc := make(map[string]json.RawMessage)
	if len(raw) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot document %s: %w", path, err)
	}
	return doc, nil
}
