// Package queue is the append-only output queue consumed by the publisher.
package queue

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"cfbfeed/internal/atomicfile"
	"cfbfeed/internal/models"

	"github.com/redis/go-redis/v9"
)

// Queue receives surviving drafts in order
type Queue interface {
	Append(ctx context.Context, drafts []models.PostDraft) error
}

// FileQueue stores drafts as JSON Lines. Each append rewrites the file whole.
type FileQueue struct {
	path string
	mu   sync.Mutex
}

// NewFileQueue returns a queue backed by path
func NewFileQueue(path string) *FileQueue {
	return &FileQueue{path: path}
}

// Append implements Queue
func (q *FileQueue) Append(_ context.Context, drafts []models.PostDraft) error {
	if len(drafts) == 0 {
		return nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	existing, err := os.ReadFile(q.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to read queue: %w", err)
	}

	var buf bytes.Buffer
	buf.Write(existing)
	if len(existing) > 0 && existing[len(existing)-1] != '\n' {
		buf.WriteByte('\n')
	}

	enc := json.NewEncoder(&buf)
	for _, d := range drafts {
		if err := enc.Encode(d); err != nil {
			return fmt.Errorf("failed to encode draft %s: %w", d.ID, err)
		}
	}

	return atomicfile.Write(q.path, buf.Bytes())
}

// ReadAll returns every queued draft in order
func (q *FileQueue) ReadAll() ([]models.PostDraft, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	f, err := os.Open(q.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open queue: %w", err)
	}
	defer f.Close()

	var out []models.PostDraft
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var d models.PostDraft
		if err := json.Unmarshal(line, &d); err != nil {
			return nil, fmt.Errorf("failed to decode queued draft: %w", err)
		}
		out = append(out, d)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read queue: %w", err)
	}
	return out, nil
}

// DefaultRedisKey is the list drafts are pushed onto
const DefaultRedisKey = "cfbfeed:drafts"

// RedisQueue pushes drafts onto a Redis list
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue returns a queue writing to the list at key
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisQueue{client: client, key: key}
}

// Append implements Queue. The whole batch is pushed in one MULTI/EXEC.
func (q *RedisQueue) Append(ctx context.Context, drafts []models.PostDraft) error {
	if len(drafts) == 0 {
		return nil
	}

	values := make([]interface{}, 0, len(drafts))
	for _, d := range drafts {
		encoded, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("failed to encode draft %s: %w", d.ID, err)
		}
		values = append(values, encoded)
	}

	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, q.key, values...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to push %d drafts: %w", len(drafts), err)
	}
	return nil
}

// Len returns the list length
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}
