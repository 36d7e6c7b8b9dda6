package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cfbfeed/internal/metrics"
	"cfbfeed/internal/models"

	"github.com/rs/zerolog/log"
)

// ErrDatatypeMismatch is returned when a stored or fetched payload does not match its key
var ErrDatatypeMismatch = errors.New("snapshot datatype does not match key")

// envelope tags every stored payload with its datatype
type envelope struct {
	Datatype models.Datatype `json:"datatype"`
	StoredAt time.Time       `json:"stored_at"`
	Data     json.RawMessage `json:"data"`
}

// Cache is the get-or-fetch layer over a Store
type Cache struct {
	store Store
	now   func() time.Time
}

// New wraps store
func New(store Store) *Cache {
	return &Cache{store: store, now: time.Now}
}

// Fetcher loads a snapshot from upstream on a cache miss
type Fetcher[T models.Snapshot] func(ctx context.Context) (T, error)

// GetOrFetch returns the stored snapshot for key without calling fetch, or calls
// fetch and stores the result. Empty results and fetch errors are never stored,
// so a later run retries the key.
func GetOrFetch[T models.Snapshot](ctx context.Context, c *Cache, key models.SnapshotKey, fetch Fetcher[T]) (T, error) {
	var zero T

	start := time.Now()
	raw, ok, err := c.store.Get(ctx, key)
	metrics.RecordCacheOperation("get", time.Since(start).Seconds())
	if err != nil {
		metrics.RecordError("cache", "read")
		return zero, fmt.Errorf("failed to read snapshot %s: %w", key, err)
	}

	if ok {
		out, err := decode[T](key, raw)
		if err != nil {
			metrics.RecordError("cache", "decode")
			return zero, err
		}
		metrics.RecordCacheHit(string(key.Datatype))
		log.Debug().Str("key", key.String()).Msg("Snapshot cache hit")
		return out, nil
	}

	metrics.RecordCacheMiss(string(key.Datatype))
	log.Debug().Str("key", key.String()).Msg("Snapshot cache miss, fetching")

	payload, err := fetch(ctx)
	if err != nil {
		return zero, err
	}
	if payload.Len() == 0 {
		log.Debug().Str("key", key.String()).Msg("Fetched snapshot is empty, not caching")
		return payload, nil
	}
	if payload.Datatype() != key.Datatype {
		return zero, fmt.Errorf("%w: key %s, payload %s", ErrDatatypeMismatch, key, payload.Datatype())
	}

	encoded, err := c.encode(payload)
	if err != nil {
		return zero, err
	}

	start = time.Now()
	err = c.store.Put(ctx, key, encoded)
	metrics.RecordCacheOperation("put", time.Since(start).Seconds())
	if errors.Is(err, ErrKeyExists) {
		log.Warn().Str("key", key.String()).Msg("Snapshot was written concurrently, keeping stored copy")
		stored, ok, err := Peek[T](ctx, c, key)
		if err != nil {
			metrics.RecordError("cache", "read")
			return zero, err
		}
		if !ok {
			return zero, fmt.Errorf("snapshot %s reported written but is absent", key)
		}
		return stored, nil
	}
	if err != nil {
		metrics.RecordError("cache", "write")
		return zero, fmt.Errorf("failed to store snapshot %s: %w", key, err)
	}

	log.Info().
		Str("key", key.String()).
		Int("entries", payload.Len()).
		Msg("Snapshot cached")

	return payload, nil
}

// Peek returns the stored snapshot without fetching. ok is false when absent.
func Peek[T models.Snapshot](ctx context.Context, c *Cache, key models.SnapshotKey) (T, bool, error) {
	var zero T
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		return zero, false, fmt.Errorf("failed to read snapshot %s: %w", key, err)
	}
	if !ok {
		return zero, false, nil
	}
	out, err := decode[T](key, raw)
	if err != nil {
		return zero, false, err
	}
	return out, true, nil
}

func (c *Cache) encode(payload models.Snapshot) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	encoded, err := json.Marshal(envelope{
		Datatype: payload.Datatype(),
		StoredAt: c.now().UTC(),
		Data:     data,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot envelope: %w", err)
	}
	return encoded, nil
}

func decode[T models.Snapshot](key models.SnapshotKey, raw []byte) (T, error) {
	var out T

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return out, fmt.Errorf("failed to decode snapshot envelope %s: %w", key, err)
	}
	if env.Datatype != key.Datatype {
		return out, fmt.Errorf("%w: key %s, stored %s", ErrDatatypeMismatch, key, env.Datatype)
	}
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return out, fmt.Errorf("failed to decode snapshot %s: %w", key, err)
	}
	if out.Datatype() != key.Datatype {
		return out, fmt.Errorf("%w: key %s, decoded %s", ErrDatatypeMismatch, key, out.Datatype())
	}
	return out, nil
}
