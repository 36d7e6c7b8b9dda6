// Package cache persists immutable per-(season, week, datatype) upstream snapshots.
package cache

import (
	"context"
	"errors"

	"cfbfeed/internal/models"
)

// ErrKeyExists is returned by Put when the key was already written
var ErrKeyExists = errors.New("snapshot key already written")

// Store is a durable, write-once key/value store for encoded snapshots
type Store interface {
	// Get returns the stored bytes and false when the key is absent
	Get(ctx context.Context, key models.SnapshotKey) ([]byte, bool, error)

	// Put stores data under key. Existing keys are never overwritten.
	Put(ctx context.Context, key models.SnapshotKey, data []byte) error
}
