// Package ledger records which draft ids have already been emitted.
package ledger

import (
	"context"
	"fmt"

	"cfbfeed/internal/models"
)

// Ledger is a durable append-only set of draft ids
type Ledger interface {
	// Contains reports whether id was committed by any previous run
	Contains(ctx context.Context, id string) (bool, error)
	// Append durably records ids. Appending a known id is a no-op.
	Append(ctx context.Context, ids []string) error
}

// FilterUnposted drops drafts already present in the ledger and duplicates within the batch,
// preserving order
func FilterUnposted(ctx context.Context, l Ledger, drafts []models.PostDraft) ([]models.PostDraft, error) {
	out := make([]models.PostDraft, 0, len(drafts))
	seen := make(map[string]bool, len(drafts))
	for _, d := range drafts {
		if seen[d.ID] {
			continue
		}
		seen[d.ID] = true

		posted, err := l.Contains(ctx, d.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check ledger for %s: %w", d.ID, err)
		}
		if !posted {
			out = append(out, d)
		}
	}
	return out, nil
}

// Commit appends the ids of drafts to the ledger
func Commit(ctx context.Context, l Ledger, drafts []models.PostDraft) error {
	if len(drafts) == 0 {
		return nil
	}
	ids := make([]string, 0, len(drafts))
	for _, d := range drafts {
		ids = append(ids, d.ID)
	}
	if err := l.Append(ctx, ids); err != nil {
		return fmt.Errorf("failed to commit %d drafts: %w", len(ids), err)
	}
	return nil
}
