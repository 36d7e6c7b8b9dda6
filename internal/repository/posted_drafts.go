package repository

import (
	"context"
	"fmt"
	"time"

	"cfbfeed/internal/metrics"

	"github.com/rs/zerolog/log"
)

const postedDraftsSchema = `
	CREATE TABLE IF NOT EXISTS posted_drafts (
		draft_id   TEXT PRIMARY KEY,
		posted_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// PostedDraftRepository handles the append-only posted_drafts table
type PostedDraftRepository struct {
	db *Database
}

// EnsureSchema creates the posted_drafts table when missing
func (r *PostedDraftRepository) EnsureSchema(ctx context.Context) error {
	start := time.Now()
	_, err := r.db.Pool.Exec(ctx, postedDraftsSchema)
	metrics.RecordDBQuery("create", "posted_drafts", status(err), time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("failed to create posted_drafts table: %w", err)
	}
	return nil
}

// Exists reports whether draftID has been recorded
func (r *PostedDraftRepository) Exists(ctx context.Context, draftID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM posted_drafts WHERE draft_id = $1)`

	start := time.Now()
	var exists bool
	err := r.db.Pool.QueryRow(ctx, query, draftID).Scan(&exists)
	metrics.RecordDBQuery("select", "posted_drafts", status(err), time.Since(start).Seconds())
	if err != nil {
		return false, fmt.Errorf("failed to check posted draft: %w", err)
	}

	return exists, nil
}

// ListExisting returns the subset of draftIDs already recorded
func (r *PostedDraftRepository) ListExisting(ctx context.Context, draftIDs []string) (map[string]bool, error) {
	out := make(map[string]bool, len(draftIDs))
	if len(draftIDs) == 0 {
		return out, nil
	}

	query := `SELECT draft_id FROM posted_drafts WHERE draft_id = ANY($1)`

	start := time.Now()
	rows, err := r.db.Pool.Query(ctx, query, draftIDs)
	if err != nil {
		metrics.RecordDBQuery("select", "posted_drafts", "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("failed to list posted drafts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan posted draft: %w", err)
		}
		out[id] = true
	}
	err = rows.Err()
	metrics.RecordDBQuery("select", "posted_drafts", status(err), time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("error iterating posted drafts: %w", err)
	}

	return out, nil
}

// InsertAll records every id in one transaction; ids already present are left untouched
func (r *PostedDraftRepository) InsertAll(ctx context.Context, draftIDs []string) (int, error) {
	if len(draftIDs) == 0 {
		return 0, nil
	}

	start := time.Now()
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	inserted := 0
	for _, id := range draftIDs {
		tag, err := tx.Exec(ctx, `
			INSERT INTO posted_drafts (draft_id) VALUES ($1)
			ON CONFLICT (draft_id) DO NOTHING
		`, id)
		if err != nil {
			metrics.RecordDBQuery("insert", "posted_drafts", "error", time.Since(start).Seconds())
			return 0, fmt.Errorf("failed to insert posted draft %s: %w", id, err)
		}
		inserted += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		metrics.RecordDBQuery("insert", "posted_drafts", "error", time.Since(start).Seconds())
		return 0, fmt.Errorf("committing posted drafts: %w", err)
	}
	metrics.RecordDBQuery("insert", "posted_drafts", "success", time.Since(start).Seconds())

	log.Debug().
		Int("requested", len(draftIDs)).
		Int("inserted", inserted).
		Msg("Posted drafts recorded")

	return inserted, nil
}

// Count returns the number of recorded drafts
func (r *PostedDraftRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM posted_drafts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count posted drafts: %w", err)
	}
	return n, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
