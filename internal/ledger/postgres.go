package ledger

import (
	"context"

	"github.com/rs/zerolog/log"
)

// PostedDraftStore is the table access PostgresLedger needs
type PostedDraftStore interface {
	Exists(ctx context.Context, draftID string) (bool, error)
	InsertAll(ctx context.Context, draftIDs []string) (int, error)
}

// PostgresLedger keeps posted ids in the posted_drafts table
type PostgresLedger struct {
	store PostedDraftStore
}

// NewPostgresLedger wraps a posted_drafts repository
func NewPostgresLedger(store PostedDraftStore) *PostgresLedger {
	return &PostgresLedger{store: store}
}

// Contains implements Ledger
func (l *PostgresLedger) Contains(ctx context.Context, id string) (bool, error) {
	return l.store.Exists(ctx, id)
}

// Append implements Ledger. All ids are written in a single transaction.
func (l *PostgresLedger) Append(ctx context.Context, ids []string) error {
	inserted, err := l.store.InsertAll(ctx, ids)
	if err != nil {
		return err
	}
	if skipped := len(ids) - inserted; skipped > 0 {
		log.Warn().
			Int("skipped", skipped).
			Msg("Some draft ids were already in the ledger")
	}
	return nil
}
