package ledger

import "context"

// HistoryStore is the append-only archive of records no longer in the open
// ledger. Reporting reads it; the archival step writes it.
type HistoryStore interface {
	Append(ctx context.Context, records []*Record) error
	Records(ctx context.Context) ([]*Record, error)
}

// fileHistory keeps history in the flat table next to the open ledger.
type fileHistory struct {
	store *Store
}

// NewFileHistory returns the default, flat-file history backend.
func NewFileHistory(store *Store) HistoryStore {
	return &fileHistory{store: store}
}

func (h *fileHistory) Append(_ context.Context, records []*Record) error {
	return h.store.AppendHistory(records)
}

func (h *fileHistory) Records(_ context.Context) ([]*Record, error) {
	return h.store.LoadHistory()
}
