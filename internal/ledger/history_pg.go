package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresHistory is the archive backend for clubs that outgrow flat
// files. Rows are write-once; re-archiving the same card is a no-op.
type PostgresHistory struct {
	pool *pgxpool.Pool
}

// NewPostgresHistory builds the Postgres-backed history store.
func NewPostgresHistory(pool *pgxpool.Pool) *PostgresHistory {
	return &PostgresHistory{pool: pool}
}

// EnsureSchema creates the history table when it is missing.
func (h *PostgresHistory) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS punchcard_history (
	id            BIGSERIAL PRIMARY KEY,
	owner_id      TEXT NOT NULL,
	owner_name    TEXT NOT NULL DEFAULT '',
	alt_id        TEXT NOT NULL DEFAULT '',
	alt_name      TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL,
	purchase_date TEXT NOT NULL DEFAULT '',
	slots         TEXT[] NOT NULL,
	archived_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (owner_id, status, purchase_date, slots)
)`
	if _, err := h.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ledger: ensure history schema: %w", err)
	}
	return nil
}

// Append inserts archived records. A unique violation means the card was
// archived before and the row is skipped.
func (h *PostgresHistory) Append(ctx context.Context, records []*Record) error {
	const insert = `
INSERT INTO punchcard_history (owner_id, owner_name, alt_id, alt_name, status, purchase_date, slots)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for _, r := range records {
		slots := make([]string, slotColumns)
		for i := 0; i < slotColumns; i++ {
			slots[i] = r.slots[i]
		}
		_, err := h.pool.Exec(ctx, insert,
			r.OwnerID, r.OwnerName, r.AltPayerID, r.AltPayerName,
			string(r.Status), r.PurchaseDate, slots)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				continue
			}
			return fmt.Errorf("ledger: archive record for %s: %w", r.OwnerID, err)
		}
	}
	return nil
}

// Records loads every archived record for reporting.
func (h *PostgresHistory) Records(ctx context.Context) ([]*Record, error) {
	const query = `
SELECT owner_id, owner_name, alt_id, alt_name, status, purchase_date, slots
FROM punchcard_history ORDER BY id`
	rows, err := h.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ledger: query history: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		var r Record
		var status string
		var slots []string
		if err := rows.Scan(&r.OwnerID, &r.OwnerName, &r.AltPayerID, &r.AltPayerName,
			&status, &r.PurchaseDate, &slots); err != nil {
			return nil, fmt.Errorf("ledger: scan history row: %w", err)
		}
		r.Status = Status(status)
		for i := 0; i < slotColumns && i < len(slots); i++ {
			r.slots[i] = slots[i]
		}
		r.Format = detectFormat(r.slots[slotColumns-1])
		out = append(out, &r)
	}
	return out, rows.Err()
}
