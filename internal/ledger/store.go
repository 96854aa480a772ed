package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	// LedgerFile is the primary flat table of open records.
	LedgerFile = "punchcards.csv"
	// HistoryFile is the append-only table of archived records.
	HistoryFile = "punchcards_history.csv"
)

var tableHeader = []string{
	"HockeyUserID", "MeetupName", "AltID", "AltName", "Status", "PurchaseDate",
	"PlayDate01", "PlayDate02", "PlayDate03", "PlayDate04", "PlayDate05",
	"PlayDate06", "PlayDate07", "PlayDate08", "PlayDate09", "PlayDate10",
	"PlayDate11",
}

// Store reads and writes the tab-delimited punchcard tables under one
// data directory.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore builds a Store rooted at dir.
func NewStore(dir string, logger *slog.Logger) *Store {
	return &Store{dir: dir, logger: logger}
}

// Load reads the open ledger table. Rows with an unrecognized status are
// logged as malformed but still included; the batch never stops for one
// bad row. A missing table is an empty ledger (first run).
func (s *Store) Load() (*Ledger, error) {
	l := New()
	err := s.loadFile(filepath.Join(s.dir, LedgerFile), l)
	if errors.Is(err, os.ErrNotExist) {
		return l, nil
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

// LoadHistory reads the archived table. A missing history file is an empty
// history, not an error.
func (s *Store) LoadHistory() ([]*Record, error) {
	l := New()
	err := s.loadFile(filepath.Join(s.dir, HistoryFile), l)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return l.records, nil
}

func (s *Store) loadFile(path string, l *Ledger) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("ledger: open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1

	header := true
	for {
		row, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("ledger: read %s: %w", filepath.Base(path), err)
		}
		if header {
			header = false
			continue
		}
		if len(row) == 0 {
			continue
		}
		rec, perr := parseRow(row)
		if perr != nil {
			s.logger.Error("malformed ledger row", slog.Any("error", perr))
		}
		l.Append(rec)
	}
}

// parseRow builds a record from one table row. An unrecognized status is
// returned as a FormatError alongside the record, which keeps the raw
// value so the row round-trips unchanged.
func parseRow(row []string) (*Record, error) {
	padded := make([]string, len(tableHeader))
	copy(padded, row)

	r := &Record{
		OwnerID:      padded[0],
		OwnerName:    padded[1],
		AltPayerID:   padded[2],
		AltPayerName: padded[3],
		Status:       Status(padded[4]),
		PurchaseDate: padded[5],
	}
	for i := 0; i < slotColumns; i++ {
		r.slots[i] = padded[6+i]
	}
	r.Format = detectFormat(r.slots[slotColumns-1])

	if !r.Status.Valid() {
		return r, &FormatError{OwnerID: r.OwnerID, Status: padded[4]}
	}
	return r, nil
}

func recordRow(r *Record) []string {
	row := make([]string, len(tableHeader))
	row[0] = r.OwnerID
	row[1] = r.OwnerName
	row[2] = r.AltPayerID
	row[3] = r.AltPayerName
	row[4] = string(r.Status)
	row[5] = r.PurchaseDate
	for i := 0; i < slotColumns; i++ {
		row[6+i] = r.slots[i]
	}
	return row
}

// Save rewrites the whole open table in ledger order. The write goes to a
// temp file first and is renamed into place, so a crash leaves either the
// old or the new table, never a torn one. Callers run Validate first; the
// ledger's order at save time is the canonical order.
func (s *Store) Save(l *Ledger) error {
	path := filepath.Join(s.dir, LedgerFile)
	tmp, err := os.CreateTemp(s.dir, LedgerFile+".tmp-*")
	if err != nil {
		return fmt.Errorf("ledger: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	writer := csv.NewWriter(tmp)
	writer.Comma = '\t'
	if err := writer.Write(tableHeader); err != nil {
		tmp.Close()
		return fmt.Errorf("ledger: write header: %w", err)
	}
	for _, r := range l.records {
		if err := writer.Write(recordRow(r)); err != nil {
			tmp.Close()
			return fmt.Errorf("ledger: write row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("ledger: flush: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("ledger: close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("ledger: replace table: %w", err)
	}
	return nil
}

// AppendHistory appends records to the archived table, writing the header
// when the file does not exist yet.
func (s *Store) AppendHistory(records []*Record) error {
	if len(records) == 0 {
		return nil
	}
	path := filepath.Join(s.dir, HistoryFile)
	_, statErr := os.Stat(path)
	writeHeader := errors.Is(statErr, os.ErrNotExist)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("ledger: open history: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	writer.Comma = '\t'
	if writeHeader {
		if err := writer.Write(tableHeader); err != nil {
			return fmt.Errorf("ledger: write history header: %w", err)
		}
	}
	for _, r := range records {
		if err := writer.Write(recordRow(r)); err != nil {
			return fmt.Errorf("ledger: write history row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}
