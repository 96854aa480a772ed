// Package gameday processes one game's attendance: it maps meetup
// identities to club IDs, detects early signups, applies the payment
// policy per player and queues the notifications.
package gameday

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// XrefFile maps meetup accounts to club IDs.
const XrefFile = "meetup_roster.csv"

var xrefHeader = []string{"Meetup name", "Meetup User ID", "Hockey User ID"}

// ErrDuplicateXref is returned when adding a meetup ID that is already mapped.
var ErrDuplicateXref = errors.New("gameday: meetup ID already cross-referenced")

type xrefEntry struct {
	MeetupName string
	MeetupID   string
	HockeyID   string
}

var xrefCollator = collate.New(language.Und, collate.IgnoreCase)

// Xref is the meetup-to-club ID cross-reference, backed by a flat table.
type Xref struct {
	dir    string
	logger *slog.Logger

	mu      sync.Mutex
	entries []xrefEntry
	byID    map[string]string
}

// NewXref loads the cross-reference from dir. A missing table is empty.
func NewXref(dir string, logger *slog.Logger) (*Xref, error) {
	x := &Xref{dir: dir, logger: logger, byID: make(map[string]string)}
	if err := x.load(); err != nil {
		return nil, err
	}
	return x, nil
}

func (x *Xref) load() error {
	f, err := os.Open(filepath.Join(x.dir, XrefFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("gameday: open xref: %w", err)
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
			return fmt.Errorf("gameday: read xref: %w", err)
		}
		if header {
			header = false
			continue
		}
		if len(row) < 3 || row[1] == "" {
			continue
		}
		e := xrefEntry{MeetupName: row[0], MeetupID: row[1], HockeyID: row[2]}
		x.entries = append(x.entries, e)
		x.byID[e.MeetupID] = e.HockeyID
	}
}

// HockeyID resolves a meetup ID to the club ID. Unmapped IDs pass through
// unchanged, so members whose meetup ID is their club ID need no entry.
func (x *Xref) HockeyID(meetupID string) string {
	x.mu.Lock()
	defer x.mu.Unlock()
	if id, ok := x.byID[meetupID]; ok {
		return id
	}
	return meetupID
}

// Add maps a new meetup account and rewrites the table sorted by meetup name.
func (x *Xref) Add(meetupName, meetupID, hockeyID string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if _, ok := x.byID[meetupID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateXref, meetupID)
	}
	x.entries = append(x.entries, xrefEntry{MeetupName: meetupName, MeetupID: meetupID, HockeyID: hockeyID})
	x.byID[meetupID] = hockeyID
	return x.save()
}

func (x *Xref) save() error {
	ordered := append([]xrefEntry(nil), x.entries...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return xrefCollator.CompareString(ordered[i].MeetupName, ordered[j].MeetupName) < 0
	})

	path := filepath.Join(x.dir, XrefFile)
	tmp, err := os.CreateTemp(x.dir, XrefFile+".tmp-*")
	if err != nil {
		return fmt.Errorf("gameday: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	writer := csv.NewWriter(tmp)
	writer.Comma = '\t'
	if err := writer.Write(xrefHeader); err != nil {
		tmp.Close()
		return fmt.Errorf("gameday: write xref header: %w", err)
	}
	for _, e := range ordered {
		if err := writer.Write([]string{e.MeetupName, e.MeetupID, e.HockeyID}); err != nil {
			tmp.Close()
			return fmt.Errorf("gameday: write xref row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("gameday: flush xref: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("gameday: close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("gameday: replace xref: %w", err)
	}
	return nil
}
