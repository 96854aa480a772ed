// Package roster stores the club's players: identity, contact details and
// the loyalty star balance earned by early signup.
package roster

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// RosterFile is the flat player table.
const RosterFile = "roster.csv"

var rosterHeader = []string{
	"HockeyUserID", "MeetupName", "First", "Last", "Email", "Phone",
	"Stars", "CumulativeStars",
}

// ErrDuplicatePlayer is returned when adding an ID that already exists.
var ErrDuplicatePlayer = errors.New("roster: player already exists")

// Player is one roster entry.
type Player struct {
	ID              string
	DisplayName     string
	FirstName       string
	LastName        string
	Email           string
	Phone           string
	Stars           int
	CumulativeStars int
}

var caseInsensitive = collate.New(language.Und, collate.IgnoreCase)

// Store is the in-memory roster backed by the flat table. Like the ledger,
// it loads once and saves as a full rewrite.
type Store struct {
	dir    string
	logger *slog.Logger

	mu      sync.Mutex
	players map[string]*Player
}

// NewStore loads the roster from dir. A missing table is an empty roster.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	s := &Store{dir: dir, logger: logger, players: make(map[string]*Player)}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	f, err := os.Open(filepath.Join(s.dir, RosterFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("roster: open table: %w", err)
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
			return fmt.Errorf("roster: read table: %w", err)
		}
		if header {
			header = false
			continue
		}
		if len(row) == 0 || row[0] == "" {
			continue
		}
		padded := make([]string, len(rosterHeader))
		copy(padded, row)
		p := &Player{
			ID:          padded[0],
			DisplayName: padded[1],
			FirstName:   padded[2],
			LastName:    padded[3],
			Email:       padded[4],
			Phone:       padded[5],
		}
		p.Stars = s.parseStars(p.ID, padded[6])
		p.CumulativeStars = s.parseStars(p.ID, padded[7])
		s.players[p.ID] = p
	}
}

func (s *Store) parseStars(playerID, raw string) int {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		s.logger.Warn("unreadable star count, treating as zero",
			slog.String("player", playerID), slog.String("value", raw))
		return 0
	}
	return n
}

// Save rewrites the table sorted by display name, case-insensitive,
// through a temp file and rename.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ordered := make([]*Player, 0, len(s.players))
	for _, p := range s.players {
		ordered = append(ordered, p)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return caseInsensitive.CompareString(ordered[i].DisplayName, ordered[j].DisplayName) < 0
	})

	path := filepath.Join(s.dir, RosterFile)
	tmp, err := os.CreateTemp(s.dir, RosterFile+".tmp-*")
	if err != nil {
		return fmt.Errorf("roster: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	writer := csv.NewWriter(tmp)
	writer.Comma = '\t'
	if err := writer.Write(rosterHeader); err != nil {
		tmp.Close()
		return fmt.Errorf("roster: write header: %w", err)
	}
	for _, p := range ordered {
		row := []string{
			p.ID, p.DisplayName, p.FirstName, p.LastName, p.Email, p.Phone,
			strconv.Itoa(p.Stars), strconv.Itoa(p.CumulativeStars),
		}
		if err := writer.Write(row); err != nil {
			tmp.Close()
			return fmt.Errorf("roster: write row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("roster: flush: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("roster: close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("roster: replace table: %w", err)
	}
	return nil
}

// ResolveDisplayName returns the player's display name, or empty when the
// player is unknown.
func (s *Store) ResolveDisplayName(playerID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.players[playerID]; ok {
		return p.DisplayName
	}
	return ""
}

// ResolveEmail returns the player's email address, or empty.
func (s *Store) ResolveEmail(playerID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.players[playerID]; ok {
		return p.Email
	}
	return ""
}

// Stars returns the player's spendable star balance.
func (s *Store) Stars(playerID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.players[playerID]; ok {
		return p.Stars
	}
	return 0
}

// Has reports whether the player is on the roster.
func (s *Store) Has(playerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.players[playerID]
	return ok
}

// SetStars overwrites the player's spendable balance, e.g. after spending
// stars on a free game.
func (s *Store) SetStars(playerID string, stars int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[playerID]
	if !ok {
		return false
	}
	p.Stars = stars
	return true
}

// AddStars credits stars to both the spendable and the lifetime balance
// and returns the new spendable count.
func (s *Store) AddStars(playerID string, n int) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[playerID]
	if !ok {
		return 0, false
	}
	p.Stars += n
	p.CumulativeStars += n
	return p.Stars, true
}

// Add inserts a new player.
func (s *Store) Add(p Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[p.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicatePlayer, p.ID)
	}
	cp := p
	s.players[p.ID] = &cp
	return nil
}

// Find matches players by a partial display name, falling back to first
// and last name when nothing matches.
func (s *Store) Find(partial string) []Player {
	s.mu.Lock()
	defer s.mu.Unlock()

	needle := strings.ToUpper(partial)
	var byDisplay, byName []Player
	for _, p := range s.players {
		if strings.Contains(strings.ToUpper(p.DisplayName), needle) {
			byDisplay = append(byDisplay, *p)
			continue
		}
		if strings.Contains(strings.ToUpper(p.FirstName), needle) ||
			strings.Contains(strings.ToUpper(p.LastName), needle) {
			byName = append(byName, *p)
		}
	}
	out := byDisplay
	if len(out) == 0 {
		out = byName
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Players returns every roster entry sorted by display name.
func (s *Store) Players() []Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Player, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, *p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return caseInsensitive.CompareString(out[i].DisplayName, out[j].DisplayName) < 0
	})
	return out
}
