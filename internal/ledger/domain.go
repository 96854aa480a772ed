// Package ledger owns the punchcard records: who bought a card, which
// slots have been punched, and where the next charge lands.
package ledger

import (
	"errors"
	"fmt"
)

// Status enumerates punchcard lifecycle states.
type Status string

const (
	// StatusCurrent is the card charges are drawn from.
	StatusCurrent Status = "current"
	// StatusNext is a purchased card waiting for the current one to fill up.
	StatusNext Status = "next"
	// StatusPrevious is an exhausted card kept for history.
	StatusPrevious Status = "previous"
	// StatusPastDue tracks unpaid attendance for a player without a card.
	StatusPastDue Status = "pastdue"
	// StatusRefunded marks a card refunded by an administrator.
	StatusRefunded Status = "refunded"
)

// Valid reports whether s is one of the recognized statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusCurrent, StatusNext, StatusPrevious, StatusPastDue, StatusRefunded:
		return true
	}
	return false
}

// CardFormat distinguishes the two slot layouts that coexist in the table.
// Older cards carry eleven usable slots; newer cards carry ten, with the
// sentinel parked in the eleventh column.
type CardFormat string

const (
	// FormatLegacy11 is the original eleven-slot card.
	FormatLegacy11 CardFormat = "legacy11"
	// FormatModern10 is the ten-slot card; slot column 11 holds the sentinel.
	FormatModern10 CardFormat = "modern10"
)

// UsableSlots returns the number of slots a card of this format can charge.
func (f CardFormat) UsableSlots() int {
	if f == FormatModern10 {
		return 10
	}
	return 11
}

const (
	// slotColumns is the fixed number of slot columns in the persisted table,
	// regardless of card format.
	slotColumns = 11

	// Sentinel is the literal stored in slot column 11 of a modern card.
	Sentinel = "NULL"
)

var (
	// ErrUnknownPlayer is returned when a past-due record would be created
	// for a player the roster cannot resolve.
	ErrUnknownPlayer = errors.New("ledger: player not in roster")

	// ErrNoEmail is returned when a purchase is attempted for a player
	// without an email address on the roster.
	ErrNoEmail = errors.New("ledger: player has no email address")

	// ErrAlreadyProcessed guards against charging the same gameday twice.
	ErrAlreadyProcessed = errors.New("ledger: date already charged")
)

// FormatError reports a row whose status column is not one of the five
// recognized values. The row still loads; the error is for the operator.
type FormatError struct {
	OwnerID string
	Status  string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("ledger: record for %q has unrecognized status %q", e.OwnerID, e.Status)
}

// Record is one purchased punchcard or past-due tracking entry.
type Record struct {
	OwnerID      string
	OwnerName    string
	AltPayerID   string
	AltPayerName string
	Status       Status
	PurchaseDate string
	Format       CardFormat

	slots [slotColumns]string
}

// NewRecord returns the canonical blank record: all fields empty, modern
// ten-slot format, sentinel seeded into slot column 11.
func NewRecord() *Record {
	r := &Record{Format: FormatModern10}
	r.slots[slotColumns-1] = Sentinel
	return r
}

// Slot returns the raw value of slot index i (0-based). Out-of-range
// indices read as empty.
func (r *Record) Slot(i int) string {
	if i < 0 || i >= slotColumns {
		return ""
	}
	return r.slots[i]
}

// SetSlot writes a raw slot value. Used by the persistence layer and by
// administrative correction; charging goes through Charge.
func (r *Record) SetSlot(i int, v string) {
	if i < 0 || i >= slotColumns {
		return
	}
	r.slots[i] = v
	r.Format = detectFormat(r.slots[slotColumns-1])
}

// Charge writes date into slot index i and rolls the card to previous when
// the final usable slot has just been punched. It returns false, without
// mutating, when the date is missing or the index is out of range; callers
// must check the result. Allocation guarantees the slot is empty and within
// the card's usable range.
func (r *Record) Charge(i int, date string) bool {
	if date == "" {
		return false
	}
	if r == nil || i < 0 || i >= slotColumns {
		return false
	}
	r.slots[i] = date

	_, _, total := CountSlots(r)
	if i == total-1 && r.Status == StatusCurrent {
		r.Status = StatusPrevious
	}
	return true
}

// PlayDates returns the non-empty slot values of the card's usable slots,
// in slot order.
func (r *Record) PlayDates() []string {
	if r == nil {
		return nil
	}
	var dates []string
	for i := 0; i < r.Format.UsableSlots(); i++ {
		if v := r.slots[i]; v != "" && v != Sentinel {
			dates = append(dates, v)
		}
	}
	return dates
}

func detectFormat(slot11 string) CardFormat {
	if slot11 == Sentinel {
		return FormatModern10
	}
	return FormatLegacy11
}

// Roster is the lookup collaborator the ledger depends on. A blank display
// name means the player is unknown.
type Roster interface {
	ResolveDisplayName(playerID string) string
	ResolveEmail(playerID string) string
}
