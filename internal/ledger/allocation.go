package ledger

// Ledger is the ordered collection of open punchcard records. Order is
// significant: allocation scans in ledger order, and validation establishes
// the canonical display-name sort before every save.
type Ledger struct {
	records []*Record
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{}
}

// Records exposes the backing slice in ledger order.
func (l *Ledger) Records() []*Record {
	return l.records
}

// Append adds a record at the end of the ledger.
func (l *Ledger) Append(r *Record) {
	l.records = append(l.records, r)
}

// Filter returns records matching the given owner and status; empty
// arguments match everything.
func (l *Ledger) Filter(playerID string, status Status) []*Record {
	var out []*Record
	for _, r := range l.records {
		if playerID != "" && r.OwnerID != playerID {
			continue
		}
		if status != "" && r.Status != status {
			continue
		}
		out = append(out, r)
	}
	return out
}

// OpenCardCount counts current and next cards the player can draw on,
// either as owner or as alternate payer.
func (l *Ledger) OpenCardCount(playerID string) int {
	count := 0
	for _, r := range l.records {
		if r.OwnerID != playerID && r.AltPayerID != playerID {
			continue
		}
		if r.Status == StatusCurrent || r.Status == StatusNext {
			count++
		}
	}
	return count
}

// FindPaymentCard locates the current-status card a charge for this player
// would land on: first a card the player owns, then a card listing the
// player as alternate payer. The returned bool reports the alternate case.
func (l *Ledger) FindPaymentCard(playerID string) (*Record, bool) {
	if playerID == "" {
		return nil, false
	}
	for _, r := range l.records {
		if r.OwnerID == playerID && r.Status == StatusCurrent {
			return r, false
		}
	}
	for _, r := range l.records {
		if r.AltPayerID == playerID && r.Status == StatusCurrent {
			return r, true
		}
	}
	return nil, false
}

// FindNextFreePaymentSlot returns the player's payment card and the first
// empty usable slot on it (0-based). A nil record means the player has no
// current card; a -1 slot on a non-nil record means the card is exhausted.
func (l *Ledger) FindNextFreePaymentSlot(playerID string) (*Record, int, bool) {
	r, alt := l.FindPaymentCard(playerID)
	if r == nil {
		return nil, -1, false
	}
	_, _, total := CountSlots(r)
	for i := 0; i < total; i++ {
		if r.slots[i] == "" {
			return r, i, alt
		}
	}
	return r, -1, alt
}

// FindPastDueRecord returns the player's open past-due record, if any.
func (l *Ledger) FindPastDueRecord(playerID string) *Record {
	if playerID == "" {
		return nil
	}
	for _, r := range l.records {
		if r.OwnerID == playerID && r.Status == StatusPastDue {
			return r
		}
	}
	return nil
}

// FindOrCreatePastDueSlot returns the player's past-due record and its
// first empty slot, creating the record when the player has none yet.
// Creation needs a display name from the roster; an unresolvable player
// yields ErrUnknownPlayer and nothing is created. A full past-due card
// returns (nil, -1, nil).
func (l *Ledger) FindOrCreatePastDueSlot(playerID string, roster Roster) (*Record, int, error) {
	r := l.FindPastDueRecord(playerID)
	if r == nil {
		name := roster.ResolveDisplayName(playerID)
		if name == "" {
			return nil, -1, ErrUnknownPlayer
		}
		r = NewRecord()
		r.OwnerID = playerID
		r.OwnerName = name
		r.Status = StatusPastDue
		l.Append(r)
	}

	// Past-due slots scan raw positions: a fresh record is modern-format,
	// so the sentinel keeps column 11 out of reach on its own.
	for i := 0; i < slotColumns; i++ {
		if r.slots[i] == "" {
			return r, i, nil
		}
	}
	return nil, -1, nil
}

// ChargedOn reports whether any slot in the ledger already carries this
// date. The gameday batch uses it to refuse double processing.
func (l *Ledger) ChargedOn(date string) bool {
	if date == "" {
		return false
	}
	for _, r := range l.records {
		for i := 0; i < slotColumns; i++ {
			if r.slots[i] == date {
				return true
			}
		}
	}
	return false
}
