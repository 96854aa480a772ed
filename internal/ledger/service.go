package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrNoFreeSlot means neither a payment slot nor a past-due slot could
// take the charge.
var ErrNoFreeSlot = errors.New("ledger: no free slot")

// ValidationError carries the anomalies that blocked a save.
type ValidationError struct {
	Anomalies []Anomaly
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("ledger: validation found %d unresolved anomalies", len(e.Anomalies))
}

// ChargeResult reports where a charge landed. The mutated record, slot
// index and date give the notification collaborator everything it needs
// for balance wording.
type ChargeResult struct {
	Record    *Record
	SlotIndex int
	Date      string
	Alternate bool
	PastDue   bool
	Remaining int
}

// PurchaseResult reports how a purchase was applied.
type PurchaseResult struct {
	Record *Record
	// FromPastDue is set when an open past-due record was converted into
	// the new current card instead of appending a fresh one.
	FromPastDue bool
	// PriorCurrent holds cards that were current before the purchase, for
	// the "we will finish your old card first" wording.
	PriorCurrent []*Record
}

// Service owns the in-memory ledger for the life of the process and
// mediates every mutation. The whole ledger loads at start and flushes as
// one full rewrite; a mutex serializes operators since the flat table has
// no finer-grained protection to offer.
type Service struct {
	mu      sync.Mutex
	ledger  *Ledger
	store   *Store
	history HistoryStore
	roster  Roster
	logger  *slog.Logger
}

// NewService builds the ledger service around a loaded ledger.
func NewService(ledger *Ledger, store *Store, history HistoryStore, roster Roster, logger *slog.Logger) *Service {
	return &Service{ledger: ledger, store: store, history: history, roster: roster, logger: logger}
}

// Punchcards returns the open records matching the filters, in ledger order.
func (s *Service) Punchcards(playerID string, status Status) []*Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Filter(playerID, status)
}

// OpenCardCount counts the player's current and next cards.
func (s *Service) OpenCardCount(playerID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.OpenCardCount(playerID)
}

// AlreadyProcessed reports whether any card already carries this date.
func (s *Service) AlreadyProcessed(date string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.ChargedOn(date)
}

// Charge applies the standard payment policy for one attendance: the first
// free slot on the player's current card, falling back to the past-due
// record (created on demand) when the card is exhausted or absent. A charge
// that lands on the payment card is never also tried against past-due.
func (s *Service) Charge(_ context.Context, playerID, date string) (ChargeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, slot, alt := s.ledger.FindNextFreePaymentSlot(playerID); slot >= 0 {
		if !rec.Charge(slot, date) {
			return ChargeResult{}, fmt.Errorf("ledger: charge rejected for %s on %s", playerID, date)
		}
		_, remaining, _ := CountSlots(rec)
		return ChargeResult{Record: rec, SlotIndex: slot, Date: date, Alternate: alt, Remaining: remaining}, nil
	}

	rec, slot, err := s.ledger.FindOrCreatePastDueSlot(playerID, s.roster)
	if err != nil {
		return ChargeResult{}, err
	}
	if slot < 0 {
		return ChargeResult{}, ErrNoFreeSlot
	}
	if !rec.Charge(slot, date) {
		return ChargeResult{}, fmt.Errorf("ledger: past-due charge rejected for %s on %s", playerID, date)
	}
	s.logger.Info("charge added to past due account",
		slog.String("player", playerID), slog.String("date", date))
	return ChargeResult{Record: rec, SlotIndex: slot, Date: date, PastDue: true}, nil
}

// Purchase activates a punchcard for the player: an open past-due record
// converts into the new current card, otherwise a fresh ten-slot card is
// appended. The player must have an email address on the roster so the
// confirmation can be delivered.
func (s *Service) Purchase(_ context.Context, playerID, purchaseDate string) (PurchaseResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := s.roster.ResolveDisplayName(playerID)
	if name == "" {
		return PurchaseResult{}, ErrUnknownPlayer
	}
	if s.roster.ResolveEmail(playerID) == "" {
		return PurchaseResult{}, ErrNoEmail
	}

	prior := s.ledger.Filter(playerID, StatusCurrent)

	if pd := s.ledger.FindPastDueRecord(playerID); pd != nil {
		pd.Status = StatusCurrent
		pd.PurchaseDate = purchaseDate
		return PurchaseResult{Record: pd, FromPastDue: true, PriorCurrent: prior}, nil
	}

	rec := NewRecord()
	rec.OwnerID = playerID
	rec.OwnerName = name
	rec.Status = StatusCurrent
	rec.PurchaseDate = purchaseDate
	s.ledger.Append(rec)
	return PurchaseResult{Record: rec, PriorCurrent: prior}, nil
}

// Flush validates and rewrites the whole table. Repairs (exhausted cards,
// double-current) always apply and are logged; unknown owners block the
// save unless force is set, since a typoed ID in the table is better fixed
// than persisted.
func (s *Service) Flush(_ context.Context, force bool) ([]Anomaly, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	anomalies := s.ledger.Validate(s.roster)
	blocked := false
	for _, a := range anomalies {
		switch a.Kind {
		case AnomalyUnknownOwner:
			blocked = true
			s.logger.Error("ledger owner not in roster", slog.String("player", a.OwnerID))
		case AnomalyExtraCurrent:
			s.logger.Warn("repaired duplicate current card", slog.String("player", a.OwnerID))
		}
	}
	if blocked && !force {
		return anomalies, &ValidationError{Anomalies: anomalies}
	}
	if err := s.store.Save(s.ledger); err != nil {
		return anomalies, err
	}
	return anomalies, nil
}

// Archive moves exhausted and refunded cards to the history store and
// rewrites the open table without them. Past-due and open cards stay.
func (s *Service) Archive(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var keep, archived []*Record
	for _, r := range s.ledger.records {
		if r.Status == StatusPrevious || r.Status == StatusRefunded {
			archived = append(archived, r)
		} else {
			keep = append(keep, r)
		}
	}
	if len(archived) == 0 {
		return 0, nil
	}
	if err := s.history.Append(ctx, archived); err != nil {
		return 0, err
	}
	s.ledger.records = keep
	if err := s.store.Save(s.ledger); err != nil {
		return len(archived), err
	}
	return len(archived), nil
}

// PunchesInRange reports per-player punch counts and the distinct session
// count across the open ledger and the history store.
func (s *Service) PunchesInRange(ctx context.Context, startDate, endDate string) ([]PlayerPunchCount, int, error) {
	s.mu.Lock()
	records := append([]*Record(nil), s.ledger.records...)
	s.mu.Unlock()

	hist, err := s.history.Records(ctx)
	if err != nil {
		return nil, 0, err
	}
	records = append(records, hist...)
	counts, sessions := CountPunchesInRange(records, startDate, endDate)
	return counts, sessions, nil
}

// PrepaidPunches returns the club's outstanding prepaid punch count.
func (s *Service) PrepaidPunches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.PrepaidPunchCount()
}

// Duplicates runs the offline duplicate-charge scan.
func (s *Service) Duplicates() []DuplicateCharge {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.DuplicateCharges()
}

// Standing classifies where a player's next charge would land.
type Standing string

const (
	// StandingPunchcard means an open card has a free slot.
	StandingPunchcard Standing = "punchcard"
	// StandingPastDue means the charge would land on the past-due record.
	StandingPastDue Standing = "pastdue"
	// StandingNone means the player has no open card and no past-due room.
	StandingNone Standing = "none"
)

// PaymentStanding reports the player's standing and whether the card that
// would take the charge lists them as the alternate payer.
func (s *Service) PaymentStanding(playerID string) (Standing, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, slot, alt := s.ledger.FindNextFreePaymentSlot(playerID); slot >= 0 {
		return StandingPunchcard, alt
	}
	if pd := s.ledger.FindPastDueRecord(playerID); pd != nil {
		return StandingPastDue, false
	}
	return StandingNone, false
}

// PastDueRecords returns the open past-due records, for the notice sweep.
func (s *Service) PastDueRecords() []*Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Filter("", StatusPastDue)
}
