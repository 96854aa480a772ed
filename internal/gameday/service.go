package gameday

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/skpick99/Underwater-Hockey-Punchcards/internal/ledger"
	"github.com/skpick99/Underwater-Hockey-Punchcards/internal/notify"
	"github.com/skpick99/Underwater-Hockey-Punchcards/internal/observability"
	"github.com/skpick99/Underwater-Hockey-Punchcards/internal/settings"
)

const (
	// starsFullGame is the star price of a free full game.
	starsFullGame = 20
	// starsHalfGame is the star price of a free half game, and the credit
	// returned when a half game costs a full punch.
	starsHalfGame = 10
)

// Attendee is one signup from the meetup attendance export.
type Attendee struct {
	MeetupID   string
	MeetupName string
	SignupTime time.Time
}

// PaymentKind says how one attendance was paid.
type PaymentKind string

const (
	PaidStars   PaymentKind = "stars"
	PaidPunch   PaymentKind = "punch"
	PaidPastDue PaymentKind = "pastdue"
	// PaidNone means no slot could take the charge; the operator follows up.
	PaidNone PaymentKind = "none"
)

// PlayerOutcome reports how one attendee's game was settled.
type PlayerOutcome struct {
	HockeyID   string
	MeetupName string
	Kind       PaymentKind
	SlotIndex  int
	Remaining  int
	EarlyBird  bool
	Stars      int
}

// BatchResult reports one processed gameday.
type BatchResult struct {
	BatchID   string
	Date      string
	Players   []PlayerOutcome
	Anomalies []ledger.Anomaly
}

// PreviewEntry is one row of the pre-game standing report.
type PreviewEntry struct {
	HockeyID   string
	MeetupName string
	Standing   ledger.Standing
	Alternate  bool
	EarlyBird  bool
}

// Roster is the slice of the player store the gameday batch needs.
type Roster interface {
	ledger.Roster
	Has(playerID string) bool
	Stars(playerID string) int
	SetStars(playerID string, stars int) bool
	AddStars(playerID string, n int) (int, bool)
	Save() error
}

// Notifier queues composed emails for delivery.
type Notifier interface {
	SendWithCopies(ctx context.Context, to string, cc []string, msg notify.Message) error
}

// Service runs the gameday batch against the ledger and roster.
type Service struct {
	ledger   *ledger.Service
	roster   Roster
	xref     *Xref
	notifier Notifier
	club     settings.Club
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewService builds the gameday service.
func NewService(lsvc *ledger.Service, roster Roster, xref *Xref, notifier Notifier, club settings.Club, metrics *observability.Metrics, logger *slog.Logger) *Service {
	return &Service{
		ledger:   lsvc,
		roster:   roster,
		xref:     xref,
		notifier: notifier,
		club:     club,
		metrics:  metrics,
		logger:   logger,
	}
}

// Process settles every attendee of one game date and persists the ledger
// and roster. A date that already appears on any card is refused unless
// override is set, since double-processing a gameday punches everyone twice.
func (s *Service) Process(ctx context.Context, date string, attendees []Attendee, override bool) (BatchResult, error) {
	if s.ledger.AlreadyProcessed(date) && !override {
		return BatchResult{}, ledger.ErrAlreadyProcessed
	}

	result := BatchResult{BatchID: uuid.NewString(), Date: date}
	s.logger.Info("processing gameday",
		slog.String("batch", result.BatchID),
		slog.String("date", date),
		slog.Int("attendees", len(attendees)))

	for _, a := range attendees {
		result.Players = append(result.Players, s.processPlayer(ctx, date, a))
	}

	anomalies, err := s.ledger.Flush(ctx, false)
	result.Anomalies = anomalies
	if err != nil {
		return result, err
	}
	if err := s.roster.Save(); err != nil {
		return result, err
	}
	return result, nil
}

func (s *Service) processPlayer(ctx context.Context, date string, a Attendee) PlayerOutcome {
	hockeyID := s.xref.HockeyID(a.MeetupID)
	out := PlayerOutcome{HockeyID: hockeyID, MeetupName: a.MeetupName, SlotIndex: -1}

	earlyBird := false
	starCount := 0
	if s.club.UseStars {
		starCount = s.roster.Stars(hockeyID)
		if starCount >= starsFullGame {
			starCount -= starsFullGame
			s.roster.SetStars(hockeyID, starCount)
			out.Kind = PaidStars
			out.Stars = starCount
			s.metrics.ChargeRecorded("stars")
			s.sendStarsEmail(ctx, hockeyID, date, false)
			return out
		}
		earlyBird = EarlyBird(a.SignupTime, date)
		if earlyBird && s.roster.Has(hockeyID) {
			starCount, _ = s.roster.AddStars(hockeyID, 1)
		}
	}
	out.EarlyBird = earlyBird
	out.Stars = starCount

	res, err := s.ledger.Charge(ctx, hockeyID, date)
	switch {
	case errors.Is(err, ledger.ErrUnknownPlayer), errors.Is(err, ledger.ErrNoFreeSlot):
		out.Kind = PaidNone
		s.logger.Warn("attendance not charged",
			slog.String("player", hockeyID), slog.Any("error", err))
		return out
	case err != nil:
		out.Kind = PaidNone
		s.logger.Error("charge failed",
			slog.String("player", hockeyID), slog.Any("error", err))
		return out
	}

	out.SlotIndex = res.SlotIndex
	out.Remaining = res.Remaining
	if res.PastDue {
		out.Kind = PaidPastDue
		s.metrics.ChargeRecorded("pastdue")
		return out
	}

	out.Kind = PaidPunch
	s.metrics.ChargeRecorded("punch")
	s.sendPunchUsedEmail(ctx, hockeyID, res, earlyBird, starCount, false)
	return out
}

// ManualPunch settles one game for one player outside a batch, e.g. a
// walk-in or a correction. A half game still costs a full punch; the
// player is credited ten stars for the unused half.
func (s *Service) ManualPunch(ctx context.Context, playerID, date string, half bool) (PlayerOutcome, error) {
	out := PlayerOutcome{HockeyID: playerID, SlotIndex: -1}

	gameStars := starsFullGame
	if half {
		gameStars = starsHalfGame
	}
	if s.club.UseStars {
		if stars := s.roster.Stars(playerID); stars >= gameStars {
			s.roster.SetStars(playerID, stars-gameStars)
			out.Kind = PaidStars
			out.Stars = stars - gameStars
			s.metrics.ChargeRecorded("stars")
			s.sendStarsEmail(ctx, playerID, date, half)
			return out, s.persist(ctx)
		}
	}

	res, err := s.ledger.Charge(ctx, playerID, date)
	if err != nil {
		return out, err
	}
	out.SlotIndex = res.SlotIndex
	out.Remaining = res.Remaining

	starCount := s.roster.Stars(playerID)
	if res.PastDue {
		out.Kind = PaidPastDue
		out.Stars = starCount
		s.metrics.ChargeRecorded("pastdue")
		return out, s.persist(ctx)
	}

	if half {
		starCount, _ = s.roster.AddStars(playerID, starsHalfGame)
	}
	out.Kind = PaidPunch
	out.Stars = starCount
	s.metrics.ChargeRecorded("punch")
	s.sendPunchUsedEmail(ctx, playerID, res, false, starCount, half)
	return out, s.persist(ctx)
}

func (s *Service) persist(ctx context.Context) error {
	if _, err := s.ledger.Flush(ctx, false); err != nil {
		return err
	}
	return s.roster.Save()
}

// Preview reports each attendee's standing without charging anyone.
func (s *Service) Preview(date string, attendees []Attendee) []PreviewEntry {
	entries := make([]PreviewEntry, 0, len(attendees))
	for _, a := range attendees {
		hockeyID := s.xref.HockeyID(a.MeetupID)
		standing, alt := s.ledger.PaymentStanding(hockeyID)
		entries = append(entries, PreviewEntry{
			HockeyID:   hockeyID,
			MeetupName: a.MeetupName,
			Standing:   standing,
			Alternate:  alt,
			EarlyBird:  EarlyBird(a.SignupTime, date),
		})
	}
	return entries
}

func (s *Service) sendStarsEmail(ctx context.Context, playerID, date string, half bool) {
	email := s.roster.ResolveEmail(playerID)
	name := s.roster.ResolveDisplayName(playerID)
	var msg notify.Message
	if half {
		msg = notify.StarsFreeHalfGame(name, date)
	} else {
		msg = notify.StarsFreeGame(name, date)
	}
	if err := s.notifier.SendWithCopies(ctx, email, nil, msg); err != nil {
		s.logger.Warn("stars email not queued", slog.String("player", playerID), slog.Any("error", err))
		return
	}
	s.metrics.MailQueued()
}

func (s *Service) sendPunchUsedEmail(ctx context.Context, playerID string, res ledger.ChargeResult, earlyBird bool, starCount int, half bool) {
	name := s.roster.ResolveDisplayName(playerID)
	if name == "" {
		name = res.Record.OwnerName
	}
	msg := notify.PunchUsed(res.Record, notify.PunchUsedContext{
		PlayerID:       playerID,
		DisplayName:    name,
		Date:           res.Date,
		SlotIndex:      res.SlotIndex,
		UseStars:       s.club.UseStars,
		EarlyBird:      earlyBird,
		StarCount:      starCount,
		HalfPunch:      half,
		BoughtNextCard: s.ledger.OpenCardCount(playerID) > 1,
	})
	email := s.roster.ResolveEmail(playerID)
	if err := s.notifier.SendWithCopies(ctx, email, s.club.CCPunchUsed, msg); err != nil {
		s.logger.Warn("punch-used email not queued", slog.String("player", playerID), slog.Any("error", err))
		return
	}
	s.metrics.MailQueued()
}
