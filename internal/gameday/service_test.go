package gameday

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skpick99/Underwater-Hockey-Punchcards/internal/ledger"
	"github.com/skpick99/Underwater-Hockey-Punchcards/internal/notify"
	"github.com/skpick99/Underwater-Hockey-Punchcards/internal/settings"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type fakeRoster struct {
	names  map[string]string
	emails map[string]string
	stars  map[string]int
	cum    map[string]int
	saves  int
}

func newFakeRoster() *fakeRoster {
	return &fakeRoster{
		names:  make(map[string]string),
		emails: make(map[string]string),
		stars:  make(map[string]int),
		cum:    make(map[string]int),
	}
}

func (f *fakeRoster) ResolveDisplayName(id string) string { return f.names[id] }
func (f *fakeRoster) ResolveEmail(id string) string       { return f.emails[id] }
func (f *fakeRoster) Has(id string) bool                  { _, ok := f.names[id]; return ok }
func (f *fakeRoster) Stars(id string) int                 { return f.stars[id] }

func (f *fakeRoster) SetStars(id string, stars int) bool {
	if !f.Has(id) {
		return false
	}
	f.stars[id] = stars
	return true
}

func (f *fakeRoster) AddStars(id string, n int) (int, bool) {
	if !f.Has(id) {
		return 0, false
	}
	f.stars[id] += n
	f.cum[id] += n
	return f.stars[id], true
}

func (f *fakeRoster) Save() error {
	f.saves++
	return nil
}

type sentMail struct {
	to  string
	cc  []string
	msg notify.Message
}

type fakeNotifier struct {
	sent []sentMail
}

func (f *fakeNotifier) SendWithCopies(_ context.Context, to string, cc []string, msg notify.Message) error {
	f.sent = append(f.sent, sentMail{to: to, cc: cc, msg: msg})
	return nil
}

type fixture struct {
	service  *Service
	ledger   *ledger.Ledger
	roster   *fakeRoster
	notifier *fakeNotifier
}

func newFixture(t *testing.T, club settings.Club) *fixture {
	t.Helper()
	logger := testLogger()
	led := ledger.New()
	store := ledger.NewStore(t.TempDir(), logger)
	roster := newFakeRoster()
	lsvc := ledger.NewService(led, store, ledger.NewFileHistory(store), roster, logger)
	xref, err := NewXref(t.TempDir(), logger)
	require.NoError(t, err)
	notifier := &fakeNotifier{}
	svc := NewService(lsvc, roster, xref, notifier, club, nil, logger)
	return &fixture{service: svc, ledger: led, roster: roster, notifier: notifier}
}

func (fx *fixture) addPlayer(id, name, email string, stars int) {
	fx.roster.names[id] = name
	fx.roster.emails[id] = email
	fx.roster.stars[id] = stars
}

func (fx *fixture) addCurrentCard(id string, dates ...string) *ledger.Record {
	r := ledger.NewRecord()
	r.OwnerID = id
	r.OwnerName = fx.roster.names[id]
	r.Status = ledger.StatusCurrent
	for i, d := range dates {
		r.SetSlot(i, d)
	}
	fx.ledger.Append(r)
	return r
}

var clubWithStars = settings.Club{UseStars: true, CCPunchUsed: []string{"treasurer@example.com"}}

func TestProcessChargesPunchAndNotifies(t *testing.T) {
	fx := newFixture(t, clubWithStars)
	fx.addPlayer("p1", "Pat", "pat@example.com", 0)
	fx.addCurrentCard("p1")

	res, err := fx.service.Process(context.Background(), "20240114",
		[]Attendee{{MeetupID: "p1", MeetupName: "Pat"}}, false)
	require.NoError(t, err)
	require.Len(t, res.Players, 1)
	require.Equal(t, PaidPunch, res.Players[0].Kind)
	require.Equal(t, 0, res.Players[0].SlotIndex)
	require.Equal(t, 9, res.Players[0].Remaining)
	require.NotEmpty(t, res.BatchID)
	require.Equal(t, 1, fx.roster.saves)

	require.Len(t, fx.notifier.sent, 1)
	require.Equal(t, "pat@example.com", fx.notifier.sent[0].to)
	require.Equal(t, []string{"treasurer@example.com"}, fx.notifier.sent[0].cc)
}

func TestProcessPaysWithStars(t *testing.T) {
	fx := newFixture(t, clubWithStars)
	fx.addPlayer("p1", "Pat", "pat@example.com", 21)
	fx.addCurrentCard("p1")

	res, err := fx.service.Process(context.Background(), "20240114",
		[]Attendee{{MeetupID: "p1", MeetupName: "Pat"}}, false)
	require.NoError(t, err)
	require.Equal(t, PaidStars, res.Players[0].Kind)
	require.Equal(t, 1, fx.roster.stars["p1"])

	// The card was not punched.
	require.Empty(t, fx.ledger.Records()[0].Slot(0))
	require.Len(t, fx.notifier.sent, 1)
	require.Contains(t, fx.notifier.sent[0].msg.Subject, "FREE GAME")
}

func TestProcessEarlyBirdEarnsStar(t *testing.T) {
	fx := newFixture(t, clubWithStars)
	fx.addPlayer("p1", "Pat", "pat@example.com", 5)
	fx.addCurrentCard("p1")

	// 2024-01-14 is a Sunday; Wednesday signup beats the Thursday cutoff.
	signup := time.Date(2024, 1, 10, 18, 0, 0, 0, time.UTC)
	res, err := fx.service.Process(context.Background(), "20240114",
		[]Attendee{{MeetupID: "p1", MeetupName: "Pat", SignupTime: signup}}, false)
	require.NoError(t, err)
	require.True(t, res.Players[0].EarlyBird)
	require.Equal(t, 6, fx.roster.stars["p1"])
	require.Equal(t, 6, res.Players[0].Stars)
}

func TestProcessStarsDisabledByClubSetting(t *testing.T) {
	fx := newFixture(t, settings.Club{UseStars: false})
	fx.addPlayer("p1", "Pat", "pat@example.com", 50)
	fx.addCurrentCard("p1")

	res, err := fx.service.Process(context.Background(), "20240114",
		[]Attendee{{MeetupID: "p1", MeetupName: "Pat"}}, false)
	require.NoError(t, err)
	require.Equal(t, PaidPunch, res.Players[0].Kind)
	require.Equal(t, 50, fx.roster.stars["p1"])
}

func TestProcessRefusesDoubleGameday(t *testing.T) {
	fx := newFixture(t, clubWithStars)
	fx.addPlayer("p1", "Pat", "pat@example.com", 0)
	fx.addCurrentCard("p1", "20240114")

	_, err := fx.service.Process(context.Background(), "20240114",
		[]Attendee{{MeetupID: "p1", MeetupName: "Pat"}}, false)
	require.ErrorIs(t, err, ledger.ErrAlreadyProcessed)

	// Override pushes through.
	res, err := fx.service.Process(context.Background(), "20240114",
		[]Attendee{{MeetupID: "p1", MeetupName: "Pat"}}, true)
	require.NoError(t, err)
	require.Equal(t, PaidPunch, res.Players[0].Kind)
}

func TestProcessFallsBackToPastDue(t *testing.T) {
	fx := newFixture(t, clubWithStars)
	fx.addPlayer("p1", "Pat", "pat@example.com", 0)

	res, err := fx.service.Process(context.Background(), "20240114",
		[]Attendee{{MeetupID: "p1", MeetupName: "Pat"}}, false)
	require.NoError(t, err)
	require.Equal(t, PaidPastDue, res.Players[0].Kind)
	// No punch-used email for a past-due charge.
	require.Empty(t, fx.notifier.sent)
}

func TestProcessUnknownPlayerIsUnpaid(t *testing.T) {
	fx := newFixture(t, clubWithStars)

	res, err := fx.service.Process(context.Background(), "20240114",
		[]Attendee{{MeetupID: "stranger", MeetupName: "Stranger"}}, false)
	require.NoError(t, err)
	require.Equal(t, PaidNone, res.Players[0].Kind)
	require.Empty(t, fx.ledger.Records())
}

func TestProcessResolvesMeetupIDThroughXref(t *testing.T) {
	fx := newFixture(t, clubWithStars)
	fx.addPlayer("hockey1", "Pat", "pat@example.com", 0)
	fx.addCurrentCard("hockey1")
	require.NoError(t, fx.service.xref.Add("Pat M", "meetup99", "hockey1"))

	res, err := fx.service.Process(context.Background(), "20240114",
		[]Attendee{{MeetupID: "meetup99", MeetupName: "Pat M"}}, false)
	require.NoError(t, err)
	require.Equal(t, "hockey1", res.Players[0].HockeyID)
	require.Equal(t, PaidPunch, res.Players[0].Kind)
}

func TestManualPunchHalfCreditsStars(t *testing.T) {
	fx := newFixture(t, clubWithStars)
	fx.addPlayer("p1", "Pat", "pat@example.com", 0)
	fx.addCurrentCard("p1")

	out, err := fx.service.ManualPunch(context.Background(), "p1", "20240114", true)
	require.NoError(t, err)
	require.Equal(t, PaidPunch, out.Kind)
	require.Equal(t, 10, fx.roster.stars["p1"])
	require.Len(t, fx.notifier.sent, 1)
	require.True(t, strings.Contains(fx.notifier.sent[0].msg.Body, "credited 10 stars"))
}

func TestManualPunchHalfPaidWithTenStars(t *testing.T) {
	fx := newFixture(t, clubWithStars)
	fx.addPlayer("p1", "Pat", "pat@example.com", 10)
	fx.addCurrentCard("p1")

	out, err := fx.service.ManualPunch(context.Background(), "p1", "20240114", true)
	require.NoError(t, err)
	require.Equal(t, PaidStars, out.Kind)
	require.Zero(t, fx.roster.stars["p1"])
	require.Empty(t, fx.ledger.Records()[0].Slot(0))
	require.Contains(t, fx.notifier.sent[0].msg.Subject, "HALF GAME")
}

func TestManualPunchUnknownPlayer(t *testing.T) {
	fx := newFixture(t, clubWithStars)
	_, err := fx.service.ManualPunch(context.Background(), "ghost", "20240114", false)
	require.ErrorIs(t, err, ledger.ErrUnknownPlayer)
}

func TestPreviewReportsStandings(t *testing.T) {
	fx := newFixture(t, clubWithStars)
	fx.addPlayer("p1", "Pat", "pat@example.com", 0)
	fx.addCurrentCard("p1")

	signup := time.Date(2024, 1, 10, 18, 0, 0, 0, time.UTC)
	entries := fx.service.Preview("20240114", []Attendee{
		{MeetupID: "p1", MeetupName: "Pat", SignupTime: signup},
		{MeetupID: "p2", MeetupName: "Stranger"},
	})
	require.Len(t, entries, 2)
	require.Equal(t, ledger.StandingPunchcard, entries[0].Standing)
	require.True(t, entries[0].EarlyBird)
	require.Equal(t, ledger.StandingNone, entries[1].Standing)
}
