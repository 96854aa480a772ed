package roster

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), testLogger())
	require.NoError(t, err)
	return s
}

func TestStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir, testLogger())
	require.NoError(t, err)

	require.NoError(t, s.Add(Player{
		ID: "p1", DisplayName: "Pat", FirstName: "Pat", LastName: "Smith",
		Email: "pat@example.com", Phone: "555-0101", Stars: 3, CumulativeStars: 23,
	}))
	require.NoError(t, s.Save())

	reloaded, err := NewStore(dir, testLogger())
	require.NoError(t, err)
	require.Equal(t, "Pat", reloaded.ResolveDisplayName("p1"))
	require.Equal(t, "pat@example.com", reloaded.ResolveEmail("p1"))
	require.Equal(t, 3, reloaded.Stars("p1"))
	players := reloaded.Players()
	require.Len(t, players, 1)
	require.Equal(t, 23, players[0].CumulativeStars)
}

func TestSaveSortsByDisplayName(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir, testLogger())
	require.NoError(t, err)
	require.NoError(t, s.Add(Player{ID: "p1", DisplayName: "zoe"}))
	require.NoError(t, s.Add(Player{ID: "p2", DisplayName: "Alice"}))
	require.NoError(t, s.Save())

	reloaded, err := NewStore(dir, testLogger())
	require.NoError(t, err)
	players := reloaded.Players()
	require.Equal(t, "Alice", players[0].DisplayName)
	require.Equal(t, "zoe", players[1].DisplayName)
}

func TestAddRejectsDuplicate(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Add(Player{ID: "p1", DisplayName: "Pat"}))
	require.ErrorIs(t, s.Add(Player{ID: "p1", DisplayName: "Other"}), ErrDuplicatePlayer)
}

func TestUnknownPlayerLookups(t *testing.T) {
	s := newTestStore(t)
	require.Empty(t, s.ResolveDisplayName("ghost"))
	require.Empty(t, s.ResolveEmail("ghost"))
	require.Zero(t, s.Stars("ghost"))
	require.False(t, s.Has("ghost"))
	require.False(t, s.SetStars("ghost", 5))
	_, ok := s.AddStars("ghost", 1)
	require.False(t, ok)
}

func TestAddStarsCreditsBothBalances(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Add(Player{ID: "p1", DisplayName: "Pat", Stars: 19, CumulativeStars: 19}))

	stars, ok := s.AddStars("p1", 1)
	require.True(t, ok)
	require.Equal(t, 20, stars)

	// Spending stars only touches the spendable balance.
	require.True(t, s.SetStars("p1", 0))
	players := s.Players()
	require.Equal(t, 0, players[0].Stars)
	require.Equal(t, 20, players[0].CumulativeStars)
}

func TestFindMatchesDisplayNameFirst(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Add(Player{ID: "p1", DisplayName: "Deep Diver", FirstName: "Alex", LastName: "Smith"}))
	require.NoError(t, s.Add(Player{ID: "p2", DisplayName: "Shark", FirstName: "Diver", LastName: "Jones"}))

	byDisplay := s.Find("deep")
	require.Len(t, byDisplay, 1)
	require.Equal(t, "p1", byDisplay[0].ID)

	// Display-name matches suppress the first/last fallback.
	both := s.Find("diver")
	require.Len(t, both, 1)
	require.Equal(t, "p1", both[0].ID)

	byName := s.Find("jones")
	require.Len(t, byName, 1)
	require.Equal(t, "p2", byName[0].ID)
}

func TestLoadTreatsBadStarCountAsZero(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir, testLogger())
	require.NoError(t, err)
	require.NoError(t, s.Add(Player{ID: "p1", DisplayName: "Pat"}))
	require.NoError(t, s.Save())

	// Corrupt the star column by hand.
	data, err := os.ReadFile(dir + "/" + RosterFile)
	require.NoError(t, err)
	corrupted := []byte(string(data[:len(data)-4]) + "x\tx\n")
	require.NoError(t, os.WriteFile(dir+"/"+RosterFile, corrupted, 0o644))

	reloaded, err := NewStore(dir, testLogger())
	require.NoError(t, err)
	require.Zero(t, reloaded.Stars("p1"))
}
