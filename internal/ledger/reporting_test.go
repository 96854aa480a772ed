package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCountPunchesInRangeSortsByUsage(t *testing.T) {
	records := []*Record{
		modernCard("p1", StatusCurrent, "20240105"),
		modernCard("p2", StatusCurrent, "20240105", "20240112", "20240119"),
		modernCard("p3", StatusPrevious, "20231201"),
	}
	counts, sessions := CountPunchesInRange(records, "20240101", "20240131")
	require.Len(t, counts, 2)
	require.Equal(t, "p2", counts[0].PlayerID)
	require.Equal(t, 3, counts[0].Punches)
	require.Equal(t, "p1", counts[1].PlayerID)
	require.Equal(t, 3, sessions)
}

func TestCountPunchesInRangeTiesBreakOnPlayerID(t *testing.T) {
	records := []*Record{
		modernCard("pb", StatusCurrent, "20240105"),
		modernCard("pa", StatusCurrent, "20240112"),
	}
	counts, _ := CountPunchesInRange(records, "20240101", "20240131")
	require.Equal(t, "pa", counts[0].PlayerID)
	require.Equal(t, "pb", counts[1].PlayerID)
}

func TestCountPunchesInRangeIgnoresSentinel(t *testing.T) {
	legacy := legacyCard("p1", StatusPrevious)
	legacy.SetSlot(10, "20240105")
	counts, sessions := CountPunchesInRange([]*Record{legacy, NewRecord()}, "20240101", "20240131")
	require.Len(t, counts, 1)
	require.Equal(t, 1, sessions)
}

func TestPrepaidPunchCount(t *testing.T) {
	l := New()
	l.Append(modernCard("p1", StatusCurrent, "20240101", "20240108"))
	l.Append(modernCard("p1", StatusNext))
	l.Append(modernCard("p2", StatusPastDue, "20240101"))
	l.Append(modernCard("p3", StatusPrevious))

	// 8 left on the current card plus a fresh next card.
	require.Equal(t, 18, l.PrepaidPunchCount())
}

func TestDuplicateCharges(t *testing.T) {
	l := New()
	l.Append(modernCard("p1", StatusCurrent, "20240105", "20240105", "20240112"))
	l.Append(modernCard("p2", StatusCurrent, "20240105", "20240112"))

	dups := l.DuplicateCharges()
	require.Len(t, dups, 1)
	require.Equal(t, "p1", dups[0].OwnerID)
	require.Equal(t, "20240105", dups[0].Date)
}

func TestDuplicateChargesIgnoresNonAdjacent(t *testing.T) {
	l := New()
	l.Append(modernCard("p1", StatusCurrent, "20240105", "20240112", "20240105"))
	require.Empty(t, l.DuplicateCharges())
}
