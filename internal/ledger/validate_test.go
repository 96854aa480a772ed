package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateSortsByDisplayNameCaseInsensitive(t *testing.T) {
	l := New()
	l.Append(modernCard("p3", StatusCurrent))
	l.Records()[0].OwnerName = "zoe"
	l.Append(modernCard("p1", StatusCurrent))
	l.Records()[1].OwnerName = "Alice"
	l.Append(modernCard("p2", StatusCurrent))
	l.Records()[2].OwnerName = "bob"

	roster := &fakeRoster{names: map[string]string{"p1": "Alice", "p2": "bob", "p3": "zoe"}}
	l.Validate(roster)

	require.Equal(t, "Alice", l.Records()[0].OwnerName)
	require.Equal(t, "bob", l.Records()[1].OwnerName)
	require.Equal(t, "zoe", l.Records()[2].OwnerName)
}

func TestValidateRepairsDoubleCurrent(t *testing.T) {
	l := New()
	first := modernCard("p1", StatusCurrent, "20240101")
	second := modernCard("p1", StatusCurrent)
	l.Append(first)
	l.Append(second)

	roster := &fakeRoster{names: map[string]string{"p1": "Pat"}}
	anomalies := l.Validate(roster)

	require.Equal(t, StatusCurrent, first.Status)
	require.Equal(t, StatusNext, second.Status)
	require.Len(t, anomalies, 1)
	require.Equal(t, AnomalyExtraCurrent, anomalies[0].Kind)
	require.Equal(t, "p1", anomalies[0].OwnerID)
}

func TestValidateDropsExhaustedCurrentAndPromotesNext(t *testing.T) {
	l := New()
	exhausted := modernCard("p1", StatusCurrent)
	for i := 0; i < 10; i++ {
		exhausted.SetSlot(i, "20240101")
	}
	waiting := modernCard("p1", StatusNext)
	l.Append(exhausted)
	l.Append(waiting)

	roster := &fakeRoster{names: map[string]string{"p1": "Pat"}}
	anomalies := l.Validate(roster)

	require.Empty(t, anomalies)
	require.Equal(t, StatusPrevious, exhausted.Status)
	require.Equal(t, StatusCurrent, waiting.Status)
}

func TestValidateReportsUnknownOwner(t *testing.T) {
	l := New()
	l.Append(modernCard("ghost", StatusCurrent))

	anomalies := l.Validate(&fakeRoster{})
	require.Len(t, anomalies, 1)
	require.Equal(t, AnomalyUnknownOwner, anomalies[0].Kind)
	require.Equal(t, "ghost", anomalies[0].OwnerID)
}

func TestValidateBackfillsDisplayName(t *testing.T) {
	l := New()
	r := modernCard("p1", StatusCurrent)
	r.OwnerName = ""
	l.Append(r)

	roster := &fakeRoster{names: map[string]string{"p1": "Pat"}}
	require.Empty(t, l.Validate(roster))
	require.Equal(t, "Pat", r.OwnerName)
}

func TestValidateLeavesPastDueAlone(t *testing.T) {
	l := New()
	pd := modernCard("p1", StatusPastDue, "20240101")
	l.Append(pd)

	roster := &fakeRoster{names: map[string]string{"p1": "Pat"}}
	require.Empty(t, l.Validate(roster))
	require.Equal(t, StatusPastDue, pd.Status)
}
