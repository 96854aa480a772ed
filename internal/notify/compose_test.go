package notify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skpick99/Underwater-Hockey-Punchcards/internal/ledger"
)

func cardWithPunches(n int) *ledger.Record {
	r := ledger.NewRecord()
	r.OwnerID = "p1"
	r.OwnerName = "Pat"
	r.Status = ledger.StatusCurrent
	r.PurchaseDate = "20240101"
	for i := 0; i < n; i++ {
		r.SetSlot(i, "20240105")
	}
	return r
}

func TestFormatDate(t *testing.T) {
	require.Equal(t, "01/14/2024", FormatDate("20240114"))
	require.Equal(t, "01/14/2024", FormatDate("01/14/2024"))
	require.Equal(t, "bad", FormatDate("bad"))
}

func TestPunchUsedSubjectLadder(t *testing.T) {
	base := PunchUsedContext{PlayerID: "p1", DisplayName: "Pat", Date: "20240114"}

	cases := []struct {
		punches int
		want    string
	}{
		{punches: 5, want: "5 punches remaining"},
		{punches: 8, want: "Only 2 punches remaining"},
		{punches: 9, want: "Only 1 punch left"},
		{punches: 10, want: "LAST PUNCH USED"},
	}
	for _, tc := range cases {
		msg := PunchUsed(cardWithPunches(tc.punches), base)
		require.Contains(t, msg.Subject, tc.want)
	}
}

func TestPunchUsedSubjectStaysCalmWithNextCard(t *testing.T) {
	ctx := PunchUsedContext{PlayerID: "p1", DisplayName: "Pat", Date: "20240114", BoughtNextCard: true}
	msg := PunchUsed(cardWithPunches(10), ctx)
	require.NotContains(t, msg.Subject, "LAST PUNCH USED")
	require.Contains(t, msg.Subject, "0 punches remaining")
	require.Contains(t, msg.Body, "nothing to do")
}

func TestPunchUsedBodyListsSlots(t *testing.T) {
	ctx := PunchUsedContext{PlayerID: "p1", DisplayName: "Pat", Date: "20240114", SlotIndex: 2}
	msg := PunchUsed(cardWithPunches(3), ctx)
	require.Contains(t, msg.Body, "Hi Pat")
	require.Contains(t, msg.Body, "punch number 3")
	require.Contains(t, msg.Body, "You have 7 punches remaining.")
	// Ten slot lines for a modern card, punched or not.
	require.Equal(t, 10, strings.Count(msg.Body, "\n        "))
}

func TestPunchUsedStarsParagraphs(t *testing.T) {
	ctx := PunchUsedContext{
		PlayerID: "p1", DisplayName: "Pat", Date: "20240114",
		UseStars: true, EarlyBird: true, StarCount: 7,
	}
	msg := PunchUsed(cardWithPunches(1), ctx)
	require.Contains(t, msg.Body, "earned a star")
	require.Contains(t, msg.Body, "star count to 7")

	ctx.EarlyBird = false
	msg = PunchUsed(cardWithPunches(1), ctx)
	require.Contains(t, msg.Body, "sign up by midnight on Thursday")
}

func TestPunchUsedHalfPunchNote(t *testing.T) {
	ctx := PunchUsedContext{PlayerID: "p1", DisplayName: "Pat", Date: "20240114", HalfPunch: true}
	msg := PunchUsed(cardWithPunches(1), ctx)
	require.Contains(t, msg.Body, "credited 10 stars")
}

func TestPurchaseMessage(t *testing.T) {
	prior := cardWithPunches(8)
	msg := Purchase("Pat", true, []*ledger.Record{prior})
	require.Contains(t, msg.Subject, "activated")
	require.Contains(t, msg.Body, "previously unpaid games")
	require.Contains(t, msg.Body, "has 2 slots remaining")
}

func TestPastDueMessage(t *testing.T) {
	msg := PastDue("Pat", []string{"20240105", "20240112"})
	require.Equal(t, "TIME TO PURCHASE YOUR NEXT PUNCHCARD", msg.Subject)
	require.Contains(t, msg.Body, "01/05/2024")
	require.Contains(t, msg.Body, "01/12/2024")
}

func TestStarsMessages(t *testing.T) {
	full := StarsFreeGame("Pat", "20240114")
	require.Contains(t, full.Subject, "FREE GAME")
	require.Contains(t, full.Body, "01/14/2024")

	half := StarsFreeHalfGame("Pat", "20240114")
	require.Contains(t, half.Subject, "FREE HALF GAME")
}
