// Package notify composes the club's transactional emails and hands them
// to the mail queue. Core ledger code never formats or sends mail; it
// passes the mutated record, slot and date here.
package notify

import (
	"fmt"
	"strings"

	"github.com/skpick99/Underwater-Hockey-Punchcards/internal/ledger"
)

// Message is a composed email ready for the queue.
type Message struct {
	Subject string
	Body    string
}

// FormatDate renders the table's YYYYMMDD dates as MM/DD/YYYY for email
// bodies. Dates already containing a slash pass through unchanged.
func FormatDate(d string) string {
	if len(d) == 8 && !strings.Contains(d, "/") {
		return d[4:6] + "/" + d[6:8] + "/" + d[0:4]
	}
	return d
}

// PunchUsedContext carries everything the punch-used email needs beyond
// the mutated record itself.
type PunchUsedContext struct {
	PlayerID    string
	DisplayName string
	Date        string
	SlotIndex   int
	UseStars    bool
	EarlyBird   bool
	StarCount   int
	HalfPunch   bool
	// BoughtNextCard suppresses the buy-soon nagging when the player
	// already has another open card waiting.
	BoughtNextCard bool
}

// PunchUsed composes the balance-remaining email sent after a punch.
// The subject escalates as the card runs out.
func PunchUsed(rec *ledger.Record, ctx PunchUsedContext) Message {
	_, remaining, total := ledger.CountSlots(rec)

	subject := fmt.Sprintf("Underwater Hockey punchcard used on %s. You have %d punches remaining.",
		FormatDate(ctx.Date), remaining)
	if !ctx.BoughtNextCard {
		switch remaining {
		case 2:
			subject = "UWH: Only 2 punches remaining. Information on upgrading enclosed."
		case 1:
			subject = "UWH: Only 1 punch left *** Please.Buy.Your.Next.Punchcard.Soon ***"
		case 0:
			subject = "UWH: ***** LAST PUNCH USED ***** TIME TO BUY YOUR NEXT PUNCHCARD *****"
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", ctx.DisplayName)
	fmt.Fprintf(&b, "You played Underwater Hockey on %s. We hope you enjoyed the game.\n\n", FormatDate(ctx.Date))

	if ctx.UseStars {
		if ctx.EarlyBird {
			fmt.Fprintf(&b, "You signed up by Thursday and earned a star, bringing your current star count to %d.\n", ctx.StarCount)
		} else {
			b.WriteString("FYI, if you know you're playing in advance and sign up by midnight on Thursday, you'll earn a star.\n")
			if ctx.StarCount > 0 {
				fmt.Fprintf(&b, "Your current star count is %d.\n", ctx.StarCount)
			}
		}
		b.WriteString("Collect 20 stars and you'll get a free game of Underwater Hockey.\n\n")
	}

	fmt.Fprintf(&b, "You used punch number %d on the punchcard you purchased on %s\n", ctx.SlotIndex+1, rec.PurchaseDate)
	if ctx.HalfPunch {
		b.WriteString("You were only charged for a partial game. You were credited 10 stars (half of a free game) because we can't do partial punches.\n")
	}
	for i := 0; i < total; i++ {
		fmt.Fprintf(&b, "%10d %s\n", i+1, FormatDate(rec.Slot(i)))
	}
	fmt.Fprintf(&b, "You have %d punches remaining.", remaining)

	if remaining == 0 {
		if ctx.BoughtNextCard {
			b.WriteString(textNoBuyRequired)
		} else {
			b.WriteString(textBuyNow)
		}
	}

	b.WriteString("\n\nThanks for being part of our community.  Have a great day.\n")
	return Message{Subject: subject, Body: b.String()}
}

// StarsFreeGame composes the email for a game fully paid with stars.
func StarsFreeGame(displayName, date string) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", displayName)
	fmt.Fprintf(&b, "You played a FREE game of Underwater Hockey on %s.\n\n", FormatDate(date))
	b.WriteString(textStarUse)
	return Message{
		Subject: "You just played a FREE GAME of Underwater Hockey using your Early Signup stars!",
		Body:    b.String(),
	}
}

// StarsFreeHalfGame composes the email for a half game paid with stars.
func StarsFreeHalfGame(displayName, date string) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", displayName)
	fmt.Fprintf(&b, "You played a FREE half game of Underwater Hockey on %s.\n\n", FormatDate(date))
	b.WriteString(textStarUse)
	return Message{
		Subject: "You just played a FREE HALF GAME of Underwater Hockey using your Early Signup stars!",
		Body:    b.String(),
	}
}

// Purchase composes the confirmation sent when a punchcard is activated.
func Purchase(displayName string, fromPastDue bool, priorCurrent []*ledger.Record) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", displayName)
	b.WriteString(textPurchase)

	if fromPastDue {
		b.WriteString("We applied any previously unpaid games to the punchcard and they will appear in your next gameday email.\n")
	}
	if len(priorCurrent) > 0 {
		prev := priorCurrent[0]
		_, remaining, _ := ledger.CountSlots(prev)
		fmt.Fprintf(&b, "Your previous punchcard (purchased on %s) has %d slots remaining. We will finish it up first so you won't lose any plays.\n",
			prev.PurchaseDate, remaining)
	}
	b.WriteString("\nThanks for supporting Underwater Hockey.  We'll see you on the bottom.\n")
	return Message{
		Subject: "Your new Underwater Hockey punchcard has been activated!",
		Body:    b.String(),
	}
}

// PastDue composes the reminder listing the player's unpaid play dates.
func PastDue(displayName string, playDates []string) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", displayName)
	b.WriteString("Our records show you have not paid for the following hockey games:\n")
	for _, d := range playDates {
		fmt.Fprintf(&b, "      %s\n", FormatDate(d))
	}
	b.WriteString("\n")
	b.WriteString(textPastDue)
	return Message{
		Subject: "TIME TO PURCHASE YOUR NEXT PUNCHCARD",
		Body:    b.String(),
	}
}

// Invite composes the invitation for a prospective member.
func Invite() Message {
	return Message{
		Subject: "Please join the Underwater Hockey punchcard program",
		Body:    textInvite,
	}
}
