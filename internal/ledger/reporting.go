package ledger

import "sort"

// PlayerPunchCount is one player's punch usage inside a reporting window.
type PlayerPunchCount struct {
	PlayerID    string
	DisplayName string
	Punches     int
}

// CountPunchesInRange tallies punches per player across the given records
// (open ledger plus history) whose slot dates fall inside the inclusive
// range, and counts the distinct session dates seen. Dates compare
// lexically, which is exact for the YYYYMMDD convention the tables use.
func CountPunchesInRange(records []*Record, startDate, endDate string) ([]PlayerPunchCount, int) {
	counts := make(map[string]*PlayerPunchCount)
	sessions := make(map[string]bool)

	for _, r := range records {
		for i := 0; i < r.Format.UsableSlots(); i++ {
			v := r.Slot(i)
			if v == "" || v == Sentinel {
				continue
			}
			if v < startDate || v > endDate {
				continue
			}
			sessions[v] = true
			c, ok := counts[r.OwnerID]
			if !ok {
				c = &PlayerPunchCount{PlayerID: r.OwnerID, DisplayName: r.OwnerName}
				counts[r.OwnerID] = c
			}
			c.Punches++
		}
	}

	out := make([]PlayerPunchCount, 0, len(counts))
	for _, c := range counts {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Punches != out[j].Punches {
			return out[i].Punches > out[j].Punches
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	return out, len(sessions)
}

// PrepaidPunchCount is the number of punches purchased but not yet used on
// current and next cards: the club's outstanding liability.
func (l *Ledger) PrepaidPunchCount() int {
	count := 0
	for _, r := range l.records {
		if r.Status != StatusCurrent && r.Status != StatusNext {
			continue
		}
		_, remaining, _ := CountSlots(r)
		count += remaining
	}
	return count
}

// DuplicateCharge is a pair of adjacent identical slot dates on one card,
// usually a sign of a manual-entry slip.
type DuplicateCharge struct {
	OwnerID string
	Date    string
}

// DuplicateCharges scans every card for the same date punched twice in a
// row. Detection stays an offline report; charge time does not reject
// duplicates, since shared cards legitimately carry them.
func (l *Ledger) DuplicateCharges() []DuplicateCharge {
	var dups []DuplicateCharge
	for _, r := range l.records {
		prev := ""
		for i := 0; i < slotColumns; i++ {
			v := r.slots[i]
			if v != "" && v != Sentinel && v == prev {
				dups = append(dups, DuplicateCharge{OwnerID: r.OwnerID, Date: v})
			}
			prev = v
		}
	}
	return dups
}
