package ledger

// CountSlots reports how many punches a record has used, how many remain,
// and the card's total capacity. It is the single source of truth for card
// capacity: payment eligibility, balance wording in notices, and status
// rollover all go through it.
//
// A nil record counts as (0, 0, 0). The total is 10 when slot column 11
// holds the sentinel, 11 otherwise. A slot is used when it is non-empty
// and not the sentinel.
func CountSlots(r *Record) (used, remaining, total int) {
	if r == nil {
		return 0, 0, 0
	}
	total = detectFormat(r.slots[slotColumns-1]).UsableSlots()
	for i := 0; i < total; i++ {
		if v := r.slots[i]; v != "" && v != Sentinel {
			used++
		}
	}
	return used, total - used, total
}
