package ledger

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// AnomalyKind classifies what the validation pass found.
type AnomalyKind string

const (
	// AnomalyUnknownOwner flags a record whose owner the roster cannot
	// resolve. Saving with unresolved owners requires an explicit force.
	AnomalyUnknownOwner AnomalyKind = "unknown_owner"
	// AnomalyExtraCurrent flags an owner who held more than one current
	// card. The pass repairs it; the anomaly is reported for the log.
	AnomalyExtraCurrent AnomalyKind = "extra_current"
)

// Anomaly is one finding from the validation pass. Repairs are applied
// regardless; the caller decides what unresolved owners mean.
type Anomaly struct {
	Kind    AnomalyKind
	OwnerID string
}

var caseInsensitive = collate.New(language.Und, collate.IgnoreCase)

// Validate sorts the ledger into its canonical order (display name,
// case-insensitive) and repairs per-owner card state: exhausted current or
// next cards drop to previous, the first open card becomes current, and any
// further open cards become next. Missing display names are backfilled from
// the roster. The returned anomalies describe unknown owners and repaired
// double-current conditions.
func (l *Ledger) Validate(roster Roster) []Anomaly {
	sort.SliceStable(l.records, func(i, j int) bool {
		return caseInsensitive.CompareString(l.records[i].OwnerName, l.records[j].OwnerName) < 0
	})

	var anomalies []Anomaly
	seen := make(map[string]bool)
	for _, r := range l.records {
		if seen[r.OwnerID] {
			continue
		}
		seen[r.OwnerID] = true
		anomalies = append(anomalies, l.validateOwner(r.OwnerID, roster)...)
	}
	return anomalies
}

func (l *Ledger) validateOwner(playerID string, roster Roster) []Anomaly {
	var anomalies []Anomaly

	name := roster.ResolveDisplayName(playerID)
	if name == "" {
		anomalies = append(anomalies, Anomaly{Kind: AnomalyUnknownOwner, OwnerID: playerID})
	}

	currents := 0
	for _, r := range l.records {
		if r.OwnerID == playerID && r.Status == StatusCurrent {
			currents++
		}
	}
	if currents > 1 {
		anomalies = append(anomalies, Anomaly{Kind: AnomalyExtraCurrent, OwnerID: playerID})
	}

	assigned := 0
	for _, r := range l.records {
		if r.OwnerID != playerID {
			continue
		}
		if r.OwnerName == "" && name != "" {
			r.OwnerName = name
		}
		if r.Status != StatusCurrent && r.Status != StatusNext {
			continue
		}
		if _, remaining, _ := CountSlots(r); remaining == 0 {
			r.Status = StatusPrevious
			continue
		}
		if assigned == 0 {
			r.Status = StatusCurrent
		} else {
			r.Status = StatusNext
		}
		assigned++
	}
	return anomalies
}
