package gameday

import "time"

// EarlyBird reports whether a signup beat the early cutoff for the game.
// Both weekend games share one cutoff: midnight at the end of the most
// recent Thursday on or before the game date.
func EarlyBird(signup time.Time, gameDate string) bool {
	game, err := time.Parse("20060102", gameDate)
	if err != nil {
		return false
	}
	cutoff := game
	for cutoff.Weekday() != time.Thursday {
		cutoff = cutoff.AddDate(0, 0, -1)
	}
	y, m, d := signup.Date()
	signupDay := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return !signupDay.After(cutoff)
}
