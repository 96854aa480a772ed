package gameday

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEarlyBirdCutoffIsThursday(t *testing.T) {
	// 2024-01-14 is a Sunday; the cutoff is Thursday 2024-01-11.
	sunday := "20240114"

	signupWednesday := time.Date(2024, 1, 10, 18, 30, 0, 0, time.UTC)
	require.True(t, EarlyBird(signupWednesday, sunday))

	lateThursday := time.Date(2024, 1, 11, 23, 59, 0, 0, time.UTC)
	require.True(t, EarlyBird(lateThursday, sunday))

	fridayMorning := time.Date(2024, 1, 12, 0, 1, 0, 0, time.UTC)
	require.False(t, EarlyBird(fridayMorning, sunday))
}

func TestEarlyBirdFridayGameSharesCutoff(t *testing.T) {
	// Friday and Sunday games share the Thursday cutoff.
	friday := "20240112"
	thursdaySignup := time.Date(2024, 1, 11, 12, 0, 0, 0, time.UTC)
	require.True(t, EarlyBird(thursdaySignup, friday))
	fridaySignup := time.Date(2024, 1, 12, 8, 0, 0, 0, time.UTC)
	require.False(t, EarlyBird(fridaySignup, friday))
}

func TestEarlyBirdGameOnThursday(t *testing.T) {
	thursday := "20240111"
	require.True(t, EarlyBird(time.Date(2024, 1, 11, 9, 0, 0, 0, time.UTC), thursday))
	require.False(t, EarlyBird(time.Date(2024, 1, 12, 9, 0, 0, 0, time.UTC), thursday))
}

func TestEarlyBirdBadDate(t *testing.T) {
	require.False(t, EarlyBird(time.Now(), "not-a-date"))
}
