// Package settings holds the operator-editable club settings document.
// Unlike process configuration (environment variables), these are club
// facts an administrator edits by hand: contact addresses, cc lists and
// the star-program toggle. Services receive the struct explicitly; nothing
// reads the document ambiently.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// SettingsFile is the JSON document inside the data directory.
const SettingsFile = "club.json"

// Club is the settings document.
type Club struct {
	SystemName       string   `json:"system_name"`
	ClubEmail        string   `json:"club_email"`
	AdminContactInfo string   `json:"admin_contact_info"`
	UseStars         bool     `json:"use_stars"`
	CCPurchase       []string `json:"cc_purchase"`
	CCPunchUsed      []string `json:"cc_punchused"`
	CCLateNotice     []string `json:"cc_latenotice"`
	CCInvite         []string `json:"cc_invite"`
}

// Defaults returns the document written on first run.
func Defaults() Club {
	return Club{
		SystemName: "PunchcardSystem",
		UseStars:   true,
	}
}

// Load reads the settings document from dir, creating it with defaults
// when it does not exist yet. A malformed document is an error rather
// than a silent fallback, since a hand-edit gone wrong should be fixed,
// not ignored.
func Load(dir string) (Club, error) {
	path := filepath.Join(dir, SettingsFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		c := Defaults()
		return c, Save(dir, c)
	}
	if err != nil {
		return Club{}, fmt.Errorf("settings: read %s: %w", SettingsFile, err)
	}
	var c Club
	if err := json.Unmarshal(data, &c); err != nil {
		return Club{}, fmt.Errorf("settings: %s is not valid JSON (hand edited recently?): %w", SettingsFile, err)
	}
	return c, nil
}

// Save writes the document with stable indentation so hand edits diff
// cleanly.
func Save(dir string, c Club) error {
	data, err := json.MarshalIndent(c, "", "    ")
	if err != nil {
		return fmt.Errorf("settings: encode: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, SettingsFile), append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("settings: write %s: %w", SettingsFile, err)
	}
	return nil
}
