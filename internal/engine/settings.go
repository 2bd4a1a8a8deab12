package engine

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	_ "modernc.org/sqlite"
)

// Settings are the user preferences persisted across sessions.
type Settings struct {
	SummaryLength  string  `json:"summaryLength"`  // short, medium, long
	OutputLanguage string  `json:"outputLanguage"` // auto, ja, en, es
	AutoSummarize  bool    `json:"autoSummarize"`
	SpeechSpeed    float64 `json:"speechSpeed"`
	VoiceURI       string  `json:"voiceURI"`
}

// DefaultSettings mirrors the defaults a fresh install starts with.
func DefaultSettings() Settings {
	return Settings{
		SummaryLength:  "medium",
		OutputLanguage: "ja",
		AutoSummarize:  false,
		SpeechSpeed:    1.0,
	}
}

var (
	settingsDB   *sql.DB
	settingsOnce sync.Once
	settingsErr  error
)

// openSettingsDB opens (or creates) the SQLite settings database.
func openSettingsDB() (*sql.DB, error) {
	settingsOnce.Do(func() {
		dbPath := cfg.SettingsDBPath
		if dbPath == "" {
			dir := filepath.Join(os.Getenv("HOME"), ".go_digest")
			if err := os.MkdirAll(dir, 0750); err != nil {
				settingsErr = fmt.Errorf("settings: mkdir %s: %w", dir, err)
				return
			}
			dbPath = filepath.Join(dir, "settings.db")
		}
		db, err := sql.Open("sqlite", dbPath)
		if err != nil {
			settingsErr = fmt.Errorf("settings: open db: %w", err)
			return
		}
		db.SetMaxOpenConns(1) // SQLite: single writer
		if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS settings (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`); err != nil {
			settingsErr = fmt.Errorf("settings: init schema: %w", err)
			return
		}
		settingsDB = db
	})
	return settingsDB, settingsErr
}

// getSetting reads one key, returning fallback when absent.
func getSetting(db *sql.DB, key, fallback string) string {
	var value string
	if err := db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value); err != nil {
		return fallback
	}
	return value
}

// LoadSettings reads all persisted preferences, applying defaults for
// anything not yet stored.
func LoadSettings() (Settings, error) {
	db, err := openSettingsDB()
	if err != nil {
		return DefaultSettings(), err
	}
	s := DefaultSettings()
	s.SummaryLength = getSetting(db, "summaryLength", s.SummaryLength)
	s.OutputLanguage = getSetting(db, "outputLanguage", s.OutputLanguage)
	s.VoiceURI = getSetting(db, "voiceURI", s.VoiceURI)
	if v := getSetting(db, "autoSummarize", ""); v != "" {
		s.AutoSummarize = v == "true"
	}
	if v := getSetting(db, "speechSpeed", ""); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			s.SpeechSpeed = f
		}
	}
	return s, nil
}

// SaveSetting persists one key-value pair.
func SaveSetting(key, value string) error {
	switch key {
	case "summaryLength", "outputLanguage", "autoSummarize", "speechSpeed", "voiceURI":
	default:
		return fmt.Errorf("settings: unknown key %q", key)
	}
	db, err := openSettingsDB()
	if err != nil {
		return err
	}
	_, err = db.Exec(`INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("settings: save %s: %w", key, err)
	}
	return nil
}

// ResolveOutputLanguage applies the "auto" rule: follow the transcript
// language when it is one of the supported codes, otherwise English.
func ResolveOutputLanguage(selected, transcriptLang string) string {
	if selected != "" && selected != "auto" {
		return selected
	}
	if transcriptLang != "" {
		base, _, _ := strings.Cut(strings.ToLower(transcriptLang), "-")
		switch base {
		case "ja", "en", "es":
			return base
		}
	}
	return "en"
}
