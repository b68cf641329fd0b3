package service

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/saadjs/caltrack/internal/nutrition"
)

const (
	ConfigOnboardingCompleted = "onboarding.completed"
	ConfigTolerance           = "tracking.tolerance"
	ConfigBarcodeProvider     = "barcode.provider"
	ConfigDetectProvider      = "detect.provider"
)

// SettingsStore persists small user flags between runs.
type SettingsStore interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// SQLSettings stores settings in the app_config table.
type SQLSettings struct {
	DB *sql.DB
}

func (s SQLSettings) Get(key string) (string, bool, error) { return GetConfig(s.DB, key) }
func (s SQLSettings) Set(key, value string) error         { return SetConfig(s.DB, key, value) }

func SetConfig(db *sql.DB, key, value string) error {
	key = strings.TrimSpace(strings.ToLower(key))
	if key == "" {
		return invalidf("config key is required")
	}
	if err := validateConfigValue(key, strings.TrimSpace(value)); err != nil {
		return err
	}
	return upsertConfig(db, key, strings.TrimSpace(value))
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// upsertConfig writes one app_config row through a db or an open tx.
func upsertConfig(ex execer, key, value string) error {
	_, err := ex.Exec(`
INSERT INTO app_config(key, value, updated_at)
VALUES(?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at
`, key, value)
	if err != nil {
		return fmt.Errorf("set config %q: %w", key, err)
	}
	return nil
}

func GetConfig(db *sql.DB, key string) (string, bool, error) {
	key = strings.TrimSpace(strings.ToLower(key))
	if key == "" {
		return "", false, invalidf("config key is required")
	}
	var value string
	err := db.QueryRow(`SELECT value FROM app_config WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get config %q: %w", key, err)
	}
	return value, true, nil
}

func ListConfig(db *sql.DB) (map[string]string, error) {
	rows, err := db.Query(`SELECT key, value FROM app_config ORDER BY key ASC`)
	if err != nil {
		return nil, fmt.Errorf("list config: %w", err)
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan config: %w", err)
		}
		out[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate config: %w", err)
	}
	return out, nil
}

func validateConfigValue(key, value string) error {
	switch key {
	case ConfigOnboardingCompleted:
		if _, err := strconv.ParseBool(value); err != nil {
			return invalidf("%s must be true or false", key)
		}
	case ConfigTolerance:
		v, err := strconv.ParseFloat(value, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 || v >= 1 {
			return invalidf("%s must be a fraction between 0 and 1", key)
		}
	case ConfigBarcodeProvider:
		if _, err := ParseBarcodeProvider(value); err != nil {
			return err
		}
	case ConfigDetectProvider:
		if value != DetectProviderMock && value != DetectProviderRekognition {
			return invalidf("%s must be %s or %s", key, DetectProviderMock, DetectProviderRekognition)
		}
	}
	return nil
}

func OnboardingCompleted(s SettingsStore) (bool, error) {
	v, ok, err := s.Get(ConfigOnboardingCompleted)
	if err != nil || !ok {
		return false, err
	}
	done, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", ConfigOnboardingCompleted, err)
	}
	return done, nil
}

func SetOnboardingCompleted(s SettingsStore, done bool) error {
	return s.Set(ConfigOnboardingCompleted, strconv.FormatBool(done))
}

// Tolerance returns the on-track band, falling back to the default.
func Tolerance(s SettingsStore) (float64, error) {
	v, ok, err := s.Get(ConfigTolerance)
	if err != nil {
		return 0, err
	}
	if !ok {
		return nutrition.DefaultTolerance, nil
	}
	t, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", ConfigTolerance, err)
	}
	return t, nil
}
