package service

import (
	"database/sql"
	"errors"

	"github.com/saadjs/caltrack/internal/model"
	"github.com/saadjs/caltrack/internal/nutrition"
)

// Session is the explicit replacement for a process-wide app state: the
// current profile, if any, plus the settings store.
type Session struct {
	Profile  *model.Profile
	Settings SettingsStore
}

func LoadSession(db *sql.DB) (*Session, error) {
	s := &Session{Settings: SQLSettings{DB: db}}
	p, err := CurrentProfile(db)
	switch {
	case errors.Is(err, ErrNoProfile):
	case err != nil:
		return nil, err
	default:
		s.Profile = p
	}
	return s, nil
}

// Targets returns the profile targets, or DefaultTargets before onboarding.
func (s *Session) Targets() (nutrition.Targets, bool) {
	if s == nil || s.Profile == nil {
		return DefaultTargets, false
	}
	return nutrition.TargetsOf(*s.Profile), true
}

func (s *Session) UserID() string {
	if s == nil || s.Profile == nil {
		return ""
	}
	return s.Profile.ID
}

func (s *Session) Onboarded() (bool, error) {
	if s == nil || s.Settings == nil {
		return false, nil
	}
	return OnboardingCompleted(s.Settings)
}

func (s *Session) Tolerance() (float64, error) {
	if s == nil || s.Settings == nil {
		return nutrition.DefaultTolerance, nil
	}
	return Tolerance(s.Settings)
}
