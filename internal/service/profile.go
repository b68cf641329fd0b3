package service

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/saadjs/caltrack/internal/model"
	"github.com/saadjs/caltrack/internal/nutrition"
)

// ErrNoProfile is returned when onboarding has not created a profile yet.
var ErrNoProfile = fmt.Errorf("profile %w", ErrNotFound)

// DefaultTargets are shown before a profile exists. They never feed the
// calculator.
var DefaultTargets = nutrition.Targets{Calories: 2000, ProteinG: 150, CarbsG: 250, FatG: 65}

type ProfileInput struct {
	Name          string
	Email         string
	Age           int
	Sex           model.Sex
	HeightCm      float64
	WeightKg      float64
	ActivityLevel model.ActivityLevel
	Goal          model.Goal
}

// ProfilePatch updates only the non-nil fields of the current profile.
type ProfilePatch struct {
	Name          *string
	Email         *string
	Age           *int
	Sex           *model.Sex
	HeightCm      *float64
	WeightKg      *float64
	ActivityLevel *model.ActivityLevel
	Goal          *model.Goal
}

// normalize validates the input and canonicalizes its enum values.
func (in *ProfileInput) normalize() error {
	if in.Age < 0 {
		return invalidf("age must be >= 0")
	}
	sex, err := model.ParseSex(string(in.Sex))
	if err != nil {
		return invalid(err)
	}
	if err := validatePositiveFloat("height", in.HeightCm); err != nil {
		return err
	}
	if err := validatePositiveFloat("weight", in.WeightKg); err != nil {
		return err
	}
	level, err := model.ParseActivityLevel(string(in.ActivityLevel))
	if err != nil {
		return invalid(err)
	}
	goal, err := model.ParseGoal(string(in.Goal))
	if err != nil {
		return invalid(err)
	}
	if email := strings.TrimSpace(in.Email); email != "" && !strings.Contains(email, "@") {
		return invalidf("invalid email %q", in.Email)
	}
	in.Sex, in.ActivityLevel, in.Goal = sex, level, goal
	return nil
}

// SaveProfile replaces the current profile with a new one, computes its
// targets and marks onboarding complete, all in one transaction.
func SaveProfile(db *sql.DB, in ProfileInput, now time.Time) (*model.Profile, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if now.IsZero() {
		now = time.Now()
	}
	p := model.Profile{
		ID:            uuid.NewString(),
		Name:          strings.TrimSpace(in.Name),
		Email:         strings.TrimSpace(in.Email),
		Age:           in.Age,
		Sex:           in.Sex,
		HeightCm:      in.HeightCm,
		WeightKg:      in.WeightKg,
		ActivityLevel: in.ActivityLevel,
		Goal:          in.Goal,
		CreatedAt:     now.UTC().Truncate(time.Second),
		UpdatedAt:     now.UTC().Truncate(time.Second),
	}
	nutrition.ApplyTargets(&p)

	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin profile tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM profiles`); err != nil {
		return nil, fmt.Errorf("clear previous profile: %w", err)
	}
	if err := insertProfile(tx, p); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(`UPDATE entries SET user_id = ? WHERE user_id = ''`, p.ID); err != nil {
		return nil, fmt.Errorf("attach entries to profile: %w", err)
	}
	if err := upsertConfig(tx, ConfigOnboardingCompleted, "true"); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit profile: %w", err)
	}
	return &p, nil
}

// UpdateProfile applies patch to the current profile and recomputes targets.
func UpdateProfile(db *sql.DB, patch ProfilePatch, now time.Time) (*model.Profile, error) {
	if now.IsZero() {
		now = time.Now()
	}
	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin profile tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	p, err := scanProfile(tx.QueryRow(profileSelect + ` LIMIT 1`))
	if err != nil {
		return nil, err
	}
	in := ProfileInput{
		Name: p.Name, Email: p.Email, Age: p.Age, Sex: p.Sex, HeightCm: p.HeightCm,
		WeightKg: p.WeightKg, ActivityLevel: p.ActivityLevel, Goal: p.Goal,
	}
	if patch.Name != nil {
		in.Name = *patch.Name
	}
	if patch.Email != nil {
		in.Email = *patch.Email
	}
	if patch.Age != nil {
		in.Age = *patch.Age
	}
	if patch.Sex != nil {
		in.Sex = *patch.Sex
	}
	if patch.HeightCm != nil {
		in.HeightCm = *patch.HeightCm
	}
	if patch.WeightKg != nil {
		in.WeightKg = *patch.WeightKg
	}
	if patch.ActivityLevel != nil {
		in.ActivityLevel = *patch.ActivityLevel
	}
	if patch.Goal != nil {
		in.Goal = *patch.Goal
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}

	p.Name, p.Email, p.Age, p.Sex = strings.TrimSpace(in.Name), strings.TrimSpace(in.Email), in.Age, in.Sex
	p.HeightCm, p.WeightKg, p.ActivityLevel, p.Goal = in.HeightCm, in.WeightKg, in.ActivityLevel, in.Goal
	p.UpdatedAt = now.UTC().Truncate(time.Second)
	nutrition.ApplyTargets(p)

	_, err = tx.Exec(`
UPDATE profiles SET
  name = ?, email = ?, age = ?, sex = ?, height_cm = ?, weight_kg = ?, activity_level = ?, goal = ?,
  calorie_target = ?, protein_target_g = ?, carb_target_g = ?, fat_target_g = ?, updated_at = ?
WHERE id = ?
`, p.Name, p.Email, p.Age, string(p.Sex), p.HeightCm, p.WeightKg, string(p.ActivityLevel), string(p.Goal),
		p.CalorieTarget, p.ProteinTargetG, p.CarbTargetG, p.FatTargetG, formatTime(p.UpdatedAt), p.ID)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit profile: %w", err)
	}
	return p, nil
}

// CurrentProfile returns ErrNoProfile when none has been saved.
func CurrentProfile(db *sql.DB) (*model.Profile, error) {
	return scanProfile(db.QueryRow(profileSelect + ` LIMIT 1`))
}

const profileSelect = `
SELECT id, name, email, age, sex, height_cm, weight_kg, activity_level, goal,
  calorie_target, protein_target_g, carb_target_g, fat_target_g, created_at, updated_at
FROM profiles`

func scanProfile(row *sql.Row) (*model.Profile, error) {
	var p model.Profile
	var sex, activity, goal, created, updated string
	err := row.Scan(&p.ID, &p.Name, &p.Email, &p.Age, &sex, &p.HeightCm, &p.WeightKg, &activity, &goal,
		&p.CalorieTarget, &p.ProteinTargetG, &p.CarbTargetG, &p.FatTargetG, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoProfile
	}
	if err != nil {
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	p.Sex, p.ActivityLevel, p.Goal = model.Sex(sex), model.ActivityLevel(activity), model.Goal(goal)
	if p.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &p, nil
}

func insertProfile(tx *sql.Tx, p model.Profile) error {
	_, err := tx.Exec(`
INSERT INTO profiles(id, name, email, age, sex, height_cm, weight_kg, activity_level, goal,
  calorie_target, protein_target_g, carb_target_g, fat_target_g, created_at, updated_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, p.ID, p.Name, p.Email, p.Age, string(p.Sex), p.HeightCm, p.WeightKg, string(p.ActivityLevel), string(p.Goal),
		p.CalorieTarget, p.ProteinTargetG, p.CarbTargetG, p.FatTargetG, formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}
