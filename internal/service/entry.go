package service

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/saadjs/caltrack/internal/model"
)

type EntryInput struct {
	UserID      string
	Name        string
	Brand       string
	Barcode     string
	ImageRef    string
	Calories    float64
	ProteinG    float64
	CarbsG      float64
	FatG        float64
	FiberG      *float64
	SugarG      *float64
	SodiumMg    *float64
	ServingSize float64
	ServingUnit string
	Quantity    float64
	MealType    model.MealType
	ConsumedAt  time.Time
	SourceType  model.SourceType
}

type ListEntriesFilter struct {
	From     time.Time
	To       time.Time
	MealType model.MealType
	Source   model.SourceType
	Query    string
	Limit    int
}

type DuplicateEntryOptions struct {
	// Now, when set, restamps the copy's ConsumedAt.
	Now *time.Time
}

func (in *EntryInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return invalidf("entry name is required")
	}
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"calories", in.Calories},
		{"protein", in.ProteinG},
		{"carbs", in.CarbsG},
		{"fat", in.FatG},
		{"quantity", in.Quantity},
	} {
		if err := validateNonNegativeFloat(f.name, f.value); err != nil {
			return err
		}
	}
	if err := validatePositiveFloat("serving size", in.ServingSize); err != nil {
		return err
	}
	for name, v := range map[string]*float64{"fiber": in.FiberG, "sugar": in.SugarG, "sodium": in.SodiumMg} {
		if err := validateOptionalFloat(name, v); err != nil {
			return err
		}
	}
	in.ServingUnit = strings.TrimSpace(in.ServingUnit)
	if in.ServingUnit == "" {
		in.ServingUnit = "g"
	}
	meal, err := model.ParseMealType(string(in.MealType))
	if err != nil {
		return invalid(err)
	}
	in.MealType = meal
	source, err := model.ParseSourceType(string(in.SourceType))
	if err != nil {
		return invalid(err)
	}
	in.SourceType = source
	if in.ConsumedAt.IsZero() {
		in.ConsumedAt = time.Now()
	}
	return nil
}

func CreateEntry(db *sql.DB, in EntryInput) (int64, error) {
	if err := in.normalize(); err != nil {
		return 0, err
	}
	now := formatTime(time.Now())
	res, err := db.Exec(`
INSERT INTO entries(user_id, name, brand, barcode, image_ref, calories, protein_g, carbs_g, fat_g, fiber_g, sugar_g, sodium_mg,
  serving_size, serving_unit, quantity, meal_type, consumed_at, source_type, created_at, updated_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, strings.TrimSpace(in.UserID), in.Name, nullableString(in.Brand), nullableString(in.Barcode), nullableString(in.ImageRef),
		in.Calories, in.ProteinG, in.CarbsG, in.FatG, nullableFloat(in.FiberG), nullableFloat(in.SugarG), nullableFloat(in.SodiumMg),
		in.ServingSize, in.ServingUnit, in.Quantity, string(in.MealType), formatTime(in.ConsumedAt), string(in.SourceType), now, now)
	if err != nil {
		return 0, fmt.Errorf("insert entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("resolve inserted entry id: %w", err)
	}
	return id, nil
}

func GetEntry(db *sql.DB, id int64) (*model.FoodEntry, error) {
	if id <= 0 {
		return nil, invalidf("entry id must be > 0")
	}
	rows, err := db.Query(entrySelect+` WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get entry %d: %w", id, err)
	}
	entries, err := scanEntries(rows)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("entry %d: %w", id, ErrNotFound)
	}
	return &entries[0], nil
}

// ListEntries returns entries newest first. From is inclusive and To exclusive.
func ListEntries(db *sql.DB, f ListEntriesFilter) ([]model.FoodEntry, error) {
	if !f.From.IsZero() && !f.To.IsZero() && !f.From.Before(f.To) {
		return nil, invalidf("from must be before to")
	}
	query := entrySelect + ` WHERE 1=1`
	args := make([]any, 0, 6)
	if !f.From.IsZero() {
		query += ` AND consumed_at >= ?`
		args = append(args, formatTime(f.From))
	}
	if !f.To.IsZero() {
		query += ` AND consumed_at < ?`
		args = append(args, formatTime(f.To))
	}
	if f.MealType != "" {
		meal, err := model.ParseMealType(string(f.MealType))
		if err != nil {
			return nil, invalid(err)
		}
		query += ` AND meal_type = ?`
		args = append(args, string(meal))
	}
	if f.Source != "" {
		query += ` AND source_type = ?`
		args = append(args, string(f.Source))
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		query += ` AND (LOWER(name) LIKE ? OR LOWER(IFNULL(brand, '')) LIKE ?)`
		like := "%" + strings.ToLower(q) + "%"
		args = append(args, like, like)
	}
	query += ` ORDER BY consumed_at DESC, id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return scanEntries(rows)
}

// EntriesBetween loads the snapshot the nutrition engine works on.
func EntriesBetween(db *sql.DB, from, to time.Time) ([]model.FoodEntry, error) {
	return ListEntries(db, ListEntriesFilter{From: from, To: to})
}

func UpdateEntry(db *sql.DB, id int64, in EntryInput) error {
	if id <= 0 {
		return invalidf("entry id must be > 0")
	}
	if in.ConsumedAt.IsZero() {
		return invalidf("consumed time is required")
	}
	if err := in.normalize(); err != nil {
		return err
	}
	res, err := db.Exec(`
UPDATE entries SET
  name = ?, brand = ?, barcode = ?, image_ref = ?, calories = ?, protein_g = ?, carbs_g = ?, fat_g = ?,
  fiber_g = ?, sugar_g = ?, sodium_mg = ?, serving_size = ?, serving_unit = ?, quantity = ?, meal_type = ?,
  consumed_at = ?, source_type = ?, updated_at = ?
WHERE id = ?
`, in.Name, nullableString(in.Brand), nullableString(in.Barcode), nullableString(in.ImageRef),
		in.Calories, in.ProteinG, in.CarbsG, in.FatG, nullableFloat(in.FiberG), nullableFloat(in.SugarG), nullableFloat(in.SodiumMg),
		in.ServingSize, in.ServingUnit, in.Quantity, string(in.MealType), formatTime(in.ConsumedAt), string(in.SourceType),
		formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("update entry %d: %w", id, err)
	}
	return requireAffected(res, fmt.Sprintf("entry %d", id))
}

func DeleteEntry(db *sql.DB, id int64) error {
	if id <= 0 {
		return invalidf("entry id must be > 0")
	}
	res, err := db.Exec(`DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete entry %d: %w", id, err)
	}
	return requireAffected(res, fmt.Sprintf("entry %d", id))
}

// DuplicateEntry copies every field of an entry into a new row.
func DuplicateEntry(db *sql.DB, id int64, opts DuplicateEntryOptions) (int64, error) {
	src, err := GetEntry(db, id)
	if err != nil {
		return 0, err
	}
	in := EntryInputFrom(*src)
	if opts.Now != nil {
		in.ConsumedAt = *opts.Now
	}
	return CreateEntry(db, in)
}

func EntryInputFrom(e model.FoodEntry) EntryInput {
	return EntryInput{
		UserID: e.UserID, Name: e.Name, Brand: e.Brand, Barcode: e.Barcode, ImageRef: e.ImageRef,
		Calories: e.Calories, ProteinG: e.ProteinG, CarbsG: e.CarbsG, FatG: e.FatG,
		FiberG: e.FiberG, SugarG: e.SugarG, SodiumMg: e.SodiumMg,
		ServingSize: e.ServingSize, ServingUnit: e.ServingUnit, Quantity: e.Quantity,
		MealType: e.MealType, ConsumedAt: e.ConsumedAt, SourceType: e.SourceType,
	}
}

func requireAffected(res sql.Result, what string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read rows affected for %s: %w", what, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}

const entrySelect = `
SELECT id, user_id, name, IFNULL(brand, ''), IFNULL(barcode, ''), IFNULL(image_ref, ''),
  calories, protein_g, carbs_g, fat_g, fiber_g, sugar_g, sodium_mg,
  serving_size, serving_unit, quantity, meal_type, consumed_at, source_type, created_at, updated_at
FROM entries`

func scanEntries(rows *sql.Rows) ([]model.FoodEntry, error) {
	defer rows.Close()
	entries := make([]model.FoodEntry, 0)
	for rows.Next() {
		var e model.FoodEntry
		var fiber, sugar, sodium sql.NullFloat64
		var meal, source, consumed, created, updated string
		if err := rows.Scan(&e.ID, &e.UserID, &e.Name, &e.Brand, &e.Barcode, &e.ImageRef,
			&e.Calories, &e.ProteinG, &e.CarbsG, &e.FatG, &fiber, &sugar, &sodium,
			&e.ServingSize, &e.ServingUnit, &e.Quantity, &meal, &consumed, &source, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.FiberG, e.SugarG, e.SodiumMg = optionalFloat(fiber), optionalFloat(sugar), optionalFloat(sodium)
		e.MealType, e.SourceType = model.MealType(meal), model.SourceType(source)
		var err error
		if e.ConsumedAt, err = parseTime(consumed); err != nil {
			return nil, fmt.Errorf("entry %d consumed_at: %w", e.ID, err)
		}
		if e.CreatedAt, err = parseTime(created); err != nil {
			return nil, fmt.Errorf("entry %d created_at: %w", e.ID, err)
		}
		if e.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, fmt.Errorf("entry %d updated_at: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

func optionalFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

// IsNotFound reports whether err came from a lookup that matched nothing.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
