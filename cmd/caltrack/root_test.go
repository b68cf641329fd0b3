package caltrack

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/saadjs/caltrack/internal/service"
)

// run executes the root command in-process. Flag values and their Changed
// state outlive a single Execute, so every flag is reset first.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	if err != nil {
		t.Fatalf("caltrack %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func testDBPath(t *testing.T) string {
	t.Helper()
	t.Setenv("CALTRACK_LOG_LEVEL", "error")
	t.Setenv("EDAMAM_APP_ID", "")
	t.Setenv("EDAMAM_APP_KEY", "")
	t.Setenv("USDA_API_KEY", "")
	return filepath.Join(t.TempDir(), "caltrack.db")
}

func TestRootHelp(t *testing.T) {
	out := mustRun(t, "--help")
	if !strings.Contains(out, "caltrack") {
		t.Fatalf("expected help output, got %q", out)
	}
}

func TestInitCommandIdempotent(t *testing.T) {
	path := testDBPath(t)
	for i := 0; i < 2; i++ {
		out := mustRun(t, "--db", path, "init")
		if !strings.Contains(out, "Initialized caltrack database") {
			t.Fatalf("init run %d: unexpected output %q", i+1, out)
		}
	}
}

func TestTargetsBeforeAndAfterProfile(t *testing.T) {
	path := testDBPath(t)
	out := mustRun(t, "--db", path, "targets")
	if !strings.Contains(out, "2000 kcal") || !strings.Contains(out, "default targets") {
		t.Fatalf("expected default targets, got %q", out)
	}

	mustRun(t, "--db", path, "profile", "set", "--age", "30", "--sex", "male", "--height", "175", "--weight", "70",
		"--activity", "sedentary", "--goal", "maintain")
	out = mustRun(t, "--db", path, "--json", "targets")
	var resp struct {
		Targets struct {
			ProteinG float64 `json:"protein_g"`
		} `json:"targets"`
		HasProfile bool `json:"has_profile"`
	}
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode targets: %v\n%s", err, out)
	}
	if !resp.HasProfile || resp.Targets.ProteinG < 111.99 || resp.Targets.ProteinG > 112.01 {
		t.Fatalf("expected profile targets with 112g protein, got %+v", resp)
	}
}

func TestProfileSetRejectsUnknownGoal(t *testing.T) {
	path := testDBPath(t)
	_, err := run(t, "--db", path, "profile", "set", "--age", "30", "--sex", "male", "--height", "175", "--weight", "70", "--goal", "bulk")
	if err == nil {
		t.Fatalf("expected invalid goal error")
	}
}

func TestEntryAddAndToday(t *testing.T) {
	path := testDBPath(t)
	mustRun(t, "--db", path, "entry", "add", "--name", "Greek Yogurt", "--meal", "breakfast",
		"--calories", "150", "--protein", "15", "--carbs", "12", "--fat", "5",
		"--serving-size", "170", "--serving-unit", "g", "--servings", "2")

	out := mustRun(t, "--db", path, "--json", "today")
	var sum service.DailySummary
	if err := json.Unmarshal([]byte(out), &sum); err != nil {
		t.Fatalf("decode today: %v\n%s", err, out)
	}
	if sum.Consumed.Calories != 300 || sum.EntryCount != 1 {
		t.Fatalf("expected 300 kcal from one entry, got %+v", sum)
	}

	out = mustRun(t, "--db", path, "entry", "list")
	if !strings.Contains(out, "Greek Yogurt") || !strings.Contains(out, "340.0g") {
		t.Fatalf("expected entry listed with quantity, got %q", out)
	}
}

func TestRecipeAddAndLog(t *testing.T) {
	path := testDBPath(t)
	out := mustRun(t, "--db", path, "recipe", "add", "--name", "Chili", "--servings", "4",
		"--ingredient", "Beans:400:g:400:24:60:2", "--ingredient", "Beef:500:g:800:80:0:50")
	if !strings.Contains(out, "Per serving: 300 kcal") {
		t.Fatalf("expected per-serving nutrition, got %q", out)
	}
	out = mustRun(t, "--db", path, "recipe", "log", "chili", "--servings", "2", "--meal", "dinner")
	if !strings.Contains(out, "Total: 600 kcal") {
		t.Fatalf("expected 600 kcal logged, got %q", out)
	}
}

func TestParseIngredientSpec(t *testing.T) {
	ing, err := parseIngredientSpec("Oats:80:g:300:10")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ing.Name != "Oats" || ing.Amount != 80 || ing.Calories != 300 || ing.ProteinG != 10 || ing.FatG != 0 {
		t.Fatalf("unexpected ingredient: %+v", ing)
	}
	for _, bad := range []string{"Oats", "Oats:x:g", "a:1:g:1:2:3:4:5"} {
		if _, err := parseIngredientSpec(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestDetectWithMockLogsChoice(t *testing.T) {
	path := testDBPath(t)
	img := filepath.Join(t.TempDir(), "lunch.jpg")
	if err := os.WriteFile(img, []byte("fake-jpeg"), 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}
	out := mustRun(t, "--db", path, "detect", img, "--provider", "mock")
	if !strings.Contains(out, "Grilled Chicken Salad") {
		t.Fatalf("expected candidates, got %q", out)
	}
	out = mustRun(t, "--db", path, "detect", img, "--provider", "mock", "--log", "lunch", "--choice", "2")
	if !strings.Contains(out, "Caesar Salad") || !strings.Contains(out, "Source: detected") {
		t.Fatalf("expected logged candidate, got %q", out)
	}
}

func TestBarcodeMockLookup(t *testing.T) {
	path := testDBPath(t)
	out := mustRun(t, "--db", path, "lookup", "barcode", "0123456789012", "--provider", "mock")
	if !strings.Contains(out, "Greek Yogurt") {
		t.Fatalf("expected mock food, got %q", out)
	}
	if _, err := run(t, "--db", path, "lookup", "barcode", "12ab", "--provider", "mock"); err == nil {
		t.Fatalf("expected invalid barcode error")
	}
}

func TestConfigSetAndGet(t *testing.T) {
	path := testDBPath(t)
	mustRun(t, "--db", path, "config", "set", service.ConfigTolerance, "0.2")
	out := mustRun(t, "--db", path, "config", "get", service.ConfigTolerance)
	if strings.TrimSpace(out) != "0.2" {
		t.Fatalf("expected 0.2, got %q", out)
	}
	if _, err := run(t, "--db", path, "config", "set", service.ConfigDetectProvider, "camera"); err == nil {
		t.Fatalf("expected invalid detect provider error")
	}
}

func TestVersion(t *testing.T) {
	out := mustRun(t, "version")
	if !strings.HasPrefix(out, "caltrack ") {
		t.Fatalf("unexpected version output %q", out)
	}
}
