package shared

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("THEMES_FILE", "")
	t.Setenv("APPS", "")
	c := Load()
	if c.TopN != 20 || c.VocabSize != 1000 || c.ClassifyBatch != 32 || c.ClassifyWorkers != 1 {
		t.Fatalf("numeric defaults = %+v", c)
	}
	if c.SourceName != "Google Play" || c.Schedule != "0 1 * * *" || c.CacheTTL != 900*time.Second {
		t.Fatalf("string defaults = %+v", c)
	}
	if c.Apps["com.dashen.dashensuperapp"] != "Dashen" || len(c.Themes) == 0 {
		t.Fatalf("apps/themes defaults missing: %+v %+v", c.Apps, c.Themes)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TOP_N", "5")
	t.Setenv("CLASSIFY_WORKERS", "not-a-number")
	t.Setenv("INPUT_FILES", " a.csv, ,b.csv ")
	t.Setenv("APPS", "com.x=X, com.y=Y")
	c := Load()
	if c.TopN != 5 || c.ClassifyWorkers != 1 {
		t.Fatalf("TopN=%d workers=%d", c.TopN, c.ClassifyWorkers)
	}
	if !reflect.DeepEqual(c.InputFiles, []string{"a.csv", "b.csv"}) {
		t.Fatalf("input files = %v", c.InputFiles)
	}
	if !reflect.DeepEqual(c.Apps, map[string]string{"com.x": "X", "com.y": "Y"}) {
		t.Fatalf("apps = %v", c.Apps)
	}
}

func TestLoad_ThemesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "themes.yaml")
	doc := `
themes:
  fees: [fee, charge]
  access:
    - login
    - otp
apps:
  com.example.bank: Example
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("THEMES_FILE", path)
	t.Setenv("APPS", "")
	c := Load()
	if len(c.Themes) != 2 || !reflect.DeepEqual(c.Themes["access"], []string{"login", "otp"}) {
		t.Fatalf("themes = %+v", c.Themes)
	}
	if !reflect.DeepEqual(c.Apps, map[string]string{"com.example.bank": "Example"}) {
		t.Fatalf("apps = %+v", c.Apps)
	}
}

func TestLoad_BadThemesFileFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	_ = os.WriteFile(path, []byte("themes: [oops"), 0o600)
	t.Setenv("THEMES_FILE", path)
	if c := Load(); !reflect.DeepEqual(c.Themes, DefaultThemes) {
		t.Fatalf("expected default themes, got %+v", c.Themes)
	}
}

func TestParseApps_Rejects(t *testing.T) {
	if _, err := parseApps("com.x"); err == nil {
		t.Fatal("expected error for entry without bank")
	}
}
