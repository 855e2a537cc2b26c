package config

import (
	"os"
	"path/filepath"
	"testing"

	"reports/internal/domain"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Database != "reports.db" {
		t.Errorf("expected database 'reports.db', got %s", cfg.Database)
	}
	if !cfg.Autosave.Enabled || cfg.Autosave.Keep != 20 {
		t.Errorf("unexpected autosave defaults: %+v", cfg.Autosave)
	}
	if cfg.Export.PageSize != "A4" {
		t.Errorf("expected page size A4, got %s", cfg.Export.PageSize)
	}
	if _, ok := cfg.Connections["warehouse"]; !ok {
		t.Error("expected sample warehouse connection")
	}
}

func TestDatabasePath(t *testing.T) {
	cfg := &Config{DataDir: "/data", Database: "r.db"}
	if got := cfg.DatabasePath(); got != filepath.Join("/data", "r.db") {
		t.Errorf("DatabasePath = %s", got)
	}
	cfg.Database = "/abs/r.db"
	if got := cfg.DatabasePath(); got != "/abs/r.db" {
		t.Errorf("absolute DatabasePath = %s", got)
	}
}

func TestGetConnection(t *testing.T) {
	cfg := &Config{Connections: map[string]domain.Connection{
		"b": {Driver: domain.DatabaseDriverSQLite, Path: "b.db"},
		"a": {Driver: domain.DatabaseDriverSQLite, Path: "a.db"},
	}}

	conn, err := cfg.GetConnection("a")
	if err != nil {
		t.Fatalf("GetConnection: %v", err)
	}
	if conn.Name != "a" || conn.Path != "a.db" {
		t.Errorf("unexpected connection: %+v", conn)
	}
	if _, err := cfg.GetConnection("missing"); err == nil {
		t.Error("expected error for unknown connection")
	}
	if names := cfg.ConnectionNames(); len(names) != 2 || names[0] != "a" {
		t.Errorf("ConnectionNames = %v", names)
	}
}

func TestLoaderMissingFileReturnsDefaults(t *testing.T) {
	l := NewLoaderWithPath(filepath.Join(t.TempDir(), "config.yaml"))
	if l.Exists() {
		t.Fatal("config should not exist yet")
	}
	cfg, err := l.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected default log level, got %s", cfg.LogLevel)
	}
}

func TestLoaderSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	l := NewLoaderWithPath(filepath.Join(dir, "nested", "config.yaml"))

	cfg := DefaultConfig()
	cfg.DataDir = dir
	cfg.LogLevel = "debug"
	cfg.Export.MarginMM = 15
	if err := l.Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !l.Exists() {
		t.Fatal("config should exist after Save")
	}

	got, err := l.LoadRaw()
	if err != nil {
		t.Fatalf("LoadRaw: %v", err)
	}
	if got.LogLevel != "debug" || got.Export.MarginMM != 15 {
		t.Errorf("round trip lost values: %+v", got)
	}
	if got.Connections["warehouse"].Password != "${REPORTS_PG_PASSWORD}" {
		t.Errorf("LoadRaw should keep placeholders, got %q", got.Connections["warehouse"].Password)
	}

	if err := l.Init(); err == nil {
		t.Error("Init should fail when config exists")
	}
}

func TestLoaderExpandsEnvVars(t *testing.T) {
	t.Setenv("REPORTS_TEST_DB", "from-env.db")
	t.Setenv("REPORTS_LOG_LEVEL", "warn")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "data_dir: /tmp/reports\ndatabase: ${REPORTS_TEST_DB}\nlog_level: info\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewLoaderWithPath(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database != "from-env.db" {
		t.Errorf("expected expanded database, got %s", cfg.Database)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("REPORTS_LOG_LEVEL should override, got %s", cfg.LogLevel)
	}
}

func TestGetEnvBool(t *testing.T) {
	for value, want := range map[string]bool{"true": true, "1": true, "YES": true, "0": false, "": false} {
		t.Setenv("REPORTS_TEST_BOOL", value)
		if got := GetEnvBool("REPORTS_TEST_BOOL"); got != want {
			t.Errorf("GetEnvBool(%q) = %v, want %v", value, got, want)
		}
	}
}

func TestPDFOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "/srv/reports"
	cfg.Export.Orientation = "L"
	cfg.Export.MarginMM = 0

	opts := cfg.PDFOptions()
	if opts.Orientation != "L" || opts.PageSize != "A4" || opts.MarginMM != 10 || opts.ImageDir != "/srv/reports" {
		t.Errorf("PDFOptions = %+v", opts)
	}
}
