// Package config manages application configuration.
package config

import (
	"fmt"
	"path/filepath"
	"sort"

	"reports/internal/domain"
	"reports/internal/render"
)

// Config represents the application configuration.
type Config struct {
	DataDir     string                       `yaml:"data_dir"`
	Database    string                       `yaml:"database"` // relative to DataDir unless absolute
	LogLevel    string                       `yaml:"log_level"`
	Autosave    AutosaveConfig               `yaml:"autosave"`
	Export      ExportConfig                 `yaml:"export"`
	Connections map[string]domain.Connection `yaml:"connections,omitempty"`
}

// AutosaveConfig controls periodic report checkpoints.
type AutosaveConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"` // cron spec, e.g. "@every 5m"
	Keep     int    `yaml:"keep"`
}

// ExportConfig contains PDF layout options.
type ExportConfig struct {
	PageSize    string  `yaml:"page_size"`
	Orientation string  `yaml:"orientation"`
	Font        string  `yaml:"font"`
	MarginMM    float64 `yaml:"margin_mm"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		DataDir:  "~/" + ConfigDirName,
		Database: "reports.db",
		LogLevel: "info",
		Autosave: AutosaveConfig{
			Enabled:  true,
			Schedule: "@every 5m",
			Keep:     20,
		},
		Export: ExportConfig{
			PageSize:    "A4",
			Orientation: "P",
			Font:        "Helvetica",
			MarginMM:    10,
		},
		Connections: map[string]domain.Connection{
			"warehouse": {
				Driver:   domain.DatabaseDriverPostgres,
				Host:     "localhost",
				Port:     5432,
				Database: "billing",
				Username: "${REPORTS_PG_USER}",
				Password: "${REPORTS_PG_PASSWORD}",
				SSLMode:  "disable",
			},
		},
	}
}

// DatabasePath returns the SQLite file path, resolved against DataDir.
func (c *Config) DatabasePath() string {
	if filepath.IsAbs(c.Database) {
		return c.Database
	}
	return filepath.Join(c.DataDir, c.Database)
}

// GetConnection returns the named connection with its Name filled in.
func (c *Config) GetConnection(name string) (domain.Connection, error) {
	conn, ok := c.Connections[name]
	if !ok {
		return domain.Connection{}, fmt.Errorf("unknown connection %q", name)
	}
	conn.Name = name
	return conn, nil
}

// ConnectionNames returns the configured connection names, sorted.
func (c *Config) ConnectionNames() []string {
	names := make([]string, 0, len(c.Connections))
	for name := range c.Connections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PDFOptions returns the export settings as renderer options. Relative
// image sources resolve against the data directory.
func (c *Config) PDFOptions() render.PDFOptions {
	opts := render.DefaultPDFOptions()
	if c.Export.PageSize != "" {
		opts.PageSize = c.Export.PageSize
	}
	if c.Export.Orientation != "" {
		opts.Orientation = c.Export.Orientation
	}
	if c.Export.Font != "" {
		opts.Font = c.Export.Font
	}
	if c.Export.MarginMM > 0 {
		opts.MarginMM = c.Export.MarginMM
	}
	opts.ImageDir = c.DataDir
	return opts
}
