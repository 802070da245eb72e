// =============================================================================
// Withdrawal Reconciler - Configuration Module
// =============================================================================
//
// This module loads the application configuration. A single YAML file
// describes both extracts, the timestamp layout, the trend exclusions, the
// memo TTL and the export settings.
//
// CONFIGURATION SOURCES (later wins):
//   1. Built-in defaults (applyDefaults)
//   2. config.yaml (or the file passed with --config)
//   3. RECON_* environment variables, optionally loaded from a .env file
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DateLayout is the layout used for dates in configuration and CLI flags.
const DateLayout = "2006-01-02"

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// Transactions describes the daily transaction feed.
	Transactions ExtractSettings `yaml:"transactions"`

	// Legacy describes the legacy balance ledger.
	Legacy ExtractSettings `yaml:"legacy"`

	// TimestampLayout is the Go layout of the transaction timestamp column.
	// Default: "02-01-2006 15:04:05" (day-month-year hour:minute:second)
	TimestampLayout string `yaml:"timestamp_layout"`

	Trend  TrendSettings  `yaml:"trend"`
	Cache  CacheSettings  `yaml:"cache"`
	Export ExportSettings `yaml:"export"`
	Map    MapSettings    `yaml:"map"`

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`
}

// =============================================================================
// EXTRACT SETTINGS
// =============================================================================

// ExtractSettings describes where an extract lives and how to read it.
type ExtractSettings struct {
	// Path is the extract file. The extension selects the reader:
	// ".csv", ".xlsx" or ".xls".
	Path string `yaml:"path"`

	// Sheet is the worksheet name for spreadsheet extracts.
	// Empty means the first sheet.
	Sheet string `yaml:"sheet"`

	// Delimiter is the field separator for delimited extracts.
	// Default: ","
	Delimiter string `yaml:"delimiter"`

	// Columns maps logical fields to the header names used in the file.
	Columns ColumnNames `yaml:"columns"`
}

// ColumnNames holds the header names of the fields the pipeline reads.
// The legacy extract only uses Identifier and Balance.
type ColumnNames struct {
	Identifier string `yaml:"identifier"`
	Timestamp  string `yaml:"timestamp"`
	Amount     string `yaml:"amount"`
	District   string `yaml:"district"`
	Latitude   string `yaml:"latitude"`
	Longitude  string `yaml:"longitude"`
	Accuracy   string `yaml:"accuracy"`
	Balance    string `yaml:"balance"`
}

// =============================================================================
// TREND, CACHE, EXPORT AND MAP SETTINGS
// =============================================================================

// TrendSettings configures the trend aggregator.
type TrendSettings struct {
	// ExcludedDates are days left out of the highest/average statistics,
	// e.g. a pilot-test day. They still appear in the trend table.
	// Format: "2006-01-02"
	ExcludedDates []string `yaml:"excluded_dates"`
}

// CacheSettings configures result memoization.
type CacheSettings struct {
	// TTL bounds how long a memoized result may be reused.
	// Default: 1h
	TTL time.Duration `yaml:"ttl"`
}

// ExportSettings configures file exports.
type ExportSettings struct {
	// Dir is the directory export files are written to.
	// Default: "./output"
	Dir string `yaml:"dir"`

	// NameFormat is the export base name. Placeholders:
	//   {asof}      - date of the latest transaction (YYYY-MM-DD)
	//   {timestamp} - current timestamp (YYYYMMDD_HHMMSS)
	//   {uuid}      - a random UUID
	// Default: "reconciled_data_{asof}"
	NameFormat string `yaml:"name_format"`

	// Formats lists the formats to write: "csv", "xlsx".
	// Default: ["csv", "xlsx"]
	Formats []string `yaml:"formats"`
}

// MapSettings bounds the device-location map points.
type MapSettings struct {
	West  float64 `yaml:"west"`
	East  float64 `yaml:"east"`
	South float64 `yaml:"south"`
	North float64 `yaml:"north"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig loads the main configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file. A missing file is
//     not an error; defaults are used instead.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be parsed or the result is invalid.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	var config MainConfig

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// Defaults only.
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	applyEnvOverrides(&config)
	applyDefaults(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are ignored.
func LoadDotEnv(paths ...string) {
	for _, p := range paths {
		_ = godotenv.Load(p)
	}
}

// applyEnvOverrides copies RECON_* environment variables over file values.
func applyEnvOverrides(config *MainConfig) {
	if v := os.Getenv("RECON_TRANSACTIONS_PATH"); v != "" {
		config.Transactions.Path = v
	}
	if v := os.Getenv("RECON_LEGACY_PATH"); v != "" {
		config.Legacy.Path = v
	}
	if v := os.Getenv("RECON_EXPORT_DIR"); v != "" {
		config.Export.Dir = v
	}
	if v := os.Getenv("RECON_LOG_LEVEL"); v != "" {
		config.LogLevel = v
	}
	if v := os.Getenv("RECON_EXCLUDED_DATES"); v != "" {
		config.Trend.ExcludedDates = splitList(v)
	}
}

// applyDefaults sets default values for any unset configuration options.
func applyDefaults(config *MainConfig) {
	if config.Transactions.Path == "" {
		config.Transactions.Path = "withdrawal_reporting.xlsx"
	}
	if config.Legacy.Path == "" {
		config.Legacy.Path = "consolidated_balances.xlsx"
	}
	applyExtractDefaults(&config.Transactions)
	applyExtractDefaults(&config.Legacy)

	tc := &config.Transactions.Columns
	if tc.Timestamp == "" {
		tc.Timestamp = "Transaction Time"
	}
	if tc.Amount == "" {
		tc.Amount = "Withdrawal Amount"
	}
	if tc.District == "" {
		tc.District = "District Name"
	}
	if tc.Latitude == "" {
		tc.Latitude = "Device Latitude"
	}
	if tc.Longitude == "" {
		tc.Longitude = "Device Longitude"
	}
	if tc.Accuracy == "" {
		tc.Accuracy = "Device Accuracy"
	}
	if config.Legacy.Columns.Balance == "" {
		config.Legacy.Columns.Balance = "Balance"
	}

	if config.TimestampLayout == "" {
		config.TimestampLayout = "02-01-2006 15:04:05"
	}
	if config.Cache.TTL == 0 {
		config.Cache.TTL = time.Hour
	}
	if config.Export.Dir == "" {
		config.Export.Dir = "./output"
	}
	if config.Export.NameFormat == "" {
		config.Export.NameFormat = "reconciled_data_{asof}"
	}
	if len(config.Export.Formats) == 0 {
		config.Export.Formats = []string{"csv", "xlsx"}
	}
	if config.Map == (MapSettings{}) {
		config.Map = MapSettings{West: 60.5, East: 77.0, South: 23.5, North: 37.2}
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
}

func applyExtractDefaults(s *ExtractSettings) {
	if s.Delimiter == "" {
		s.Delimiter = ","
	}
	if s.Columns.Identifier == "" {
		s.Columns.Identifier = "CNIC"
	}
}

// validateMainConfig validates the main configuration.
func validateMainConfig(config *MainConfig) error {
	if _, err := config.ExcludedDates(); err != nil {
		return err
	}
	for _, f := range config.Export.Formats {
		switch strings.ToLower(f) {
		case "csv", "xlsx":
		default:
			return fmt.Errorf("unsupported export format %q", f)
		}
	}
	if config.Cache.TTL < 0 {
		return fmt.Errorf("cache ttl must not be negative")
	}
	if config.Map.West >= config.Map.East || config.Map.South >= config.Map.North {
		return fmt.Errorf("map bounds are inverted")
	}
	return nil
}

// ExcludedDates parses Trend.ExcludedDates.
func (c *MainConfig) ExcludedDates() ([]time.Time, error) {
	dates := make([]time.Time, 0, len(c.Trend.ExcludedDates))
	for _, s := range c.Trend.ExcludedDates {
		d, err := time.Parse(DateLayout, strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("excluded date %q: %w", s, err)
		}
		dates = append(dates, d)
	}
	return dates, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
