// =============================================================================
// PayNow QR Generator - Configuration Module
// =============================================================================
//
// This module is responsible for loading the application configuration.
//
// CONFIGURATION SOURCES (lowest to highest precedence):
//   1. Built-in defaults (applyMainConfigDefaults)
//   2. The YAML file passed with --config (default: config.yaml)
//   3. Environment variables prefixed with PAYNOW_, optionally from .env
//   4. Command-line flags (applied by the cmd package)
//
// A missing default config.yaml is not an error: the defaults are enough to
// encode single payloads. An explicitly requested file must exist.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file used when --config is not given.
const DefaultPath = "config.yaml"

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned by `paynow process` for recipient sheets.
	// Default: "./input"
	InputDir string `yaml:"input_dir" env:"INPUT_DIR"`

	// OutputDir receives generated PNG images, manifests and logs.
	// Default: "./output"
	OutputDir string `yaml:"output_dir" env:"OUTPUT_DIR"`

	// InputArchiveDir receives input sheets after successful processing.
	// Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir" env:"INPUT_ARCHIVE_DIR"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogFile is the path to the application log file. Empty logs to stderr.
	LogFile string `yaml:"log_file" env:"LOG_FILE"`

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputNameFormat defines the PNG file names written by `paynow process`.
	// Placeholders:
	//   {uuid}      - A random UUID
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {file}      - Input file name without extension
	//   {row}       - Source row number
	//   {mode}      - phone or uen
	// Default: "{file}_{row}_{uuid}.png"
	OutputNameFormat string `yaml:"output_name_format" env:"OUTPUT_NAME_FORMAT"`

	// ManifestFormat selects the manifest written next to the images.
	// Valid values: "yaml", "csv"
	// Default: "yaml"
	ManifestFormat string `yaml:"manifest_format" env:"MANIFEST_FORMAT"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency is the maximum number of files to process concurrently.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency" env:"MAX_CONCURRENCY"`

	// ContinueOnError determines whether rows that fail validation are
	// skipped (true) or abort the whole file (false).
	// Default: false
	ContinueOnError bool `yaml:"continue_on_error" env:"CONTINUE_ON_ERROR"`

	// =========================================================================
	// NESTED SECTIONS
	// =========================================================================

	QR       QRSettings       `yaml:"qr" envPrefix:"QR_"`
	Merchant MerchantSettings `yaml:"merchant" envPrefix:"MERCHANT_"`
	Columns  ColumnMapping    `yaml:"columns" envPrefix:"COLUMN_"`
	CSV      CSVSettings      `yaml:"csv" envPrefix:"CSV_"`
	XLSX     XLSXSettings     `yaml:"xlsx" envPrefix:"XLSX_"`
	Watch    WatchSettings    `yaml:"watch" envPrefix:"WATCH_"`
}

// QRSettings controls image rendering.
type QRSettings struct {
	// Size is the PNG width and height in pixels. Default: 256
	Size int `yaml:"size" env:"SIZE"`

	// Recovery is the error correction level: low, medium, high, highest.
	// Default: "medium"
	Recovery string `yaml:"recovery" env:"RECOVERY"`
}

// MerchantSettings are the defaults for fields 59 and 60.
type MerchantSettings struct {
	// Name is used when a request has no name. Default: "NA"
	Name string `yaml:"name" env:"NAME"`

	// City is the merchant city. Default: "Singapore"
	City string `yaml:"city" env:"CITY"`
}

// ColumnMapping names the sheet columns holding each recipient field.
// Header matching is case-insensitive.
type ColumnMapping struct {
	Mode      string `yaml:"mode" env:"MODE"`
	Target    string `yaml:"target" env:"TARGET"`
	Reference string `yaml:"reference" env:"REFERENCE"`
	Name      string `yaml:"name" env:"NAME"`
}

// CSVSettings contains settings for parsing CSV recipient sheets.
type CSVSettings struct {
	// Delimiter is the field separator. Common values: ",", "|", "tab", ";"
	// Default: ","
	Delimiter string `yaml:"delimiter" env:"DELIMITER"`

	// HeaderRows is the number of header rows. Default: 1
	HeaderRows int `yaml:"header_rows" env:"HEADER_ROWS"`

	// DataStartRow is the 1-indexed row where data begins.
	// Default: HeaderRows + 1
	DataStartRow int `yaml:"data_start_row" env:"DATA_START_ROW"`
}

// XLSXSettings contains settings for reading XLSX recipient sheets.
type XLSXSettings struct {
	// Sheet is the sheet name. Empty means the first sheet.
	Sheet string `yaml:"sheet" env:"SHEET"`
}

// WatchSettings configures `paynow watch`.
type WatchSettings struct {
	// Debounce is how long to wait after the last change before regenerating.
	// Default: 500ms
	Debounce time.Duration `yaml:"debounce" env:"DEBOUNCE"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig loads the configuration from a YAML file and the environment.
//
// PARAMETERS:
//   - configPath: The path to the YAML file. If it equals DefaultPath and the
//     file does not exist, only defaults and environment are used.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be read or parsed, or the result is invalid.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	var config MainConfig

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && configPath == DefaultPath:
		// Defaults only.
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := applyEnvironment(&config); err != nil {
		return nil, err
	}

	applyMainConfigDefaults(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns a configuration with every default applied.
func Default() *MainConfig {
	var config MainConfig
	applyMainConfigDefaults(&config)
	return &config
}

// applyEnvironment overlays PAYNOW_* environment variables. A .env file in the
// working directory is loaded first if present; it never overrides variables
// already set in the process environment.
func applyEnvironment(config *MainConfig) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env file: %w", err)
	}

	if err := env.ParseWithOptions(config, env.Options{Prefix: "PAYNOW_"}); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}

	return nil
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.InputDir == "" {
		config.InputDir = "./input"
	}
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.InputArchiveDir == "" {
		config.InputArchiveDir = "./input_archive"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.OutputNameFormat == "" {
		config.OutputNameFormat = "{file}_{row}_{uuid}.png"
	}
	if config.ManifestFormat == "" {
		config.ManifestFormat = "yaml"
	}
	if config.MaxConcurrency == 0 {
		config.MaxConcurrency = 4
	}

	if config.QR.Size == 0 {
		config.QR.Size = 256
	}
	if config.QR.Recovery == "" {
		config.QR.Recovery = "medium"
	}

	if config.Merchant.Name == "" {
		config.Merchant.Name = "NA"
	}
	if config.Merchant.City == "" {
		config.Merchant.City = "Singapore"
	}

	if config.Columns.Mode == "" {
		config.Columns.Mode = "mode"
	}
	if config.Columns.Target == "" {
		config.Columns.Target = "target"
	}
	if config.Columns.Reference == "" {
		config.Columns.Reference = "reference"
	}
	if config.Columns.Name == "" {
		config.Columns.Name = "name"
	}

	if config.CSV.Delimiter == "" {
		config.CSV.Delimiter = ","
	}
	if config.CSV.HeaderRows == 0 {
		config.CSV.HeaderRows = 1
	}
	if config.CSV.DataStartRow == 0 {
		config.CSV.DataStartRow = config.CSV.HeaderRows + 1
	}

	if config.Watch.Debounce == 0 {
		config.Watch.Debounce = 500 * time.Millisecond
	}
}

// validateMainConfig validates the main configuration.
func validateMainConfig(config *MainConfig) error {
	switch strings.ToLower(config.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log_level %q is not one of debug, info, warn, error", config.LogLevel)
	}

	switch strings.ToLower(config.ManifestFormat) {
	case "yaml", "csv":
	default:
		return fmt.Errorf("manifest_format %q is not one of yaml, csv", config.ManifestFormat)
	}

	if config.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be at least 1, got %d", config.MaxConcurrency)
	}
	if config.QR.Size < 0 {
		return fmt.Errorf("qr.size must be positive, got %d", config.QR.Size)
	}
	if config.CSV.HeaderRows < 1 {
		return fmt.Errorf("csv.header_rows must be at least 1, got %d", config.CSV.HeaderRows)
	}
	if config.CSV.DataStartRow <= config.CSV.HeaderRows {
		return fmt.Errorf("csv.data_start_row (%d) must come after the header rows (%d)", config.CSV.DataStartRow, config.CSV.HeaderRows)
	}
	if config.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}

	return nil
}
