// =============================================================================
// GSTR-2B to Tally Masters - Configuration Module
// =============================================================================
//
// This module is responsible for loading and managing the application
// configuration.
//
// CONFIGURATION SOURCES (later sources win):
//   1. Built-in defaults
//   2. Main Config (config.yaml): Global application settings
//   3. Environment variables prefixed with TALLYMASTERS_
//      (nested keys use "_", e.g. TALLYMASTERS_S3_REGION)
//   4. Command line flags bound by the CLI
//
// A missing config.yaml is only an error when the path was given explicitly.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "TALLYMASTERS"

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
// This is loaded from the main config.yaml file.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is the directory where GSTR-2B JSON reports are placed.
	// The process command scans this directory for *.json files.
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir is where generated masters documents are written.
	// May be a local directory or an s3://bucket/prefix location.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// InputArchiveDir is the directory where processed reports are moved.
	// Files are only moved here after successful processing.
	// Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir"`

	// OutputArchiveDir receives a copy of every generated document.
	// Default: "./output_archive"
	OutputArchiveDir string `yaml:"output_archive_dir"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputFormat defines the format for output file names.
	// Placeholders:
	//   {uuid}      - A random UUID
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {date}      - Current date (YYYYMMDD)
	//   {source}    - Input file name without extension
	//   {period}    - Return period of the report (e.g. 042024)
	//
	// Default: "{source}_{uuid}.xml"
	OutputFormat string `yaml:"output_format"`

	// CompanyName is the Tally company the masters are imported into.
	// Required by the commands that generate masters documents.
	CompanyName string `yaml:"company_name"`

	// Indent is the indentation used in the XML document.
	// Default: four spaces
	Indent string `yaml:"indent"`

	// WriteInvoices writes the normalized invoices JSON next to the XML.
	WriteInvoices bool `yaml:"write_invoices"`

	// WriteRegister writes the XLSX invoice register next to the XML.
	WriteRegister bool `yaml:"write_register"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency is the maximum number of reports processed concurrently.
	// Set to 1 for sequential processing.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency"`

	// ArchiveInputs moves processed reports to InputArchiveDir and copies
	// outputs to OutputArchiveDir.
	ArchiveInputs bool `yaml:"archive_inputs"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat is "console" or "json".
	// Default: "console"
	LogFormat string `yaml:"log_format"`

	// LogOutput is "stdout", "stderr" or a file path.
	// Default: "stderr"
	LogOutput string `yaml:"log_output"`

	// =========================================================================
	// STORAGE SETTINGS
	// =========================================================================

	// S3 configures access to s3:// locations.
	S3 S3Config `yaml:"s3"`
}

// S3Config holds AWS S3 settings. Empty credentials fall back to the
// default AWS credential chain.
type S3Config struct {
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Default returns the built-in configuration.
func Default() *MainConfig {
	var config MainConfig
	applyMainConfigDefaults(&config)
	return &config
}

// LoadMainConfig loads the main configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be read, parsed or validated.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	return Load(configPath, true, nil)
}

// Load reads configPath, applies defaults and overrides, then validates.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file.
//   - explicit: Whether the user named the file. A missing implicit file
//     yields the built-in defaults.
//   - overrides: Optional viper instance holding env/flag overrides
//     (see NewOverrides). May be nil.
func Load(configPath string, explicit bool, overrides *viper.Viper) (*MainConfig, error) {
	var config MainConfig

	// Read the configuration file.
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		// Parse the YAML.
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		// Built-in defaults only.
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Apply default values.
	applyMainConfigDefaults(&config)

	if overrides != nil {
		ApplyOverrides(&config, overrides)
	}

	// Validate the configuration.
	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// NewOverrides returns a viper instance reading TALLYMASTERS_* variables.
// The CLI binds its flags to the same instance.
func NewOverrides() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// ApplyOverrides copies every key set in v onto config. Keys are the YAML
// keys of MainConfig, with "s3." for the nested storage settings.
func ApplyOverrides(config *MainConfig, v *viper.Viper) {
	setString := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	setBool := func(key string, dst *bool) {
		if v.IsSet(key) {
			*dst = v.GetBool(key)
		}
	}

	setString("input_dir", &config.InputDir)
	setString("output_dir", &config.OutputDir)
	setString("input_archive_dir", &config.InputArchiveDir)
	setString("output_archive_dir", &config.OutputArchiveDir)
	setString("output_format", &config.OutputFormat)
	setString("company_name", &config.CompanyName)
	setString("indent", &config.Indent)
	setBool("write_invoices", &config.WriteInvoices)
	setBool("write_register", &config.WriteRegister)
	setBool("archive_inputs", &config.ArchiveInputs)
	if v.IsSet("max_concurrency") {
		config.MaxConcurrency = v.GetInt("max_concurrency")
	}
	setString("log_level", &config.LogLevel)
	setString("log_format", &config.LogFormat)
	setString("log_output", &config.LogOutput)
	setString("s3.region", &config.S3.Region)
	setString("s3.endpoint", &config.S3.Endpoint)
	setString("s3.access_key", &config.S3.AccessKey)
	setString("s3.secret_key", &config.S3.SecretKey)
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
	if config.OutputArchiveDir == "" {
		config.OutputArchiveDir = "./output_archive"
	}
	if config.OutputFormat == "" {
		config.OutputFormat = "{source}_{uuid}.xml"
	}
	if config.Indent == "" {
		config.Indent = "    "
	}
	if config.MaxConcurrency == 0 {
		config.MaxConcurrency = 4
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.LogFormat == "" {
		config.LogFormat = "console"
	}
	if config.LogOutput == "" {
		config.LogOutput = "stderr"
	}
	if config.S3.Region == "" {
		config.S3.Region = "ap-south-1"
	}
}

// validateMainConfig validates the main configuration and creates the local
// directories it names.
func validateMainConfig(config *MainConfig) error {
	if config.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be at least 1, got %d", config.MaxConcurrency)
	}
	switch config.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("log_format must be console or json, got %q", config.LogFormat)
	}

	dirs := []string{config.InputDir, config.OutputDir}
	if config.ArchiveInputs {
		dirs = append(dirs, config.InputArchiveDir, config.OutputArchiveDir)
	}

	for _, dir := range dirs {
		if isRemote(dir) {
			continue
		}
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			// Create the directory if it doesn't exist.
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
		}
	}

	return nil
}

// RequireCompany reports an error when no company is configured. Commands
// that render a masters document call it after loading.
func (c *MainConfig) RequireCompany() error {
	if strings.TrimSpace(c.CompanyName) == "" {
		return errors.New("company_name is required (set it in the config file, TALLYMASTERS_COMPANY_NAME or --company)")
	}
	return nil
}

func isRemote(location string) bool {
	return strings.HasPrefix(location, "s3://")
}
