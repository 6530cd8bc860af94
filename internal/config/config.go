// Package config provides configuration management for text rule scans
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/paveg/textrules/internal/validation"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Config represents the configuration of one scan
type Config struct {
	// Project Configuration
	ProjectKey   string   `json:"project_key" yaml:"project_key"`     // Key matched by each rule's do_not_fire_for_project_keys
	FileSuffixes []string `json:"file_suffixes" yaml:"file_suffixes"` // Suffixes of files to analyze
	Exclusions   []string `json:"exclusions" yaml:"exclusions"`       // Ant patterns of files to skip

	// Scan Configuration
	WorkerPoolSize       int `json:"worker_pool_size" yaml:"worker_pool_size"`             // Number of worker goroutines (0 = auto-detect)
	MaxCharactersScanned int `json:"max_characters_scanned" yaml:"max_characters_scanned"` // Whole-file rules skip larger files (0 = default)

	// Debugging Configuration
	VerboseLogging    bool `json:"verbose_logging" yaml:"verbose_logging"`       // Enable debug logging
	MetricsCollection bool `json:"metrics_collection" yaml:"metrics_collection"` // Enable metrics collection

	Rules []RuleConfig `json:"rules" yaml:"rules"`
}

// SystemInfo contains system information for configuration validation
type SystemInfo struct {
	CPUCount     int
	Architecture string
	OSType       string
}

// ConfigValidator validates and provides recommendations for configuration
type ConfigValidator struct {
	systemInfo SystemInfo
}

// Global configuration instance
var (
	globalConfig Config
	configMutex  sync.RWMutex
)

// Default configuration values
const (
	DefaultMaxCharactersScanned = 500000
	DefaultRepository           = "text"
)

// DefaultFileSuffixes lists the suffixes analyzed when none are configured
var DefaultFileSuffixes = []string{".properties", ".txt"}

// Environment variable names
const (
	EnvProjectKey           = "TEXTRULES_PROJECT_KEY"
	EnvFileSuffixes         = "TEXTRULES_FILE_SUFFIXES"
	EnvExclusions           = "TEXTRULES_EXCLUSIONS"
	EnvWorkerPoolSize       = "TEXTRULES_WORKER_POOL_SIZE"
	EnvMaxCharactersScanned = "TEXTRULES_MAX_CHARACTERS_SCANNED"
	EnvVerboseLogging       = "TEXTRULES_VERBOSE_LOGGING"
	EnvMetricsCollection    = "TEXTRULES_METRICS_COLLECTION"
)

// Initialize global configuration with defaults
func init() {
	globalConfig = NewConfig()
}

// NewConfig creates a new configuration with default values
func NewConfig() Config {
	return Config{
		FileSuffixes:         append([]string(nil), DefaultFileSuffixes...),
		WorkerPoolSize:       0, // Auto-detect
		MaxCharactersScanned: DefaultMaxCharactersScanned,

		VerboseLogging:    false,
		MetricsCollection: false,
	}
}

// Validate validates the configuration and returns every problem found
func (c *Config) Validate() error {
	err := validation.Collect(
		validation.NewNonNegativeValidator(c.WorkerPoolSize, "WorkerPoolSize", "config"),
		validation.NewNonNegativeValidator(c.MaxCharactersScanned, "MaxCharactersScanned", "config"),
	)

	for _, pattern := range c.Exclusions {
		err = multierr.Append(err, validation.ValidatePattern(pattern, "exclusions", "config", ""))
	}

	seen := make(map[string]bool, len(c.Rules))
	for i := range c.Rules {
		rule := &c.Rules[i]
		err = multierr.Append(err, rule.Validate())
		if rule.Key == "" {
			continue
		}
		if seen[rule.Key] {
			err = multierr.Append(err, fmt.Errorf("duplicate rule key %q", rule.Key))
		}
		seen[rule.Key] = true
	}

	return err
}

// WithDefaults returns a new configuration with default values filled in for zero values
func (c Config) WithDefaults() Config {
	defaults := NewConfig()

	if len(c.FileSuffixes) == 0 {
		c.FileSuffixes = defaults.FileSuffixes
	}
	c.FileSuffixes = NormalizeSuffixes(c.FileSuffixes)
	if c.MaxCharactersScanned == 0 {
		c.MaxCharactersScanned = defaults.MaxCharactersScanned
	}

	rules := make([]RuleConfig, len(c.Rules))
	for i, r := range c.Rules {
		rules[i] = r.WithDefaults()
	}
	c.Rules = rules

	// Boolean fields keep their explicit values
	return c
}

// SetGlobalConfig sets the global configuration
func SetGlobalConfig(config Config) {
	configMutex.Lock()
	defer configMutex.Unlock()
	globalConfig = config
}

// GetGlobalConfig returns the current global configuration
func GetGlobalConfig() Config {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return globalConfig
}

// LoadFromJSON loads configuration from JSON data
func LoadFromJSON(data []byte) (Config, error) {
	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing JSON configuration: %w", err)
	}
	return config.WithDefaults(), nil
}

// LoadFromYAML loads configuration from YAML data
func LoadFromYAML(data []byte) (Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing YAML configuration: %w", err)
	}
	return config.WithDefaults(), nil
}

// LoadFromFile loads configuration from a file (supports JSON and YAML)
func LoadFromFile(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file %s: %w", filename, err)
	}

	var config Config
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".json":
		config, err = LoadFromJSON(data)
	case ".yaml", ".yml":
		config, err = LoadFromYAML(data)
	default:
		return Config{}, fmt.Errorf("unsupported config file format: %s", ext)
	}

	if err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", filename, err)
	}

	return config, nil
}

// LoadFromEnv loads configuration from environment variables, reading a
// .env file from the working directory first when one exists.
func LoadFromEnv() Config {
	return NewConfig().MergeEnv()
}

// MergeEnv returns a copy of c with every TEXTRULES_* variable that is set
// applied on top.
func (c Config) MergeEnv() Config {
	// Best-effort: variables already present in the environment win
	_ = godotenv.Load()

	if val := os.Getenv(EnvProjectKey); val != "" {
		c.ProjectKey = strings.TrimSpace(val)
	}

	if val := os.Getenv(EnvFileSuffixes); val != "" {
		if suffixes := SplitList(val); len(suffixes) > 0 {
			c.FileSuffixes = NormalizeSuffixes(suffixes)
		}
	}

	if val := os.Getenv(EnvExclusions); val != "" {
		c.Exclusions = SplitList(val)
	}

	if val := os.Getenv(EnvWorkerPoolSize); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			c.WorkerPoolSize = parsed
		}
	}

	if val := os.Getenv(EnvMaxCharactersScanned); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			c.MaxCharactersScanned = parsed
		}
	}

	if val := os.Getenv(EnvVerboseLogging); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			c.VerboseLogging = parsed
		}
	}

	if val := os.Getenv(EnvMetricsCollection); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			c.MetricsCollection = parsed
		}
	}

	return c
}

// SplitList splits a comma separated list, trimming blanks
func SplitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// NormalizeSuffixes trims suffixes, drops blanks and adds the leading dot
func NormalizeSuffixes(suffixes []string) []string {
	out := make([]string, 0, len(suffixes))
	for _, s := range suffixes {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if !strings.HasPrefix(s, ".") {
			s = "." + s
		}
		out = append(out, s)
	}
	return out
}

// GetSystemInfo returns system information for configuration validation
func GetSystemInfo() SystemInfo {
	return SystemInfo{
		CPUCount:     runtime.NumCPU(),
		Architecture: runtime.GOARCH,
		OSType:       runtime.GOOS,
	}
}

// NewConfigValidator creates a new configuration validator
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{
		systemInfo: GetSystemInfo(),
	}
}

// Validate validates a configuration and provides recommendations
func (cv *ConfigValidator) Validate(config Config) (Config, []string, error) {
	var warnings []string
	validated := config

	// Basic validation
	if err := config.Validate(); err != nil {
		return Config{}, warnings, err
	}

	if len(config.Rules) == 0 {
		warnings = append(warnings, "No rules configured, nothing will be reported")
	}

	// Validate worker pool size
	if config.WorkerPoolSize > cv.systemInfo.CPUCount*2 {
		warnings = append(warnings,
			fmt.Sprintf("Worker pool size (%d) exceeds 2x CPU count (%d), may cause contention",
				config.WorkerPoolSize, cv.systemInfo.CPUCount))
	}

	// Auto-adjust unset values
	if config.WorkerPoolSize == 0 {
		validated.WorkerPoolSize = cv.systemInfo.CPUCount
		warnings = append(warnings,
			fmt.Sprintf("Auto-setting worker pool size to %d (CPU count)",
				validated.WorkerPoolSize))
	}

	return validated, warnings, nil
}
