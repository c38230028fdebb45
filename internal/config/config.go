package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the kiezconnect API configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Data    DataConfig    `yaml:"data"`
	Search  SearchConfig  `yaml:"search"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DataConfig describes where the listing CSVs live and how they are named.
// Dir (or the KC_DATA_DIR env var) overrides the candidate search order.
type DataConfig struct {
	Dir           string   `yaml:"dir"`
	CandidateDirs []string `yaml:"candidate_dirs"`
	JobsFile      string   `yaml:"jobs_file"`
	EventsFile    string   `yaml:"events_file"`
	CoursesFile   string   `yaml:"courses_file"`
	GeoSuffix     string   `yaml:"geo_suffix"`
}

// SearchConfig holds query-engine tuning: the keyword-inference list and the
// column sets scanned by the keyword and free-text filters. These are
// hand-picked sets; extending them for a new dataset is a config change.
type SearchConfig struct {
	DefaultRadiusKm float64  `yaml:"default_radius_km"`
	Keywords        []string `yaml:"keywords"`
	KeywordColumns  []string `yaml:"keyword_columns"`
	FreeTextColumns []string `yaml:"free_text_columns"`
	DefaultPageSize int      `yaml:"default_page_size"`
	MaxPageSize     int      `yaml:"max_page_size"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if len(c.Data.CandidateDirs) == 0 {
		c.Data.CandidateDirs = []string{"data", filepath.Join("backend", "data")}
	}
	if c.Data.JobsFile == "" {
		c.Data.JobsFile = "berlin_tech_jobs.csv"
	}
	if c.Data.EventsFile == "" {
		c.Data.EventsFile = "berlin_tech_events.csv"
	}
	if c.Data.CoursesFile == "" {
		c.Data.CoursesFile = "german_courses_berlin.csv"
	}
	if c.Data.GeoSuffix == "" {
		c.Data.GeoSuffix = "_geo"
	}
	if c.Search.DefaultRadiusKm <= 0 {
		c.Search.DefaultRadiusKm = 3.0
	}
	if len(c.Search.Keywords) == 0 {
		c.Search.Keywords = []string{
			"developer", "engineer", "data", "design",
			"marketing", "teacher", "python", "manager",
		}
	}
	if len(c.Search.KeywordColumns) == 0 {
		c.Search.KeywordColumns = []string{"title", "company", "provider", "course_name"}
	}
	if len(c.Search.FreeTextColumns) == 0 {
		c.Search.FreeTextColumns = []string{
			"title", "course_name", "provider", "company",
			"district", "location", "address",
		}
	}
	if c.Search.DefaultPageSize <= 0 {
		c.Search.DefaultPageSize = 50
	}
	if c.Search.MaxPageSize <= 0 {
		c.Search.MaxPageSize = 500
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Search.DefaultRadiusKm <= 0 {
		return fmt.Errorf("search.default_radius_km must be positive, got %v", c.Search.DefaultRadiusKm)
	}
	if c.Search.DefaultPageSize > c.Search.MaxPageSize {
		return fmt.Errorf(
			"search.default_page_size (%d) must not exceed search.max_page_size (%d)",
			c.Search.DefaultPageSize, c.Search.MaxPageSize,
		)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
