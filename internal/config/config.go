// ABOUTME: Configuration loading and parsing for teams-relay
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete teams-relay configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Targets   TargetsConfig   `yaml:"targets"`
	Directory DirectoryConfig `yaml:"directory"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig holds authentication configuration.
// When JWTSecret is empty, the inbound event endpoint accepts
// unauthenticated requests.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// TargetConfig holds the location of a single downstream invocation target
type TargetConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	TimeoutRaw string `yaml:"timeout"`
}

// TargetsConfig names the downstream invocation targets
type TargetsConfig struct {
	AIHandler          TargetConfig `yaml:"ai_handler"`
	TicketingHandler   TargetConfig `yaml:"ticketing_handler"`
	TranslationService TargetConfig `yaml:"translation_service"`
}

// DirectoryConfig holds the channel directory lookup configuration.
// The token endpoint is shared across clients; member-details base URLs
// come from per-client credential records.
type DirectoryConfig struct {
	TokenURL string `yaml:"token_url"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig holds metrics endpoint configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Targets.AIHandler.URL == "" {
		return fmt.Errorf("targets.ai_handler.url is required")
	}
	if c.Targets.TicketingHandler.URL == "" {
		return fmt.Errorf("targets.ticketing_handler.url is required")
	}
	// The translation target is optional: clients with translation
	// disabled never invoke it.

	if c.Directory.TokenURL == "" {
		return fmt.Errorf("directory.token_url is required")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	targets := []*TargetConfig{
		&cfg.Targets.AIHandler,
		&cfg.Targets.TicketingHandler,
		&cfg.Targets.TranslationService,
	}

	for _, t := range targets {
		if t.TimeoutRaw == "" {
			continue
		}
		d, err := time.ParseDuration(t.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing timeout %q: %w", t.TimeoutRaw, err)
		}
		t.Timeout = d
	}

	return nil
}
