// Package config loads layered per-environment YAML configuration.
//
// Resolution order, later wins: built-in defaults, <dir>/default.yaml,
// <dir>/<env>.yaml, then environment variables. A Manager is an explicit
// value handed to each component; there is no process-wide cache, so two
// managers pointed at different directories can coexist in one process.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/larkops/bittest/packages/bitable"
)

// DefaultEnvironment is used when no environment is named.
const DefaultEnvironment = "default"

// Config is the resolved configuration for one environment.
type Config struct {
	PersonalToken string `yaml:"personal_token"`
	AppToken      string `yaml:"app_token"`
	TableID       string `yaml:"table_id"`
	ConfigTableID string `yaml:"config_table_id"`
	Domain        string `yaml:"domain"`

	APIBaseURL     string  `yaml:"api_base_url"`
	RequestTimeout int     `yaml:"request_timeout"` // seconds
	MaxRetries     int     `yaml:"max_retries"`
	RetryDelay     float64 `yaml:"retry_delay"`   // seconds
	RequestDelay   float64 `yaml:"request_delay"` // seconds

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // json or console

	MaxResponseLength int `yaml:"max_response_length"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Domain:            bitable.DefaultDomain,
		RequestTimeout:    30,
		MaxRetries:        3,
		RetryDelay:        1.0,
		RequestDelay:      0,
		LogLevel:          "info",
		LogFormat:         "console",
		MaxResponseLength: 2000,
	}
}

// Timeout returns the request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// RetryDelayDuration returns the retry base delay as a duration.
func (c *Config) RetryDelayDuration() time.Duration {
	return time.Duration(c.RetryDelay * float64(time.Second))
}

// RequestDelayDuration returns the inter-case delay as a duration.
func (c *Config) RequestDelayDuration() time.Duration {
	return time.Duration(c.RequestDelay * float64(time.Second))
}

// Validate reports what is missing or malformed. An empty slice means the
// configuration can drive a run.
func (c *Config) Validate() []string {
	var problems []string
	if c.PersonalToken == "" {
		problems = append(problems, "personal_token is required")
	} else if !strings.HasPrefix(c.PersonalToken, bitable.TokenPrefix) {
		problems = append(problems, fmt.Sprintf("personal_token must start with %q", bitable.TokenPrefix))
	}
	if c.AppToken == "" {
		problems = append(problems, "app_token is required")
	}
	if c.TableID == "" {
		problems = append(problems, "table_id is required")
	}
	if c.Domain != "" {
		if u, err := url.Parse(c.Domain); err != nil || u.Scheme == "" || u.Host == "" {
			problems = append(problems, fmt.Sprintf("domain is not a valid URL: %q", c.Domain))
		}
	}
	return problems
}

// Manager resolves configuration from a directory of per-environment YAML
// files.
type Manager struct {
	dir string
}

// NewManager creates a manager over the given directory. An empty dir means
// "config" relative to the working directory.
func NewManager(dir string) *Manager {
	if dir == "" {
		dir = "config"
	}
	return &Manager{dir: dir}
}

// Dir returns the configuration directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Load resolves the configuration for one environment. Missing files are
// fine; malformed YAML is not.
func (m *Manager) Load(env string) (*Config, error) {
	cfg := Default()

	if err := m.applyFile(cfg, "default.yaml"); err != nil {
		return nil, err
	}
	if env != "" && env != DefaultEnvironment {
		if err := m.applyFile(cfg, env+".yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvVars(cfg)
	return cfg, nil
}

func (m *Manager) applyFile(cfg *Config, name string) error {
	path := filepath.Join(m.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// Save writes the configuration for one environment.
func (m *Manager) Save(cfg *Config, env string) error {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(m.dir, env+".yaml"), data, 0o644)
}

// ListEnvironments returns the environments that have a config file.
func (m *Manager) ListEnvironments() []string {
	matches, err := filepath.Glob(filepath.Join(m.dir, "*.yaml"))
	if err != nil {
		return nil
	}
	var envs []string
	for _, match := range matches {
		envs = append(envs, strings.TrimSuffix(filepath.Base(match), ".yaml"))
	}
	sort.Strings(envs)
	return envs
}

// envVars maps process environment variables onto config fields.
func applyEnvVars(cfg *Config) {
	if v := os.Getenv("LARK_PERSONAL_TOKEN"); v != "" {
		cfg.PersonalToken = v
	}
	if v := os.Getenv("LARK_APP_TOKEN"); v != "" {
		cfg.AppToken = v
	}
	if v := os.Getenv("LARK_TABLE_ID"); v != "" {
		cfg.TableID = v
	}
	if v := os.Getenv("LARK_CONFIG_TABLE_ID"); v != "" {
		cfg.ConfigTableID = v
	}
	if v := os.Getenv("LARK_DOMAIN"); v != "" {
		cfg.Domain = v
	}
	if v := os.Getenv("API_BASE_URL"); v != "" {
		cfg.APIBaseURL = v
	}
	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RequestTimeout = n
		}
	}
	if v := os.Getenv("MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxRetries = n
		}
	}
	if v := os.Getenv("RETRY_DELAY"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RetryDelay = f
		}
	}
	if v := os.Getenv("REQUEST_DELAY"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RequestDelay = f
		}
	}
}

// MaskToken hides the middle of a credential for display.
func MaskToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 16 {
		return "***"
	}
	return token[:8] + "..." + token[len(token)-8:]
}
