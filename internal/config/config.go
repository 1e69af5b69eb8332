// Package config loads pmctl settings from the environment (and an optional .env file).
package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/clintrovert/pmctl/internal/apperr"
)

// Config holds all pmctl settings
type Config struct {
	Jira       JiraConfig       `envPrefix:"JIRA_"`
	Confluence ConfluenceConfig `envPrefix:"CONFLUENCE_"`
	MCP        MCPConfig        `envPrefix:"MCP_"`
	LogLevel   string           `env:"LOG_LEVEL" envDefault:"info"`
}

// JiraConfig holds the work-tracking service settings
type JiraConfig struct {
	URL          string        `env:"URL"`
	Email        string        `env:"USER_EMAIL"`
	APIToken     string        `env:"API_TOKEN"`
	ProjectKey   string        `env:"PROJECT_KEY"`
	OpenStatus   string        `env:"OPEN_STATUS" envDefault:"READY FOR DEVELOPMENT"`
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"5m"`
}

// ConfluenceConfig holds the wiki service settings. The whole group is optional.
type ConfluenceConfig struct {
	URL      string `env:"URL"`
	Email    string `env:"USER_EMAIL"`
	APIToken string `env:"API_TOKEN"`
}

// MCPConfig holds the tool server settings
type MCPConfig struct {
	Transport    string   `env:"TRANSPORT" envDefault:"stdio"`
	Host         string   `env:"HOST" envDefault:"127.0.0.1"`
	Port         int      `env:"PORT" envDefault:"8000"`
	AllowedHosts []string `env:"ALLOWED_HOSTS" envSeparator:","`
}

// Load reads .env (when present) and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, apperr.New("load config", apperr.KindConfig, fmt.Errorf("parse env: %w", err))
	}
	cfg.normalize()
	return &cfg, nil
}

// LoadFrom reads settings from the given key/value map instead of the process
// environment.
func LoadFrom(environ map[string]string) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return nil, apperr.New("load config", apperr.KindConfig, fmt.Errorf("parse env: %w", err))
	}
	cfg.normalize()
	return &cfg, nil
}

func (c *Config) normalize() {
	c.Jira.URL = strings.TrimRight(strings.TrimSpace(c.Jira.URL), "/")
	c.Confluence.URL = strings.TrimRight(strings.TrimSpace(c.Confluence.URL), "/")
	c.MCP.Transport = strings.ToLower(strings.TrimSpace(c.MCP.Transport))
}

// Validate reports every missing Jira setting in one KindConfig error.
func (c JiraConfig) Validate() error {
	return missing("jira config", map[string]string{
		"JIRA_URL":         c.URL,
		"JIRA_USER_EMAIL":  c.Email,
		"JIRA_API_TOKEN":   c.APIToken,
		"JIRA_PROJECT_KEY": c.ProjectKey,
	})
}

// Enabled reports whether any Confluence setting was provided.
func (c ConfluenceConfig) Enabled() bool {
	return c.URL != "" || c.Email != "" || c.APIToken != ""
}

// Validate reports missing Confluence settings. A partially filled group is an error.
func (c ConfluenceConfig) Validate() error {
	return missing("confluence config", map[string]string{
		"CONFLUENCE_URL":        c.URL,
		"CONFLUENCE_USER_EMAIL": c.Email,
		"CONFLUENCE_API_TOKEN":  c.APIToken,
	})
}

// Validate checks the tool server settings.
func (c MCPConfig) Validate() error {
	switch c.Transport {
	case "stdio", "sse", "http":
	default:
		return apperr.Newf("mcp config", apperr.KindConfig, "unsupported transport %q (want stdio, sse or http)", c.Transport)
	}
	if c.Transport != "stdio" && (c.Port <= 0 || c.Port > 65535) {
		return apperr.Newf("mcp config", apperr.KindConfig, "invalid port %d", c.Port)
	}
	return nil
}

func missing(op string, values map[string]string) error {
	var keys []string
	for key, value := range values {
		if strings.TrimSpace(value) == "" {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	slices.Sort(keys)
	return apperr.Newf(op, apperr.KindConfig, "missing required settings: %s", strings.Join(keys, ", "))
}
