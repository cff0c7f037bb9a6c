// Package config loads and validates msccrafter configuration.
package config

import (
	"fmt"
	"net/url"

	"github.com/spf13/viper"
)

// Config represents the full msccrafter configuration
type Config struct {
	GitHub GitHubConfig `mapstructure:"github"`
	Cache  CacheConfig  `mapstructure:"cache"`
	Relay  RelayConfig  `mapstructure:"relay"`
}

// GitHubConfig identifies the proposal repository and the API credentials.
type GitHubConfig struct {
	Owner         string `mapstructure:"owner"`
	Repo          string `mapstructure:"repo"`
	BotLogin      string `mapstructure:"bot_login"`
	DefaultBranch string `mapstructure:"default_branch"`
	Token         string `mapstructure:"token"`
}

// CacheConfig contains local proposal cache settings.
type CacheConfig struct {
	Dir       string `mapstructure:"dir"`
	Namespace string `mapstructure:"namespace"`
}

// RelayConfig contains OAuth relay server settings.
type RelayConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
	ClientID   string `mapstructure:"client_id"`
	// ClientSecret holds the OAuth secret directly; ClientSecretName names a
	// Secret Manager secret to fetch it from instead.
	ClientSecret     string `mapstructure:"client_secret"`
	ClientSecretName string `mapstructure:"client_secret_name"`
	RedirectURL      string `mapstructure:"redirect_url"`
	FrontendURL      string `mapstructure:"frontend_url"`
	StateSecret      string `mapstructure:"state_secret"`
}

// Load loads configuration from file and environment
func Load() (*Config, error) {
	cfg := &Config{}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(cfg)

	return cfg, nil
}

// applyDefaults sets default values for unset fields
func applyDefaults(cfg *Config) {
	if cfg.GitHub.Owner == "" {
		cfg.GitHub.Owner = "matrix-org"
	}
	if cfg.GitHub.Repo == "" {
		cfg.GitHub.Repo = "matrix-spec-proposals"
	}
	if cfg.GitHub.BotLogin == "" {
		cfg.GitHub.BotLogin = "mscbot"
	}
	if cfg.GitHub.DefaultBranch == "" {
		cfg.GitHub.DefaultBranch = "main"
	}
	if cfg.Relay.ListenAddr == "" {
		cfg.Relay.ListenAddr = ":8080"
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.GitHub.Owner == "" {
		return fmt.Errorf("github owner is required")
	}
	if c.GitHub.Repo == "" {
		return fmt.Errorf("github repo is required")
	}
	return nil
}

// ValidateForServe performs additional validation required before starting
// the OAuth relay.
func (c *Config) ValidateForServe() error {
	if err := c.Validate(); err != nil {
		return err
	}

	if c.Relay.ClientID == "" {
		return fmt.Errorf("relay client ID is required")
	}
	if c.Relay.ClientSecret == "" && c.Relay.ClientSecretName == "" {
		return fmt.Errorf("relay client secret or secret name is required")
	}
	if c.Relay.StateSecret == "" {
		return fmt.Errorf("relay state secret is required")
	}
	if c.Relay.RedirectURL == "" {
		return fmt.Errorf("relay redirect URL is required")
	}
	if c.Relay.FrontendURL == "" {
		return fmt.Errorf("relay frontend URL is required")
	}

	for name, raw := range map[string]string{
		"redirect URL": c.Relay.RedirectURL,
		"frontend URL": c.Relay.FrontendURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("relay %s is not a valid URL: %s", name, raw)
		}
	}

	return nil
}
