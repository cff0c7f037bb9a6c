package config

import (
	"strings"
	"testing"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid config",
			config: Config{
				GitHub: GitHubConfig{Owner: "matrix-org", Repo: "matrix-spec-proposals"},
			},
			wantErr: false,
		},
		{
			name: "missing owner",
			config: Config{
				GitHub: GitHubConfig{Repo: "matrix-spec-proposals"},
			},
			wantErr: true,
			errMsg:  "github owner is required",
		},
		{
			name: "missing repo",
			config: Config{
				GitHub: GitHubConfig{Owner: "matrix-org"},
			},
			wantErr: true,
			errMsg:  "github repo is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("expected error containing %q, got %q", tt.errMsg, err.Error())
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestConfig_ValidateForServe(t *testing.T) {
	valid := Config{
		GitHub: GitHubConfig{Owner: "matrix-org", Repo: "matrix-spec-proposals"},
		Relay: RelayConfig{
			ClientID:     "client",
			ClientSecret: "secret",
			StateSecret:  "state-secret",
			RedirectURL:  "http://localhost:8080/auth/callback",
			FrontendURL:  "https://app.example.com",
		},
	}

	if err := valid.ValidateForServe(); err != nil {
		t.Errorf("unexpected error for valid config: %v", err)
	}

	t.Run("secret name alone is enough", func(t *testing.T) {
		cfg := valid
		cfg.Relay.ClientSecret = ""
		cfg.Relay.ClientSecretName = "msccrafter-oauth-secret"
		if err := cfg.ValidateForServe(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("missing client ID", func(t *testing.T) {
		cfg := valid
		cfg.Relay.ClientID = ""
		if err := cfg.ValidateForServe(); err == nil {
			t.Error("expected error for missing client ID")
		}
	})

	t.Run("missing both secret forms", func(t *testing.T) {
		cfg := valid
		cfg.Relay.ClientSecret = ""
		cfg.Relay.ClientSecretName = ""
		if err := cfg.ValidateForServe(); err == nil {
			t.Error("expected error for missing client secret")
		}
	})

	t.Run("missing state secret", func(t *testing.T) {
		cfg := valid
		cfg.Relay.StateSecret = ""
		if err := cfg.ValidateForServe(); err == nil {
			t.Error("expected error for missing state secret")
		}
	})

	t.Run("invalid frontend URL", func(t *testing.T) {
		cfg := valid
		cfg.Relay.FrontendURL = "not-a-url"
		if err := cfg.ValidateForServe(); err == nil {
			t.Error("expected error for invalid frontend URL")
		}
	})
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	if cfg.GitHub.Owner != "matrix-org" || cfg.GitHub.Repo != "matrix-spec-proposals" {
		t.Errorf("unexpected repository defaults: %+v", cfg.GitHub)
	}
	if cfg.GitHub.BotLogin != "mscbot" {
		t.Errorf("unexpected bot login: %s", cfg.GitHub.BotLogin)
	}
	if cfg.GitHub.DefaultBranch != "main" {
		t.Errorf("unexpected default branch: %s", cfg.GitHub.DefaultBranch)
	}
	if cfg.Relay.ListenAddr != ":8080" {
		t.Errorf("unexpected listen address: %s", cfg.Relay.ListenAddr)
	}

	custom := &Config{GitHub: GitHubConfig{Owner: "example", Repo: "proposals"}}
	applyDefaults(custom)
	if custom.GitHub.Owner != "example" || custom.GitHub.Repo != "proposals" {
		t.Errorf("defaults must not override set values: %+v", custom.GitHub)
	}
}
