package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andywolf/msccrafter/internal/config"
	"github.com/andywolf/msccrafter/internal/github"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the authenticated GitHub user",
	Long: `Validate the configured GitHub token by asking the API who it
belongs to.

Example:
  msccrafter whoami --token ghp_xxx`,
	Args: cobra.NoArgs,
	RunE: runWhoami,
}

func init() {
	rootCmd.AddCommand(whoamiCmd)

	whoamiCmd.Flags().String("token", "", "GitHub API token")
}

func runWhoami(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if token, _ := cmd.Flags().GetString("token"); token != "" {
		cfg.GitHub.Token = token
	}
	if cfg.GitHub.Token == "" {
		return fmt.Errorf("no GitHub token configured")
	}

	login, err := github.NewClient(cfg.GitHub.Token).Viewer(context.Background())
	if err != nil {
		return fmt.Errorf("token validation failed: %w", err)
	}

	fmt.Println(login)
	return nil
}
