package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/andywolf/msccrafter/internal/cloud/gcp"
	"github.com/andywolf/msccrafter/internal/config"
	"github.com/andywolf/msccrafter/internal/relay"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the OAuth relay server",
	Long: `Run the OAuth relay that brokers GitHub authorization for the web
frontend. The relay holds the OAuth client secret, either from configuration
or from GCP Secret Manager, and exposes the /auth endpoints.

Example:
  msccrafter serve --listen :8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("listen", "", "Listen address (default :8080)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.ValidateForServe(); err != nil {
		return err
	}
	if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
		cfg.Relay.ListenAddr = listen
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := gcp.NewLogger(ctx, "msccrafter-relay")
	defer func() { _ = logger.Close() }()

	clientSecret := cfg.Relay.ClientSecret
	if clientSecret == "" {
		clientSecret, err = fetchClientSecret(ctx, cfg.Relay.ClientSecretName)
		if err != nil {
			return err
		}
	}

	signer, err := relay.NewStateSigner([]byte(cfg.Relay.StateSecret))
	if err != nil {
		return err
	}

	exchanger := relay.NewTokenExchanger(cfg.Relay.ClientID, clientSecret)
	server := relay.NewServer(relay.Config{
		ClientID:    cfg.Relay.ClientID,
		RedirectURL: cfg.Relay.RedirectURL,
		FrontendURL: cfg.Relay.FrontendURL,
	}, exchanger, signer, logger)

	logger.Info("relay starting", map[string]interface{}{"addr": cfg.Relay.ListenAddr})
	return server.Run(ctx, cfg.Relay.ListenAddr)
}

func fetchClientSecret(ctx context.Context, secretName string) (string, error) {
	client, err := gcp.NewSecretManagerClient(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create secret manager client: %w", err)
	}
	defer func() { _ = client.Close() }()

	secret, err := client.FetchSecret(ctx, secretName)
	if err != nil {
		return "", fmt.Errorf("failed to fetch client secret: %w", err)
	}
	return secret, nil
}
