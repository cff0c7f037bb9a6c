package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/andywolf/msccrafter/internal/cache"
	"github.com/andywolf/msccrafter/internal/config"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "List locally cached proposals",
	Long: `List the proposals held in the local cache, with their render depth
and expiry deadlines.

Example:
  msccrafter cache`,
	Args: cobra.NoArgs,
	RunE: listCache,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
}

func listCache(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	dir := cfg.Cache.Dir
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		dir = cwd
	}

	store := cache.NewFileStore(dir)
	if err := store.Load(); err != nil {
		return fmt.Errorf("failed to load cache: %w", err)
	}

	var cacheOpts []cache.Option
	if cfg.Cache.Namespace != "" {
		cacheOpts = append(cacheOpts, cache.WithNamespace(cfg.Cache.Namespace))
	}
	entries := cache.New(store, cacheOpts...).Entries()

	if len(entries) == 0 {
		fmt.Println("No cached proposals found.")
		return nil
	}

	fmt.Printf("%-8s %-12s %-8s %-22s %s\n", "MSC", "STATE", "RENDER", "EXPIRES", "TITLE")
	fmt.Println(strings.Repeat("-", 90))

	now := time.Now().UnixMilli()
	for _, e := range entries {
		expires := time.UnixMilli(e.ExpiresAt).Format("2006-01-02 15:04")
		if e.ExpiresAt <= now {
			expires += " (expired)"
		}
		fmt.Printf("%-8d %-12s %-8s %-22s %s\n",
			e.PRNumber,
			e.State,
			e.RenderState,
			expires,
			e.Title,
		)
	}

	return nil
}
