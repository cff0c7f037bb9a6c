package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/andywolf/msccrafter/internal/cache"
	"github.com/andywolf/msccrafter/internal/config"
	"github.com/andywolf/msccrafter/internal/github"
	"github.com/andywolf/msccrafter/internal/msc"
	"github.com/andywolf/msccrafter/internal/resolve"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <number>",
	Short: "Resolve an MSC proposal",
	Long: `Resolve a Matrix Spec Change proposal from its pull request.

By default only the primary metadata is fetched. With --full the resolution
also covers review threads, implementation links, the review checklist on
proposals in a comment period, and the closing comment on closed proposals.

Examples:
  msccrafter resolve 1772
  msccrafter resolve 1772 --full --json
  msccrafter resolve 1772 --offline`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().Bool("full", false, "Resolve threads, implementations and checklist data")
	resolveCmd.Flags().Bool("no-cache", false, "Skip the local cache and resolve remotely")
	resolveCmd.Flags().Bool("offline", false, "Serve from the local cache even when entries are expired")
	resolveCmd.Flags().Bool("json", false, "Print the full record as JSON")
	resolveCmd.Flags().String("token", "", "GitHub API token")
}

func runResolve(cmd *cobra.Command, args []string) error {
	number, err := strconv.Atoi(args[0])
	if err != nil || number <= 0 {
		return fmt.Errorf("invalid proposal number: %s", args[0])
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if token, _ := cmd.Flags().GetString("token"); token != "" {
		cfg.GitHub.Token = token
	}

	full, _ := cmd.Flags().GetBool("full")
	noCache, _ := cmd.Flags().GetBool("no-cache")
	offline, _ := cmd.Flags().GetBool("offline")
	asJSON, _ := cmd.Flags().GetBool("json")

	svc, err := newService(cfg, offline)
	if err != nil {
		return err
	}

	m, err := svc.Load(context.Background(), number, full, !noCache)
	if err != nil {
		return err
	}

	if asJSON {
		data, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode proposal: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	printProposal(m)
	return nil
}

// newService wires the cache-fronted resolver from configuration.
func newService(cfg *config.Config, offline bool) (*resolve.Service, error) {
	dir := cfg.Cache.Dir
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		dir = cwd
	}

	store := cache.NewFileStore(dir)
	if err := store.Load(); err != nil {
		return nil, fmt.Errorf("failed to load cache: %w", err)
	}

	var cacheOpts []cache.Option
	if cfg.Cache.Namespace != "" {
		cacheOpts = append(cacheOpts, cache.WithNamespace(cfg.Cache.Namespace))
	}
	c := cache.New(store, cacheOpts...)

	client := github.NewClient(cfg.GitHub.Token)
	resolver := resolve.NewResolver(client, github.NewRawFetcher(), resolve.Config{
		Owner:         cfg.GitHub.Owner,
		Repo:          cfg.GitHub.Repo,
		BotLogin:      cfg.GitHub.BotLogin,
		DefaultBranch: cfg.GitHub.DefaultBranch,
	})

	return resolve.NewService(resolver, c, resolve.WithOnlineFunc(func() bool { return !offline })), nil
}

func printProposal(m *msc.MSC) {
	fmt.Printf("MSC%d: %s\n", m.PRNumber, m.Title)
	fmt.Printf("  State:   %s\n", m.State)
	fmt.Printf("  Author:  %s\n", m.Author)
	if len(m.Kind) > 0 {
		fmt.Printf("  Kind:    %s\n", strings.Join(m.Kind, ", "))
	}
	fmt.Printf("  Updated: %s\n", m.Updated.Format(time.RFC3339))
	fmt.Printf("  URL:     %s\n", m.URL)

	if len(m.MentionedMSCs) > 0 {
		refs := make([]string, len(m.MentionedMSCs))
		for i, n := range m.MentionedMSCs {
			refs[i] = fmt.Sprintf("MSC%d", n)
		}
		fmt.Printf("  Mentions: %s\n", strings.Join(refs, ", "))
	}

	if len(m.Implementations) > 0 {
		fmt.Println("  Implementations:")
		for _, impl := range m.Implementations {
			fmt.Printf("    %s (%s)\n", impl.Title, impl.URL)
		}
	}

	if m.ProposalState != nil {
		members := make([]string, 0, len(m.ProposalState))
		for member := range m.ProposalState {
			members = append(members, member)
		}
		sort.Strings(members)

		fmt.Println("  Checklist:")
		for _, member := range members {
			mark := " "
			if m.ProposalState[member] {
				mark = "x"
			}
			fmt.Printf("    [%s] @%s\n", mark, member)
		}
	}

	if m.ClosingComment != nil {
		fmt.Printf("  Closed by @%s: %s\n", m.ClosingComment.Author, firstLine(m.ClosingComment.Body))
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
