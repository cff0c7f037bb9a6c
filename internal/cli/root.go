// Package cli implements the msccrafter command line interface.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/andywolf/msccrafter/internal/version"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "msccrafter",
	Short: "msccrafter - Matrix spec proposal resolution and caching",
	Long: `msccrafter resolves Matrix Spec Change proposals from their pull requests:
state classification, cross-references, implementation links, review checklists
and the proposal document itself, with a local cache for offline reading.

Example:
  msccrafter resolve 1772 --full`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Set version for --version flag
	rootCmd.Version = version.Short()
	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .msccrafter.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable verbose output")
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error getting working directory:", err)
			os.Exit(1)
		}

		viper.AddConfigPath(cwd)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".msccrafter")
	}

	viper.SetEnvPrefix("MSCCRAFTER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}
