package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"simple-cache/internal/clock"
)

func main() {
	// Get the name of this binary, eliminating any path information
	progName := os.Args[0]
	progName = progName[strings.LastIndex(progName, "/")+1:]

	rootCmd := newRootCmd(progName, clock.System{})
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(progName string, clk clock.Clock) *cobra.Command {
	opts := &globalOptions{clock: clock.OrSystem(clk)}

	rootCmd := &cobra.Command{
		Use:   progName,
		Short: "Inspect and edit a TTL key-value cache",
		Long: "Inspect and edit a TTL key-value cache stored in SQLite, Bolt or Redis.\n" +
			"Settings come from CACHE_* environment variables or an env file.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return fmt.Errorf("a subcommand is required")
		},
	}

	// Disable completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.envFile, "env-file", ".env", "env file to load before reading CACHE_* variables")
	flags.StringVar(&opts.driver, "driver", "", "override CACHE_DRIVER (memory, sqlite, bolt, redis)")
	flags.IntVar(&opts.defaultTTL, "default-ttl", 0, "override CACHE_DEFAULT_TTL in seconds; 0 or less makes default-TTL sets delete")

	rootCmd.AddCommand(
		getCmd(opts),
		setCmd(opts),
		deleteCmd(opts),
		hasCmd(opts),
		keysCmd(opts),
		clearCmd(opts),
		expiresCmd(opts),
		ttlCmd(opts),
		mgetCmd(opts),
		msetCmd(opts),
		mdelCmd(opts),
	)

	return rootCmd
}
