package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/nikbrunner/linkhub/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var overrides config.Overrides

	rootCmd := &cobra.Command{
		Use:   "lh [query]",
		Short: "LinkHub - a vim-style link collection",
		Long: `LinkHub keeps a collection of links with categories, favorites and open counts.

Run without arguments to open the interactive TUI, or pass a query to
fuzzy-search your links and open the chosen one in the browser.

Data lives in ~/.config/linkhub unless --data-dir or LH_DATA_DIR says otherwise.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return runQuickOpen(cmd, &overrides, args)
			}
			return runTUI(cmd, &overrides)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&overrides.DataDir, "data-dir", "", "data directory (default ~/.config/linkhub)")
	flags.StringVar(&overrides.Backend, "backend", "", "storage backend: sqlite or json")
	flags.StringVar(&overrides.LogLevel, "log-level", "", "log level: debug, info, warn or error")

	rootCmd.AddCommand(
		newAddCmd(&overrides),
		newListCmd(&overrides),
		newExportCmd(&overrides),
		newImportCmd(&overrides),
		newCheckCmd(&overrides),
		newMigrateCmd(&overrides),
		newSettingsCmd(&overrides),
	)
	return rootCmd
}
