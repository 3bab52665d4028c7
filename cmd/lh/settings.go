package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nikbrunner/linkhub/internal/config"
	"github.com/nikbrunner/linkhub/internal/settings"
)

func newSettingsCmd(overrides *config.Overrides) *cobra.Command {
	return &cobra.Command{
		Use:   "settings [key [value]]",
		Short: "Show or change settings",
		Long: `Show all settings, one setting, or set one.

Keys: dark_theme, proxy_enabled, proxy_host, proxy_port`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*overrides)
			if err != nil {
				return err
			}
			prefs, err := settings.Open(settings.DefaultPath(cfg.DataDir))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			current := prefs.Get()

			switch len(args) {
			case 0:
				for _, key := range settings.Keys {
					value, _ := current.Lookup(key)
					fmt.Fprintf(out, "%s = %s\n", key, value)
				}
				return nil
			case 1:
				value, err := current.Lookup(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(out, value)
				return nil
			}

			return prefs.Set(func(s *settings.Settings) error {
				return s.Assign(args[0], args[1])
			})
		},
	}
}
