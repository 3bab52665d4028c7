package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nikbrunner/linkhub/internal/config"
	"github.com/nikbrunner/linkhub/internal/health"
	"github.com/nikbrunner/linkhub/internal/meta"
)

func newCheckCmd(overrides *config.Overrides) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check links for dead or unreachable targets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(overrides)
			if err != nil {
				return err
			}
			defer e.Close()

			prefs, err := e.settings()
			if err != nil {
				return err
			}
			client, err := meta.NewHTTPClient(prefs.Get(), e.cfg.Check.Timeout)
			if err != nil {
				return err
			}

			links, err := e.repo.Snapshot(cmd.Context())
			if err != nil {
				return err
			}

			results := health.CheckLinks(cmd.Context(), links, health.Options{
				Client:         client,
				Concurrency:    e.cfg.Check.Concurrency,
				ExcludeDomains: e.cfg.Check.ExcludeDomains,
				OnProgress: func(completed, total int) {
					fmt.Fprintf(os.Stderr, "\rChecking %d/%d", completed, total)
				},
			})
			if len(results) > 0 {
				fmt.Fprintln(os.Stderr)
			}

			counts := map[health.Status]int{}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, r := range results {
				counts[r.Status]++
				if r.Status == health.Healthy && !all {
					continue
				}
				reason := r.Error
				if r.StatusCode != 0 {
					reason = fmt.Sprintf("HTTP %d %s", r.StatusCode, reason)
				}
				fmt.Fprintf(tw, "%s\t#%d\t%s\t%s\t%s\n", r.Status, r.Link.ID, r.Link.Title, r.Link.URL, reason)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d healthy, %d dead, %d unreachable\n",
				counts[health.Healthy], counts[health.Dead], counts[health.Unreachable])
			return cmd.Context().Err()
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "also list healthy links")
	return cmd
}
