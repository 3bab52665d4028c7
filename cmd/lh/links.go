package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/nikbrunner/linkhub/internal/config"
	"github.com/nikbrunner/linkhub/internal/meta"
	"github.com/nikbrunner/linkhub/internal/model"
	"github.com/nikbrunner/linkhub/internal/view"
)

func joinArgs(args []string) string {
	return strings.Join(args, " ")
}

func newAddCmd(overrides *config.Overrides) *cobra.Command {
	var params model.NewLinkParams
	var favorite, noFetch bool

	cmd := &cobra.Command{
		Use:   "add <url>",
		Short: "Add a link",
		Long:  "Add a link. Without --title the page title is fetched, falling back to the url.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(overrides)
			if err != nil {
				return err
			}
			defer e.Close()

			params.URL = strings.TrimSpace(args[0])
			if params.Title == "" && !noFetch && model.HasValidScheme(params.URL) {
				params.Title = fetchTitle(cmd.Context(), e, params.URL)
			}
			if params.Title == "" {
				params.Title = params.URL
			}

			link := model.NewLink(params)
			link.IsFavorite = favorite
			link, err = e.repo.Insert(cmd.Context(), link)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s [%s] #%d\n", link.Title, link.Category, link.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&params.Title, "title", "", "link title")
	cmd.Flags().StringVar(&params.Category, "category", "", "category (default General)")
	cmd.Flags().StringVar(&params.Notes, "notes", "", "free-form notes")
	cmd.Flags().BoolVar(&favorite, "favorite", false, "mark as favorite")
	cmd.Flags().BoolVar(&noFetch, "no-fetch", false, "do not fetch the page title")
	return cmd
}

// fetchTitle returns the page title of url, or "" when it cannot be fetched.
func fetchTitle(ctx context.Context, e *env, url string) string {
	prefs, err := e.settings()
	if err != nil {
		e.logger.Warn("load settings", "err", err)
		return ""
	}
	client, err := meta.NewHTTPClient(prefs.Get(), meta.DefaultTimeout)
	if err != nil {
		e.logger.Warn("http client", "err", err)
		return ""
	}
	title, err := meta.FetchTitle(ctx, client, url)
	if err != nil {
		e.logger.Info("fetch title", "url", url, "err", err)
		return ""
	}
	return title
}

func newListCmd(overrides *config.Overrides) *cobra.Command {
	var (
		search   string
		sortName string
		filter   string
		category string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print links the way the TUI would show them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := view.DefaultQuery()
			q.Search = search

			if sortName != "" {
				s, ok := model.ParseSortOption(sortName)
				if !ok {
					return fmt.Errorf("unknown sort %q: must be date_desc, date_asc, title_asc or most_visited", sortName)
				}
				q.Sort = s
			}
			if filter != "" {
				f, ok := model.ParseFilterOption(filter)
				if !ok {
					return fmt.Errorf("unknown filter %q: must be all, favorites or category", filter)
				}
				q.Filter = f
			}
			if category != "" {
				q.Filter = model.FilterCategory
				q.Category = &category
			}

			e, err := openEnv(overrides)
			if err != nil {
				return err
			}
			defer e.Close()

			all, err := e.repo.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			favorites := make([]model.Link, 0, len(all))
			for _, l := range all {
				if l.IsFavorite {
					favorites = append(favorites, l)
				}
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tFAV\tTITLE\tCATEGORY\tOPENS\tCREATED\tURL")
			for _, l := range view.Derive(all, favorites, q) {
				fav := ""
				if l.IsFavorite {
					fav = "*"
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\t%s\n",
					l.ID, fav, l.Title, l.Category, l.ClickCount,
					model.Time(l.CreatedAt).Format(time.DateOnly), l.URL)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "case-insensitive search over title, url and category")
	cmd.Flags().StringVar(&sortName, "sort", "", "date_desc, date_asc, title_asc or most_visited")
	cmd.Flags().StringVar(&filter, "filter", "", "all, favorites or category")
	cmd.Flags().StringVarP(&category, "category", "c", "", "only links in this category")
	return cmd
}
