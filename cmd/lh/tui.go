package main

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nikbrunner/linkhub/internal/config"
	"github.com/nikbrunner/linkhub/internal/meta"
	"github.com/nikbrunner/linkhub/internal/model"
	"github.com/nikbrunner/linkhub/internal/picker"
	"github.com/nikbrunner/linkhub/internal/repository"
	"github.com/nikbrunner/linkhub/internal/search"
	"github.com/nikbrunner/linkhub/internal/tui"
	"github.com/nikbrunner/linkhub/internal/view"
)

// runTUI runs the full interactive TUI.
func runTUI(cmd *cobra.Command, overrides *config.Overrides) error {
	e, err := openEnv(overrides)
	if err != nil {
		return err
	}
	defer e.Close()

	prefs, err := e.settings()
	if err != nil {
		return err
	}

	writer := repository.NewWriter(e.repo, e.logger)
	defer writer.Close()

	engine := view.NewEngine(view.EngineParams{
		Repo:   e.repo,
		Writer: writer,
		Logger: e.logger,
	})
	defer engine.Close()

	app := tui.NewApp(tui.AppParams{
		Engine:   engine,
		Settings: prefs,
		Fetch: func(ctx context.Context, url string) (string, error) {
			// proxy settings may change while the TUI runs
			client, err := meta.NewHTTPClient(prefs.Get(), meta.DefaultTimeout)
			if err != nil {
				return "", err
			}
			return meta.FetchTitle(ctx, client, url)
		},
		Open: func(url, _ string) error { return openURL(url) },
		Copy: clipboard.WriteAll,
	})
	defer app.Close()

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run app: %w", err)
	}
	return nil
}

// runQuickOpen performs a fuzzy search and opens the selected link.
func runQuickOpen(cmd *cobra.Command, overrides *config.Overrides, args []string) error {
	e, err := openEnv(overrides)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx := cmd.Context()
	links, err := e.repo.Snapshot(ctx)
	if err != nil {
		return err
	}

	query := joinArgs(args)
	results := search.FuzzyLinks(links, query)
	out := cmd.OutOrStdout()

	if len(results) == 0 {
		fmt.Fprintf(out, "No links found for '%s'\n", query)
		return nil
	}

	var selected model.Link
	if len(results) == 1 {
		// Single result - select it directly
		selected = results[0].Link
		fmt.Fprintf(out, "Opening: %s\n", selected.Title)
	} else {
		program := tea.NewProgram(picker.New(results, query), tea.WithContext(ctx))
		finalModel, err := program.Run()
		if err != nil {
			return fmt.Errorf("run picker: %w", err)
		}
		var ok bool
		selected, ok = finalModel.(picker.Picker).Selected()
		if !ok {
			return nil
		}
	}

	if err := e.repo.RecordOpen(ctx, selected.ID); err != nil {
		e.logger.Warn("record open", "id", selected.ID, "err", err)
	}
	return openURL(selected.URL)
}
