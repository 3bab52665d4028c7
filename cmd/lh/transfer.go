package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nikbrunner/linkhub/internal/config"
	"github.com/nikbrunner/linkhub/internal/model"
	"github.com/nikbrunner/linkhub/internal/repository"
	"github.com/nikbrunner/linkhub/internal/transfer"
)

func newExportCmd(overrides *config.Overrides) *cobra.Command {
	var formatName string

	cmd := &cobra.Command{
		Use:   "export [path]",
		Short: "Export all links as a JSON backup or an HTML bookmarks file",
		Long: `Export all links. The format follows --format, else the file extension,
else JSON. Without a path the file goes to ~/Downloads.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}

			format := transfer.FormatJSON
			switch {
			case formatName != "":
				f, err := transfer.ParseFormat(formatName)
				if err != nil {
					return err
				}
				format = f
			case path != "":
				format = transfer.DetectFormat(path)
			}

			if path == "" {
				var err error
				if path, err = transfer.DefaultExportPath(format); err != nil {
					return fmt.Errorf("default export path: %w", err)
				}
			}

			e, err := openEnv(overrides)
			if err != nil {
				return err
			}
			defer e.Close()

			links, err := e.repo.Snapshot(cmd.Context())
			if err != nil {
				return err
			}

			var data []byte
			if format == transfer.FormatHTML {
				data = []byte(transfer.ExportHTML(links))
			} else if data, err = transfer.ExportJSON(links); err != nil {
				return err
			}

			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d links to %s\n", len(links), path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&formatName, "format", "f", "", "json or html")
	return cmd
}

func newImportCmd(overrides *config.Overrides) *cobra.Command {
	var formatName string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import links from a JSON backup or an HTML bookmarks file",
		Long: `Import links. Every valid entry is added as a new link; entries without
a title or an http(s) url are skipped and reported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			format := transfer.DetectFormat(path)
			if formatName != "" {
				f, err := transfer.ParseFormat(formatName)
				if err != nil {
					return err
				}
				format = f
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read import file: %w", err)
			}

			var (
				links     []model.Link
				parseErrs []error
			)
			if format == transfer.FormatHTML {
				links, err = transfer.ParseHTML(bytes.NewReader(data))
			} else {
				links, parseErrs, err = transfer.ParseJSON(data)
			}
			if err != nil {
				return err
			}

			e, err := openEnv(overrides)
			if err != nil {
				return err
			}
			defer e.Close()

			writer := repository.NewWriter(e.repo, e.logger)
			summary, err := transfer.Import(cmd.Context(), writer.Blocking(), links, parseErrs)
			writer.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Imported %d links", summary.Imported)
			if summary.Skipped > 0 {
				fmt.Fprintf(out, " (%d skipped)", summary.Skipped)
			}
			fmt.Fprintln(out)
			for _, skipErr := range summary.Errors {
				var parseErr *transfer.ImportParseError
				if errors.As(skipErr, &parseErr) {
					fmt.Fprintf(out, "  entry %d: %s\n", parseErr.Index, parseErr.Reason)
				} else {
					fmt.Fprintf(out, "  %v\n", skipErr)
				}
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&formatName, "format", "f", "", "json or html (default from the file extension)")
	return cmd
}
