// Copyright © 2024 The vbalint authors

package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/luthersystems/vbalint/export"
	"github.com/luthersystems/vbalint/inspection"
)

// ExportCommand creates the "export" cobra command.
func ExportCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts)

	var (
		format   string
		output   string
		title    string
		input    string
		tests    bool
		excludes []string
	)

	cmd := &cobra.Command{
		Use:           "export [flags] [paths...]",
		Short:         "Export inspection results or test lists as a table",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `Export inspection results or unit test lists as a table.

By default the project is inspected and its results are exported.  With
--tests the '@TestMethod procedures of the project are exported as test
results with an Unknown outcome.  With --input a CSV table written by a
previous export, such as recorded test results, is converted to another
format; no project is loaded.

Formats:
  csv   comma separated values, title on the first record
  html  HTML clipboard fragment
  rtf   rich text table
  xml   XML Spreadsheet 2003

The format defaults to the extension of --output, or csv.

Examples:
  vbalint export -o results.xml ./src        # Inspection results for Excel
  vbalint export --tests -o tests.csv ./src  # List unit tests
  vbalint export --input tests.csv -f html   # Convert a recorded run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := exportFormat(format, output)
			if err != nil {
				return usageError(err)
			}
			table, err := exportTable(cmd, cfg, args, excludes, input, title, tests)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				file, err := os.Create(output)
				if err != nil {
					return err
				}
				defer file.Close() //nolint:errcheck // closed explicitly below
				if err := export.Write(file, f, table); err != nil {
					return fmt.Errorf("%s: %w", output, err)
				}
				return file.Close()
			}
			return export.Write(w, f, table)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "",
		"Output format: csv, html, rtf or xml.")
	cmd.Flags().StringVarP(&output, "output", "o", "",
		"Output file (default stdout).")
	cmd.Flags().StringVar(&title, "title", "",
		"Table title (default depends on the table).")
	cmd.Flags().StringVar(&input, "input", "",
		"Convert a CSV table instead of loading a project.")
	cmd.Flags().BoolVar(&tests, "tests", false,
		"Export the unit tests of the project instead of inspection results.")
	cmd.Flags().StringArrayVar(&excludes, "exclude", nil,
		"Glob pattern for files to exclude (may be repeated).")
	return cmd
}

func exportFormat(format, output string) (export.Format, error) {
	if format != "" {
		return export.ParseFormat(format)
	}
	if ext := filepath.Ext(output); ext != "" {
		return export.ParseFormat(ext)
	}
	return export.FormatCSV, nil
}

func exportTable(cmd *cobra.Command, cfg *cmdConfig, args, excludes []string, input, title string, tests bool) (*export.Table, error) {
	if input != "" {
		return readTable(input, title, tests)
	}
	ws, err := openWorkspace(cfg, cmd.ErrOrStderr(), args, excludes)
	if err != nil {
		return nil, err
	}
	if tests {
		table, err := ws.session.Parse(cmd.Context())
		if err != nil {
			return nil, err
		}
		if title == "" {
			title = "Test Results"
		}
		return export.TestResultTable(title, export.DiscoverTests(table)), nil
	}
	report, err := ws.session.Inspect(cmd.Context())
	if err != nil {
		return nil, err
	}
	if report.State != inspection.StateCompleted {
		return nil, fmt.Errorf("inspection %s", report.State)
	}
	if title == "" {
		title = "Inspection Results"
	}
	return export.ResultsTable(title, report.Results), nil
}

// readTable reads a CSV table.  Test result tables are validated and
// normalized.
func readTable(path, title string, tests bool) (*export.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, usageError(err)
	}
	defer f.Close() //nolint:errcheck // read only
	table, err := export.ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if title != "" {
		table.Title = title
	}
	if !tests {
		return table, nil
	}
	results, err := export.TestResults(table)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return export.TestResultTable(table.Title, results), nil
}
