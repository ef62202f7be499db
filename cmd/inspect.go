// Copyright © 2024 The vbalint authors

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/luthersystems/vbalint/inspection"
)

// InspectCommand creates the "inspect" cobra command.  Embedders can pass
// WithRegistry to run their own inspections.
func InspectCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts)

	var (
		jsonOut  bool
		plain    bool
		checks   string
		listAll  bool
		excludes []string
	)

	cmd := &cobra.Command{
		Use:           "inspect [flags] [paths...]",
		Short:         "Run code inspections on VBA component files",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `Run code inspections on VBA component files.

Every component file named on the command line is loaded into one project
and inspected as a whole, so that references between modules resolve.
Directories and paths ending in "/..." are searched recursively for .bas,
.cls, .frm and .doccls files.  With no paths the working directory is
searched.

Results are rendered as annotated source snippets on stderr.  Use --json
or --plain for machine-readable output on stdout.

Exit codes:
  0  No results
  1  One or more results were reported
  2  Bad invocation (invalid flags, unreadable files)

To suppress a result, annotate the line above the declaration or statement:
  '@Ignore ProcedureNotUsed
To suppress an inspection for a whole module, add near the top:
  '@IgnoreModule ProcedureNotUsed

Available inspections (use --checks to select specific ones):
` + inspectionList(inspection.DefaultRegistry()) + `
Examples:
  vbalint inspect ./src                         # Inspect a directory
  vbalint inspect Module1.bas Class1.cls        # Inspect selected files
  vbalint inspect --json ./src                  # Output results as JSON
  vbalint inspect --checks=ProcedureNotUsed .   # Run only specific checks
  vbalint inspect --exclude=vendor ./...        # Exclude a directory`,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := cfg.resolveRegistry()
			if listAll {
				for _, name := range reg.Names() {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			}
			sel, err := selectInspections(reg, checks)
			if err != nil {
				return usageError(err)
			}
			runCfg := *cfg
			runCfg.registry = sel

			ws, err := openWorkspace(&runCfg, cmd.ErrOrStderr(), args, excludes)
			if err != nil {
				return err
			}
			report, err := ws.session.Inspect(cmd.Context())
			if err != nil {
				return err
			}
			if report.State != inspection.StateCompleted {
				return fmt.Errorf("inspection %s", report.State)
			}
			ws.logger.Debug("inspection finished", "results", len(report.Results), "elapsed", report.Duration())

			switch {
			case jsonOut:
				if err := inspection.FormatJSON(cmd.OutOrStdout(), report.Results); err != nil {
					return err
				}
			case plain:
				inspection.FormatText(cmd.OutOrStdout(), report.Results)
			default:
				if err := renderResults(cmd.ErrOrStderr(), ws, report.Results); err != nil {
					return err
				}
			}
			if len(report.Results) > 0 {
				return &exitError{code: 1}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false,
		"Output results as JSON.")
	cmd.Flags().BoolVar(&plain, "plain", false,
		"Output results one per line in module:line:col format.")
	cmd.Flags().StringVar(&checks, "checks", "",
		"Comma-separated list of inspections to run (default: all).")
	cmd.Flags().BoolVar(&listAll, "list", false,
		"List available inspections and exit.")
	cmd.Flags().StringArrayVar(&excludes, "exclude", nil,
		"Glob pattern for files to exclude (may be repeated).")
	return cmd
}

// selectInspections returns the registry of the comma-separated names in
// checks, or reg itself when checks is empty.
func selectInspections(reg *inspection.Registry, checks string) (*inspection.Registry, error) {
	if strings.TrimSpace(checks) == "" {
		return reg, nil
	}
	var selected []*inspection.Inspection
	seen := make(map[*inspection.Inspection]bool)
	for _, name := range strings.Split(checks, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		insp, ok := reg.Lookup(name)
		if !ok {
			msg := fmt.Sprintf("unknown inspection: %s", name)
			if sugg := reg.Suggest(name); len(sugg) > 0 {
				msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(sugg, " or "))
			}
			return nil, fmt.Errorf("%s", msg)
		}
		if !seen[insp] {
			seen[insp] = true
			selected = append(selected, insp)
		}
	}
	return inspection.NewRegistry(selected...), nil
}

// inspectionList formats one line per inspection of reg.
func inspectionList(reg *inspection.Registry) string {
	var sb strings.Builder
	writeInspectionList(&sb, reg)
	return sb.String()
}

func writeInspectionList(w io.Writer, reg *inspection.Registry) {
	for _, insp := range reg.All() {
		fmt.Fprintf(w, "  %-36s %s\n", insp.Name, insp.Summary())
	}
}
