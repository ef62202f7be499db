// Copyright © 2024 The vbalint authors

package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/luthersystems/vbalint/inspection"
	"github.com/luthersystems/vbalint/quickfix"
)

// maxFixPasses bounds the inspect-and-fix cycles of one invocation.
const maxFixPasses = 10

// FixCommand creates the "fix" cobra command.
func FixCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts)

	var (
		checks   string
		fixName  string
		dryRun   bool
		listAll  bool
		excludes []string
	)

	cmd := &cobra.Command{
		Use:           "fix [flags] [paths...]",
		Short:         "Apply quick fixes to VBA component files",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `Apply quick fixes to VBA component files.

The project is inspected and every result offering a quick fix is fixed
with its preferred fix, or with the fix named by --fix.  Fixes of one
module are applied from the bottom up; the project is inspected again
after each kind of fix until nothing more applies.  Modified files are
written back in their original encoding.

Results whose source changed since inspection, or that a fix cannot
handle, are skipped and counted as unavailable.

Examples:
  vbalint fix ./src                                  # Apply preferred fixes
  vbalint fix --dry-run ./src                        # Show what would change
  vbalint fix --checks=ObsoleteCallStatement ./src   # Fix one inspection
  vbalint fix --fix=IgnoreOnce --checks=ParameterNotUsed ./src`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listAll {
				for _, name := range quickfix.Names() {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			}
			if fixName != "" && !slicesContains(quickfix.Names(), fixName) {
				return usageError(fmt.Errorf("unknown fix: %s", fixName))
			}
			sel, err := selectInspections(cfg.resolveRegistry(), checks)
			if err != nil {
				return usageError(err)
			}
			runCfg := *cfg
			runCfg.registry = sel

			ws, err := openWorkspace(&runCfg, cmd.ErrOrStderr(), args, excludes)
			if err != nil {
				return err
			}
			total, err := applyFixes(cmd, ws, fixName)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			modified := ws.session.Modified()
			if dryRun {
				for _, m := range modified {
					fmt.Fprintf(out, "would modify %s\n", ws.path(m.Name))
				}
			} else {
				written, err := ws.project.Save(modified)
				for _, path := range written {
					fmt.Fprintf(out, "modified %s\n", path)
				}
				if err != nil {
					return err
				}
			}
			fmt.Fprintf(out, "%d fixes applied, %d unavailable\n", total.Applied, total.Unavailable)
			return nil
		},
	}

	cmd.Flags().StringVar(&checks, "checks", "",
		"Comma-separated list of inspections whose results are fixed (default: all).")
	cmd.Flags().StringVar(&fixName, "fix", "",
		"Quick fix to apply (default: the preferred fix of each result).")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false,
		"Report the files that would change without writing them.")
	cmd.Flags().BoolVar(&listAll, "list", false,
		"List available quick fixes and exit.")
	cmd.Flags().StringArrayVar(&excludes, "exclude", nil,
		"Glob pattern for files to exclude (may be repeated).")
	return cmd
}

// applyFixes runs inspect-and-fix passes until a pass applies nothing.
// The unavailable count is that of the last pass.
func applyFixes(cmd *cobra.Command, ws *workspace, fixName string) (quickfix.Summary, error) {
	var total quickfix.Summary
	ctx := cmd.Context()
	for pass := 0; pass < maxFixPasses; pass++ {
		report, err := ws.session.Inspect(ctx)
		if err != nil {
			return total, err
		}
		if report.State != inspection.StateCompleted {
			return total, fmt.Errorf("inspection %s", report.State)
		}
		groups := groupByFix(report.Results, fixName)
		names := make([]string, 0, len(groups))
		for name := range groups {
			names = append(names, name)
		}
		sort.Strings(names)

		// The first kind of fix that changes anything ends the pass; the
		// results of the other kinds are stale once the text changed.
		var sum quickfix.Summary
		for _, name := range names {
			s, err := ws.session.FixAll(ctx, groups[name], name)
			if err != nil {
				return total, err
			}
			ws.logger.Debug("fix applied", "pass", pass, "fix", name, "applied", s.Applied, "unavailable", s.Unavailable)
			sum.Unavailable += s.Unavailable
			if s.Applied > 0 {
				sum.Applied = s.Applied
				break
			}
		}
		total.Applied += sum.Applied
		total.Unavailable = sum.Unavailable
		if sum.Applied == 0 {
			break
		}
	}
	return total, nil
}

// groupByFix maps each fix to the results it applies to.  An empty fixName
// picks the preferred fix of each result: the first one other than
// IgnoreOnce.
func groupByFix(results []*inspection.Result, fixName string) map[string][]*inspection.Result {
	groups := make(map[string][]*inspection.Result)
	for _, r := range results {
		fix := preferredFix(r, fixName)
		if fix != "" {
			groups[fix] = append(groups[fix], r)
		}
	}
	return groups
}

func preferredFix(r *inspection.Result, fixName string) string {
	if fixName != "" {
		if r.HasFix(fixName) {
			return fixName
		}
		return ""
	}
	for _, f := range r.Fixes {
		if f != inspection.FixIgnoreOnce {
			return f
		}
	}
	return ""
}

func slicesContains(ss []string, v string) bool {
	for _, s := range ss {
		if s == v {
			return true
		}
	}
	return false
}
