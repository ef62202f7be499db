// Copyright © 2024 The vbalint authors

package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"

	"github.com/luthersystems/vbalint/docs"
	"github.com/luthersystems/vbalint/inspection"
)

// DocCommand creates the "doc" cobra command.
func DocCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts)

	var (
		width    int
		category string
		guide    bool
	)

	cmd := &cobra.Command{
		Use:           "doc [flags] [INSPECTION]",
		Short:         "Show documentation for inspections",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `Show documentation for code inspections.

With no argument, lists every inspection grouped by category with a one
line summary.  With an inspection name, shows its full documentation, its
default severity and the quick fixes its results offer.  Names are matched
without regard to case and the "Inspection" suffix is optional.

Examples:
  vbalint doc                         List all inspections
  vbalint doc --category CodeQuality  List the inspections of a category
  vbalint doc ProcedureNotUsed        Show docs for one inspection
  vbalint doc --guide                 Show the guide to annotations and settings`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := cfg.resolveRegistry()
			out := cmd.OutOrStdout()
			if guide {
				_, err := io.WriteString(out, docs.Guide)
				return err
			}
			if len(args) == 0 {
				writeCategories(out, reg, category, width)
				return nil
			}
			insp, ok := reg.Lookup(args[0])
			if !ok {
				msg := fmt.Sprintf("no inspection named %s", args[0])
				if sugg := reg.Suggest(args[0]); len(sugg) > 0 {
					msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(sugg, " or "))
				}
				return &exitError{code: 1, err: fmt.Errorf("%s", msg)}
			}
			writeInspectionDoc(out, insp, width)
			return nil
		},
	}

	cmd.Flags().IntVarP(&width, "width", "w", 80,
		"Wrap documentation at this many columns.")
	cmd.Flags().StringVarP(&category, "category", "c", "",
		"Only list inspections of this category.")
	cmd.Flags().BoolVarP(&guide, "guide", "g", false,
		"Show the guide to annotations, configuration and quick fixes.")
	return cmd
}

func writeCategories(w io.Writer, reg *inspection.Registry, category string, width int) {
	byCategory := make(map[string][]*inspection.Inspection)
	for _, insp := range reg.All() {
		if category != "" && !strings.EqualFold(category, insp.Category) {
			continue
		}
		byCategory[insp.Category] = append(byCategory[insp.Category], insp)
	}
	cats := make([]string, 0, len(byCategory))
	for c := range byCategory {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	for i, c := range cats {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s:\n", c)
		insps := byCategory[c]
		sort.Slice(insps, func(i, j int) bool { return insps[i].Name < insps[j].Name })
		for _, insp := range insps {
			summary := wordwrap.String(insp.Summary(), max(width-40, 20))
			summary = strings.ReplaceAll(summary, "\n", "\n"+strings.Repeat(" ", 40))
			fmt.Fprintf(w, "  %-36s  %s\n", insp.Name, summary)
		}
	}
}

func writeInspectionDoc(w io.Writer, insp *inspection.Inspection, width int) {
	fmt.Fprintf(w, "%s (%s, default severity %s)\n\n", insp.Name, insp.Category, insp.Severity)
	fmt.Fprintln(w, indent.String(formatDoc(insp.Doc, width-2), 2))
	if len(insp.Fixes) > 0 {
		fmt.Fprintf(w, "\nQuick fixes:\n")
		for _, f := range insp.Fixes {
			fmt.Fprintf(w, "  %s\n", f)
		}
	}
}

// formatDoc rewraps the paragraphs of doc to width.  Indented lines are
// code samples and are kept as written.
func formatDoc(doc string, width int) string {
	var (
		out  []string
		para []string
	)
	flush := func() {
		if len(para) > 0 {
			out = append(out, wordwrap.String(strings.Join(para, " "), width))
			para = nil
		}
	}
	for _, line := range strings.Split(strings.TrimSpace(doc), "\n") {
		switch {
		case strings.TrimSpace(line) == "":
			flush()
			out = append(out, "")
		case line[0] == ' ' || line[0] == '\t':
			flush()
			out = append(out, line)
		default:
			para = append(para, strings.TrimSpace(line))
		}
	}
	flush()
	return strings.Join(out, "\n")
}
