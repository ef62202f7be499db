// Copyright © 2024 The vbalint authors

package inspection

import "github.com/luthersystems/vbalint/analysis"

// Filter returns the results not suppressed by an annotation, preserving
// order.  Faults and syntax results are never suppressed.
func Filter(table *analysis.Table, results []*Result) []*Result {
	out := results[:0:0]
	for _, r := range results {
		if !Suppressed(table, r) {
			out = append(out, r)
		}
	}
	return out
}

// Suppressed reports whether an '@Ignore or '@IgnoreModule annotation in
// the result's module covers the result's start line and names its
// inspection.
func Suppressed(table *analysis.Table, r *Result) bool {
	if r.Kind == KindFault || r.Kind == KindSyntax || r.Location == nil {
		return false
	}
	info := table.Module(r.Module)
	if info == nil {
		return false
	}
	return info.Annotations.Suppresses(r.Location.Line, r.Inspection)
}
