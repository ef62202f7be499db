// Copyright © 2024 The vbalint authors

package cmd

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/luthersystems/vbalint/project"
)

// expandArgs expands arguments into component file paths.  Directories and
// patterns ending with "/..." expand to every component file found
// recursively under them; other arguments pass through unchanged.  No
// arguments means the working directory.  Paths matching an exclude
// pattern are dropped.
func expandArgs(args []string, excludes []string) ([]string, error) {
	if len(args) == 0 {
		args = []string{"./..."}
	}
	var out []string
	for _, arg := range args {
		dir, recursive := strings.CutSuffix(arg, "/...")
		if !recursive {
			if info, err := os.Stat(arg); err == nil && info.IsDir() {
				dir, recursive = arg, true
			}
		}
		if !recursive {
			out = append(out, arg)
			continue
		}
		if dir == "" {
			dir = "."
		}
		files, err := findComponentFiles(dir, excludes)
		if err != nil {
			return nil, fmt.Errorf("expanding %s: %w", arg, err)
		}
		out = append(out, files...)
	}
	return filterExcludes(out, excludes), nil
}

func findComponentFiles(root string, excludes []string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && (strings.HasPrefix(d.Name(), ".") || matchesAny(d.Name(), excludes)) {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := project.ComponentType(path); ok {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// filterExcludes removes paths matching any exclude pattern.
func filterExcludes(paths []string, excludes []string) []string {
	if len(excludes) == 0 {
		return paths
	}
	var out []string
	for _, p := range paths {
		if !matchesAny(p, excludes) {
			out = append(out, p)
		}
	}
	return out
}

// matchesAny reports whether path, its base name or any of its directory
// components matches one of patterns.
func matchesAny(path string, patterns []string) bool {
	path = filepath.ToSlash(path)
	for _, pattern := range patterns {
		if ok, _ := filepath.Match(pattern, path); ok {
			return true
		}
		for _, c := range splitPath(path) {
			if ok, _ := filepath.Match(pattern, c); ok {
				return true
			}
		}
	}
	return false
}

func splitPath(path string) []string {
	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p != "" && p != "." {
			parts = append(parts, p)
		}
	}
	return parts
}
