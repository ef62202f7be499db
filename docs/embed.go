// Copyright © 2024 The vbalint authors

// Package docs embeds the vbalint user guide for use by the CLI.
package docs

import _ "embed"

// Guide covers annotations, configuration and the quick fix workflow.
//
//go:embed guide.md
var Guide string
