// Copyright © 2024 The vbalint authors

package cmd

import (
	"fmt"
	"io"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/luthersystems/vbalint/analysis"
	"github.com/luthersystems/vbalint/project"
	"github.com/luthersystems/vbalint/session"
)

// workspace is a loaded project and the session analyzing it.
type workspace struct {
	settings *settings
	logger   hclog.Logger
	project  *project.Project
	session  *session.Session
}

// openWorkspace loads the component files named by args into a new
// session.  Files that cannot be read are reported as warnings; it is an
// error only when nothing could be loaded.
func openWorkspace(cfg *cmdConfig, stderr io.Writer, args, excludes []string) (*workspace, error) {
	s, err := cfg.settings()
	if err != nil {
		return nil, err
	}
	logger := s.logger(stderr)

	paths, err := expandArgs(args, excludes)
	if err != nil {
		return nil, usageError(err)
	}
	if len(paths) == 0 {
		return nil, usageError(fmt.Errorf("no component files found"))
	}
	proj, err := project.LoadFiles(paths, &project.Options{
		Name:   s.Project,
		Logger: logger.Named("project"),
	})
	if err != nil {
		if merr, ok := err.(*multierror.Error); ok {
			for _, e := range merr.Errors {
				logger.Warn("skipping file", "error", e)
			}
		} else {
			logger.Warn("loading project", "error", err)
		}
		if proj == nil || len(proj.Files) == 0 {
			return nil, usageError(err)
		}
	}

	sess, err := s.newSession(cfg, logger)
	if err != nil {
		return nil, err
	}
	proj.Open(sess)
	return &workspace{settings: s, logger: logger, project: proj, session: sess}, nil
}

// path returns the file a result's module was loaded from.
func (w *workspace) path(name analysis.QualifiedModuleName) string {
	if f := w.project.File(name); f != nil {
		return f.Path
	}
	return name.Component
}
