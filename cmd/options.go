// Copyright © 2024 The vbalint authors

package cmd

import (
	"github.com/spf13/viper"

	"github.com/luthersystems/vbalint/analysis"
	"github.com/luthersystems/vbalint/inspection"
)

// Option configures an exported command factory (InspectCommand,
// DocCommand, ...).
type Option func(*cmdConfig)

type cmdConfig struct {
	registry *inspection.Registry
	builtins *analysis.BuiltinSet
	viper    *viper.Viper
}

// WithRegistry injects the inspections to run in place of the built-in
// registry.  Embedders use it to add host-specific inspections.
func WithRegistry(reg *inspection.Registry) Option {
	return func(c *cmdConfig) { c.registry = reg }
}

// WithBuiltins injects the library declarations used for name resolution,
// replacing the embedded set and the builtins setting.
func WithBuiltins(set *analysis.BuiltinSet) Option {
	return func(c *cmdConfig) { c.builtins = set }
}

// WithViper reads settings from v instead of the global configuration.
func WithViper(v *viper.Viper) Option {
	return func(c *cmdConfig) { c.viper = v }
}

func newCmdConfig(opts []Option) *cmdConfig {
	cfg := &cmdConfig{}
	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

func (c *cmdConfig) settings() (*settings, error) {
	v := c.viper
	if v == nil {
		v = viper.GetViper()
	}
	s, err := loadSettings(v)
	if err != nil {
		return nil, usageError(err)
	}
	return s, nil
}

// resolveRegistry returns the injected registry or the default one.
func (c *cmdConfig) resolveRegistry() *inspection.Registry {
	if c.registry != nil {
		return c.registry
	}
	return inspection.DefaultRegistry()
}
