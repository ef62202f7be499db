// Copyright © 2024 The vbalint authors

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vbalint",
	Short: "vbalint: static analysis for VBA projects",
	Long: `vbalint inspects the source of VBA projects exported as component files
(.bas, .cls, .frm, .doccls) and reports likely mistakes, dead code and
obsolete constructs.  Most findings come with quick fixes.

Getting started:
  vbalint inspect ./src          Inspect every component under ./src
  vbalint inspect --json ./src   Print results as JSON
  vbalint fix ./src              Apply the preferred quick fixes
  vbalint doc ProcedureNotUsed   Show documentation for an inspection
  vbalint export -o out.csv ./src  Export results as a table
  vbalint lsp                    Start the language server

Configuration is read from .vbalint.yaml in the working directory or the
home directory, from VBALINT_* environment variables and from a .env file
in the working directory.  Keys:

  project               project name (default VBAProject)
  references            referenced projects in priority order
  builtins              extra library declarations (TOML)
  jobs                  concurrent modules (default: one per CPU)
  log-level             trace, debug, info, warn or error
  color                 auto, always or never
  inspections.disabled  inspection names that never run
  inspections.severity  map of inspection name to severity
  host.name             host application, informational
  host.entry-points     procedures the host calls by itself`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// exitError carries a process exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

// usageError wraps err as a bad invocation.
func usageError(err error) error {
	return &exitError{code: 2, err: err}
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	os.Exit(run(rootCmd, os.Args[1:]))
}

func run(cmd *cobra.Command, args []string) int {
	cmd.SetArgs(args)
	err := cmd.Execute()
	if err == nil {
		return 0
	}
	var exit *exitError
	if errors.As(err, &exit) {
		if exit.err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "vbalint:", exit.err)
		}
		return exit.code
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "vbalint:", err)
	return 1
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./.vbalint.yaml or $HOME/.vbalint.yaml)")
	flags.String("color", "auto", `Control colored output: "auto", "always", or "never".`)
	flags.String("log-level", "warn", "Log level: trace, debug, info, warn, or error.")
	flags.String("project", "", "Project name of the loaded components.")
	flags.Int("jobs", 0, "Modules processed concurrently (default: one per CPU).")
	for _, name := range []string{"color", "log-level", "project", "jobs"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}

	rootCmd.AddCommand(InspectCommand())
	rootCmd.AddCommand(FixCommand())
	rootCmd.AddCommand(DocCommand())
	rootCmd.AddCommand(ExportCommand())
	rootCmd.AddCommand(LSPCommand())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "vbalint: reading .env:", err)
	}
	if err := readConfig(viper.GetViper(), cfgFile); err != nil {
		fmt.Fprintln(os.Stderr, "vbalint:", err)
		os.Exit(2)
	}
}

// readConfig configures v from file, or from .vbalint.yaml in the working
// directory or home directory when file is empty, and from the environment.
// A missing default config file is not an error.
func readConfig(v *viper.Viper, file string) error {
	v.SetEnvPrefix("VBALINT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(".vbalint")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}
