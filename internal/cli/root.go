// Package cli wires the hdrbatch root command: flag and overlay parsing,
// logger setup, and dispatch to check mode or the batch pipeline.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/backmassage/hdrbatch/internal/check"
	"github.com/backmassage/hdrbatch/internal/config"
	"github.com/backmassage/hdrbatch/internal/converter"
	"github.com/backmassage/hdrbatch/internal/display"
	"github.com/backmassage/hdrbatch/internal/logging"
	"github.com/backmassage/hdrbatch/internal/pipeline"
	"github.com/backmassage/hdrbatch/internal/term"
)

// ErrCheckFailed is returned by --check when the converter is unusable.
var ErrCheckFailed = errors.New("system check failed")

// Env bundles the process environment the root command reads, so tests can
// substitute their own.
type Env struct {
	LookupEnv func(string) (string, bool)
	Getwd     func() (string, error)
	Executor  converter.Executor
}

// DefaultEnv returns the real process environment.
func DefaultEnv() Env {
	return Env{
		LookupEnv: os.LookupEnv,
		Getwd:     os.Getwd,
		Executor:  converter.ProcessExecutor{},
	}
}

// NewRootCmd creates the root command using the real process environment.
func NewRootCmd(ver, commit string) *cobra.Command {
	return NewRootCmdWithEnv(ver, commit, DefaultEnv())
}

// NewRootCmdWithEnv creates the root command with an explicit environment.
func NewRootCmdWithEnv(ver, commit string, env Env) *cobra.Command {
	cfg := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "hdrbatch [flags] <directory> [converter-args...]",
		Short: "Batch-convert PQ HDR TIFF files with an external converter",
		Long: "hdrbatch runs the HDR converter once for every .tif file in a directory,\n" +
			"eight at a time, writing results next to the inputs. Arguments after the\n" +
			"directory are passed to every converter invocation unchanged.",
		Version:       fmt.Sprintf("%s (%s)", ver, commit),
		Example:       rootCmdExample,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	flags := config.BindFlags(cmd.Flags(), &cfg)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(&cfg, flags, args, env); err != nil {
			return err
		}
		return run(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), &cfg, env)
	}
	return cmd
}

// loadConfig layers defaults, the YAML file, the environment and explicit
// flags, then takes the positional arguments and validates the result.
func loadConfig(cfg *config.Config, flags *config.Flags, args []string, env Env) error {
	flags.Apply(cfg)

	fc, err := config.LoadFile(cfg.ConfigFile, !flags.Changed("config"))
	if err != nil {
		return err
	}
	config.ApplyFile(cfg, fc, flags)

	if err := config.ApplyEnv(cfg, env.LookupEnv, flags); err != nil {
		return err
	}
	if err := config.ParseArgs(cfg, args); err != nil {
		return err
	}
	return cfg.Validate()
}

// run executes one hdrbatch invocation once cfg is final. Per-file failures
// are logged by the pipeline and do not produce an error.
func run(ctx context.Context, stdout, stderr io.Writer, cfg *config.Config, env Env) error {
	log, err := logging.New(cfg, stdout, stderr)
	if err != nil {
		return err
	}
	defer log.Close()

	if term.Enabled() {
		display.PrintBanner(stdout)
	}

	cwd, err := env.Getwd()
	if err != nil {
		return fmt.Errorf("resolving working directory: %w", err)
	}

	if cfg.CheckOnly {
		if !check.RunCheck(cfg, log, cwd) {
			return ErrCheckFailed
		}
		return nil
	}

	req, err := pipeline.NewRequest(cfg, cwd)
	if err != nil {
		return err
	}

	pipeline.Run(ctx, req, env.Executor, log)
	return nil
}

// Execute runs cmd and maps its result to a process exit code. Errors are
// written to the command's stderr as "hdrbatch: <message>".
func Execute(cmd *cobra.Command) int {
	err := cmd.Execute()
	if err == nil {
		return 0
	}
	w := cmd.ErrOrStderr()
	fmt.Fprintf(w, "hdrbatch: %v\n", err)
	if errors.Is(err, config.ErrUsage) {
		fmt.Fprintf(w, "Run 'hdrbatch --help' for usage.\n")
	}
	return 1
}

const rootCmdExample = `  # Convert every .tif in a directory
  hdrbatch ~/Pictures/hdr

  # Pass options through to the converter
  hdrbatch ~/Pictures/hdr -q 0.9 -f jpg

  # Show what would run
  hdrbatch --dry-run ~/Pictures/hdr

  # Check that the converter is usable
  hdrbatch --check`
