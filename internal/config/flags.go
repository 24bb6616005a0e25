package config

// This file binds CLI flags onto Config and splits positional arguments.
// Flags are grouped into converter, behavior, and display groups.
// Negated flags (e.g. --no-color) are applied after Parse so Config defaults
// hold unless set.

import (
	"fmt"

	"github.com/spf13/pflag"
)

// Flags holds flag values that are applied to Config after parsing, plus the
// flag set itself so overlays can tell which flags were set explicitly.
type Flags struct {
	fs         *pflag.FlagSet
	forceColor bool
	noColor    bool
}

// BindFlags registers all hdrbatch flags on fs, writing into cfg. The flag
// set stops at the first positional argument so everything after the
// directory reaches the converter untouched.
func BindFlags(fs *pflag.FlagSet, cfg *Config) *Flags {
	f := &Flags{fs: fs}
	fs.SetInterspersed(false)

	defineConverterFlags(fs, cfg)
	defineBehaviorFlags(fs, cfg)
	defineDisplayFlags(fs, cfg, f)
	return f
}

// defineConverterFlags registers --converter.
func defineConverterFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.Converter, "converter", cfg.Converter,
		"Converter executable name (resolved in the working directory) or absolute path")
}

// defineBehaviorFlags registers dry-run, check and config.
func defineBehaviorFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.BoolVarP(&cfg.DryRun, "dry-run", "d", false, "Print converter invocations without running them")
	fs.BoolVarP(&cfg.CheckOnly, "check", "c", false, "Check the converter executable and exit")
	fs.StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "YAML config file (ignored when the default is absent)")
}

// defineDisplayFlags registers --color, --no-color, verbose and --log.
func defineDisplayFlags(fs *pflag.FlagSet, cfg *Config, f *Flags) {
	fs.BoolVar(&f.forceColor, "color", false, "Force colored logs")
	fs.BoolVar(&f.noColor, "no-color", false, "Disable colored logs")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", false, "Verbose output (includes converter stdout)")
	fs.StringVarP(&cfg.LogFile, "log", "l", "", "Append logs to file")
}

// Apply copies negated flag values into cfg.
func (f *Flags) Apply(cfg *Config) {
	if f.noColor {
		cfg.ColorMode = ColorNever
	} else if f.forceColor {
		cfg.ColorMode = ColorAlways
	}
}

// Changed reports whether any of the named flags was set on the command line.
func (f *Flags) Changed(names ...string) bool {
	for _, n := range names {
		if f.fs.Changed(n) {
			return true
		}
	}
	return false
}

// ParseArgs sets Dir and ExtraArgs from the positional arguments. The first
// is the target directory; the rest are copied verbatim. In CheckOnly mode
// no directory is required.
func ParseArgs(cfg *Config, args []string) error {
	if len(args) == 0 {
		if cfg.CheckOnly {
			return nil
		}
		return ErrUsage
	}
	if args[0] == "" {
		return fmt.Errorf("%w: directory must not be empty", ErrUsage)
	}
	cfg.Dir = args[0]
	cfg.ExtraArgs = append([]string(nil), args[1:]...)
	return nil
}
