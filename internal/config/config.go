// Package config holds runtime configuration: defaults, CLI flag binding,
// optional YAML/env overlays, and validation.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// Fixed batch parameters. These are not user-configurable.
const (
	// DefaultConverter is the converter executable name, resolved against
	// the working directory.
	DefaultConverter = "PQHDRtoGMHDR"

	// InputExtension is the case-sensitive suffix a file name must carry
	// to be dispatched.
	InputExtension = ".tif"

	// OutputExtension labels successful conversions.
	OutputExtension = ".heic"

	// Workers is the fixed worker pool size.
	Workers = 8

	// DefaultConfigFile is read from the working directory when present.
	DefaultConfigFile = "hdrbatch.yaml"
)

// ErrUsage is returned when the required directory argument is missing.
var ErrUsage = errors.New("usage: hdrbatch [flags] <directory> [converter-args...]")

// Config holds all runtime settings. It is populated by [DefaultConfig],
// then by the YAML/env overlays and CLI flags, and is read-only once the
// batch starts.
type Config struct {
	// Positional arguments.
	Dir       string   // Target directory as given by the caller.
	ExtraArgs []string // Passed verbatim to every converter invocation.

	// Converter.
	Converter string // Executable name or path. Default: "PQHDRtoGMHDR".

	// Behavior flags.
	DryRun    bool
	CheckOnly bool // Run --check diagnostics and exit.

	// Display and logging.
	Verbose    bool
	ColorMode  ColorMode // Default: "auto".
	LogFile    string    // Optional log file path.
	ConfigFile string    // Optional YAML overlay. Default: "hdrbatch.yaml".
}

// DefaultConfig returns a Config with all defaults applied.
func DefaultConfig() Config {
	return Config{
		Converter:  DefaultConverter,
		ColorMode:  ColorAuto,
		ConfigFile: DefaultConfigFile,
	}
}

// Validate checks enum fields and required values. When not in CheckOnly
// mode the target directory must be set; its absence is reported as
// [ErrUsage].
func (c *Config) Validate() error {
	if !c.CheckOnly && c.Dir == "" {
		return ErrUsage
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Converter, validation.Required.Error("converter must not be empty")),
		validation.Field(&c.ColorMode,
			validation.Required,
			validation.In(ColorAuto, ColorAlways, ColorNever).Error("invalid color mode (use 'auto', 'always' or 'never')"),
		),
	)
}

// ExpandHome replaces a leading "~" with the caller's home directory.
// "~user" forms are returned unchanged.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~"+string(filepath.Separator)) && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}

// ResolveConverter returns the converter executable path. Relative names
// are joined to cwd; absolute paths are returned unchanged. The result is
// not checked for existence.
func ResolveConverter(cwd, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(cwd, name)
}
