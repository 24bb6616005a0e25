package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables consulted by [ApplyEnv]. A .env file in the working
// directory is loaded into the environment by the entrypoint before these
// are read.
const (
	EnvConverter = "HDRBATCH_CONVERTER"
	EnvLogFile   = "HDRBATCH_LOG"
	EnvColor     = "HDRBATCH_COLOR"
	EnvVerbose   = "HDRBATCH_VERBOSE"
)

// FileConfig is the on-disk YAML shape. Unset keys leave Config untouched.
type FileConfig struct {
	Converter string `yaml:"converter"`
	LogFile   string `yaml:"log_file"`
	Color     string `yaml:"color"`
	Verbose   *bool  `yaml:"verbose"`
}

// LoadFile reads a YAML config file. A missing file is not an error when
// optional is true; LoadFile then returns (nil, nil).
func LoadFile(path string, optional bool) (*FileConfig, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parsing config YAML from %s: %w", path, err)
	}
	return &fc, nil
}

// ApplyFile copies set file values into cfg, skipping any value whose flag
// was given explicitly.
func ApplyFile(cfg *Config, fc *FileConfig, f *Flags) {
	if fc == nil {
		return
	}
	if fc.Converter != "" && !f.Changed("converter") {
		cfg.Converter = fc.Converter
	}
	if fc.LogFile != "" && !f.Changed("log") {
		cfg.LogFile = fc.LogFile
	}
	if fc.Color != "" && !f.Changed("color", "no-color") {
		cfg.ColorMode = ColorMode(strings.ToLower(fc.Color))
	}
	if fc.Verbose != nil && !f.Changed("verbose") {
		cfg.Verbose = *fc.Verbose
	}
}

// ApplyEnv copies HDRBATCH_* environment values into cfg, skipping any value
// whose flag was given explicitly. Environment values override the file.
func ApplyEnv(cfg *Config, lookupEnv func(string) (string, bool), f *Flags) error {
	if v, ok := lookupEnv(EnvConverter); ok && v != "" && !f.Changed("converter") {
		cfg.Converter = v
	}
	if v, ok := lookupEnv(EnvLogFile); ok && v != "" && !f.Changed("log") {
		cfg.LogFile = v
	}
	if v, ok := lookupEnv(EnvColor); ok && v != "" && !f.Changed("color", "no-color") {
		cfg.ColorMode = ColorMode(strings.ToLower(v))
	}
	if v, ok := lookupEnv(EnvVerbose); ok && v != "" && !f.Changed("verbose") {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s must be a boolean (got %q)", EnvVerbose, v)
		}
		cfg.Verbose = b
	}
	return nil
}
