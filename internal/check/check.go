// Package check implements --check, which reports whether the configured
// converter can be run. It is not consulted before a batch.
package check

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/backmassage/hdrbatch/internal/config"
)

// Sentinel errors returned by CheckConverter.
var (
	ErrConverterNotFound      = errors.New("converter not found")
	ErrConverterNotExecutable = errors.New("converter is not executable")
)

// Logger is the minimal logging interface needed by RunCheck.
// Defined here (rather than importing the logging package) so that check
// remains dependency-light and testable with a mock logger.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Debug(string, ...interface{})
}

// RunCheck runs the --check flow: it reports where the converter resolves,
// whether it can be executed, and, when a directory was given, how many
// input files it holds. Returns false if the converter is unusable.
func RunCheck(cfg *config.Config, log Logger, cwd string) bool {
	log.Info("=== System Check ===")
	log.Info("Platform: %s/%s", runtime.GOOS, runtime.GOARCH)

	name, err := config.ExpandHome(cfg.Converter)
	if err != nil {
		log.Error("Cannot expand converter path %s: %v", cfg.Converter, err)
		return false
	}
	path := config.ResolveConverter(cwd, name)
	log.Info("Converter: %s", path)

	ok := true
	if err := CheckConverter(path); err != nil {
		log.Error("%v", err)
		ok = false
	} else {
		log.Success("Converter is executable")
	}

	if cfg.Dir != "" {
		if dir, err := config.ExpandHome(cfg.Dir); err == nil {
			checkDir(log, dir)
		}
	}
	if cfg.LogFile != "" {
		log.Info("Log file: %s", cfg.LogFile)
	}
	return ok
}

// checkDir counts candidate inputs in dir. Informational only.
func checkDir(log Logger, dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Warn("Cannot read %s: %v", dir, err)
		return
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), config.InputExtension) {
			n++
		}
	}
	if n == 0 {
		log.Warn("No %s files in %s", config.InputExtension, dir)
		return
	}
	log.Success("%d %s files in %s", n, config.InputExtension, dir)
}

// CheckConverter verifies that path names an existing regular file with an
// execute bit set. Returns a wrapped sentinel on failure.
func CheckConverter(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrConverterNotFound, path)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrConverterNotExecutable, path)
	}
	if runtime.GOOS == "windows" {
		if _, err := exec.LookPath(filepath.Clean(path)); err != nil {
			return fmt.Errorf("%w: %s", ErrConverterNotExecutable, path)
		}
		return nil
	}
	if info.Mode().Perm()&0o111 == 0 {
		return fmt.Errorf("%w: %s", ErrConverterNotExecutable, path)
	}
	return nil
}
