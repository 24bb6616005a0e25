// Package logging provides the leveled, line-oriented console logger used by
// every hdrbatch component. Lines look like
//
//	2026-01-02 15:04:05 [SUCCESS] Converted a.tif to .heic
//
// ERROR lines go to stderr, everything else to stdout. An optional log file
// receives the same lines uncolored, tagged with the run ID.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/backmassage/hdrbatch/internal/config"
	"github.com/backmassage/hdrbatch/internal/term"
)

const (
	timeFormat = "2006-01-02 15:04:05"
	runField   = "run"
	// successLevel is written as the level field of success lines; zerolog
	// has no such level, so these go out as NoLevel events.
	successLevel = "success"
)

// Logger provides leveled, optionally colored logging with optional file sink.
type Logger struct {
	mu    sync.Mutex
	zl    zerolog.Logger
	file  *os.File
	runID string
}

// New builds a Logger writing to the given console streams. It resolves
// the color mode and, when cfg.LogFile is set, opens that file for append.
// Call Close when done.
func New(cfg *config.Config, stdout, stderr io.Writer) (*Logger, error) {
	color := term.Configure(cfg.ColorMode)
	l := &Logger{runID: ulid.Make().String()}

	var sinks []io.Writer
	sinks = append(sinks, levelSplitWriter{
		out: consoleWriter(stdout, color),
		err: consoleWriter(stderr, color),
	})

	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		l.file = f
		fw := consoleWriter(f, false)
		fw.FieldsExclude = nil
		sinks = append(sinks, fw)
	}

	level := zerolog.InfoLevel
	if cfg.Verbose {
		level = zerolog.DebugLevel
	}
	l.zl = zerolog.New(zerolog.MultiLevelWriter(sinks...)).
		Level(level).
		With().
		Timestamp().
		Str(runField, l.runID).
		Logger()
	return l, nil
}

// consoleWriter returns the line formatter shared by console and file sinks.
// The run ID is hidden on the console.
func consoleWriter(w io.Writer, color bool) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:           w,
		NoColor:       !color,
		TimeFormat:    timeFormat,
		PartsOrder:    []string{zerolog.TimestampFieldName, zerolog.LevelFieldName, zerolog.MessageFieldName},
		FieldsExclude: []string{runField},
		FormatLevel:   formatLevel(color),
	}
}

// formatLevel renders the level as a bracketed tag, e.g. "[WARN]".
func formatLevel(color bool) zerolog.Formatter {
	return func(i interface{}) string {
		s, _ := i.(string)
		var tag, c string
		switch s {
		case zerolog.LevelDebugValue:
			tag, c = "DEBUG", term.Cyan
		case zerolog.LevelInfoValue:
			tag, c = "INFO", term.Blue
		case zerolog.LevelWarnValue:
			tag, c = "WARN", term.Yellow
		case zerolog.LevelErrorValue:
			tag, c = "ERROR", term.Red
		case successLevel:
			tag, c = "SUCCESS", term.Green
		default:
			tag = "???"
		}
		if color && c != "" {
			return c + "[" + tag + "]" + term.NC
		}
		return "[" + tag + "]"
	}
}

// levelSplitWriter sends error-and-above lines to err and the rest to out.
type levelSplitWriter struct {
	out io.Writer
	err io.Writer
}

func (w levelSplitWriter) Write(p []byte) (int, error) {
	return w.out.Write(p)
}

func (w levelSplitWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level >= zerolog.ErrorLevel && level < zerolog.NoLevel {
		return w.err.Write(p)
	}
	return w.out.Write(p)
}

// RunID returns the ULID identifying this process run in the log file.
func (l *Logger) RunID() string { return l.runID }

// Close closes the log file if one was opened.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		l.zl = l.zl.Output(io.Discard)
		return err
	}
	return nil
}

func (l *Logger) emit(e *zerolog.Event, text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.Msg(text)
}

// Info logs at INFO level (blue).
func (l *Logger) Info(format string, args ...interface{}) {
	l.emit(l.zl.Info(), fmt.Sprintf(format, args...))
}

// Success logs at SUCCESS level (green).
func (l *Logger) Success(format string, args ...interface{}) {
	l.emit(l.zl.Log().Str(zerolog.LevelFieldName, successLevel), fmt.Sprintf(format, args...))
}

// Warn logs at WARN level (yellow).
func (l *Logger) Warn(format string, args ...interface{}) {
	l.emit(l.zl.Warn(), fmt.Sprintf(format, args...))
}

// Error logs at ERROR level (red), to stderr.
func (l *Logger) Error(format string, args ...interface{}) {
	l.emit(l.zl.Error(), fmt.Sprintf(format, args...))
}

// Debug logs at DEBUG level (cyan); dropped unless the logger is verbose.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.emit(l.zl.Debug(), fmt.Sprintf(format, args...))
}
