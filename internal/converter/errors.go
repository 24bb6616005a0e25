package converter

import (
	"fmt"
	"strings"
)

// ConversionFailure describes one converter run that exited non-zero or
// could not be started. It never aborts the batch.
type ConversionFailure struct {
	File     string // Source file name.
	ExitCode int
	Stderr   string
	Err      error
}

// Failure returns a *ConversionFailure for a failed result, nil otherwise.
func Failure(file string, r Result) error {
	if r.OK() {
		return nil
	}
	return &ConversionFailure{File: file, ExitCode: r.ExitCode, Stderr: r.Stderr, Err: r.Err}
}

func (f *ConversionFailure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("converting %s: exit status %d: %s", f.File, f.ExitCode, strings.Join(f.DiagnosticLines(), " | "))
	}
	return fmt.Sprintf("converting %s: %v: %s", f.File, f.Err, strings.Join(f.DiagnosticLines(), " | "))
}

func (f *ConversionFailure) Unwrap() error { return f.Err }

// DiagnosticLines returns the full stderr text decoded as UTF-8 and split
// into lines. When stderr is empty the underlying error text is returned
// instead (e.g. the converter binary is missing).
func (f *ConversionFailure) DiagnosticLines() []string {
	text := strings.TrimSpace(strings.ToValidUTF8(f.Stderr, "�"))
	if text == "" {
		if f.Err != nil {
			return []string{f.Err.Error()}
		}
		return []string{"(no diagnostic output)"}
	}
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}
