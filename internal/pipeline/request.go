package pipeline

import (
	"path/filepath"
	"time"

	"github.com/backmassage/hdrbatch/internal/config"
)

// Request is the immutable description of one batch run. It is constructed
// once by [NewRequest] and only read afterwards.
type Request struct {
	Dir       string // Target directory, home-expanded; also the output dir.
	Files     []InputFile
	Converter string   // Resolved converter executable path.
	ExtraArgs []string // Appended verbatim to every invocation.
	Workers   int
	DryRun    bool
	Start     time.Time // Set once startup validation has passed.
}

// Task is one file's conversion job.
type Task struct {
	Name      string // Source file name, used in log lines.
	InputPath string
	OutputDir string
}

// NewRequest expands the target directory, discovers the input files, and
// resolves the converter against cwd (after home expansion). Startup failures come back as
// *DirectoryNotFoundError or *NoInputFilesError.
func NewRequest(cfg *config.Config, cwd string) (*Request, error) {
	dir, err := config.ExpandHome(cfg.Dir)
	if err != nil {
		return nil, &DirectoryNotFoundError{Path: cfg.Dir, Err: err}
	}

	files, err := Discover(dir)
	if err != nil {
		return nil, err
	}

	conv, err := config.ExpandHome(cfg.Converter)
	if err != nil {
		return nil, err
	}

	return &Request{
		Dir:       dir,
		Files:     files,
		Converter: config.ResolveConverter(cwd, conv),
		ExtraArgs: append([]string(nil), cfg.ExtraArgs...),
		Workers:   config.Workers,
		DryRun:    cfg.DryRun,
		Start:     time.Now(),
	}, nil
}

// Tasks returns one Task per input file, in dispatch order.
func (r *Request) Tasks() []Task {
	tasks := make([]Task, len(r.Files))
	for i, f := range r.Files {
		tasks[i] = Task{
			Name:      f.Name,
			InputPath: filepath.Join(r.Dir, f.Name),
			OutputDir: r.Dir,
		}
	}
	return tasks
}

// TotalInputBytes sums the sizes of all input files.
func (r *Request) TotalInputBytes() int64 {
	var n int64
	for _, f := range r.Files {
		n += f.Size
	}
	return n
}
