package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/hdrbatch/internal/config"
	"github.com/backmassage/hdrbatch/internal/converter"
	"github.com/backmassage/hdrbatch/internal/logging"
)

// --- Discover tests ---

func TestDiscover_FiltersSuffix(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.tif")
	touch(t, dir, "b.tif")
	touch(t, dir, "c.png")

	files, err := Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.tif", "b.tif"}, names(files))
}

func TestDiscover_CaseSensitiveSuffix(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "upper.TIF")
	touch(t, dir, "mixed.Tif")
	touch(t, dir, "long.tiff")
	touch(t, dir, "keep.tif")

	files, err := Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"keep.tif"}, names(files))
}

func TestDiscover_NotRecursiveAndSkipsDirs(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "top.tif")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	touch(t, filepath.Join(dir, "nested"), "deep.tif")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "folder.tif"), 0o755))

	files, err := Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"top.tif"}, names(files))
}

func TestDiscover_SkipsSymlinkToDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	dir := t.TempDir()
	target := t.TempDir()
	touch(t, dir, "real.tif")
	touch(t, target, "inner.tif")
	require.NoError(t, os.Symlink(target, filepath.Join(dir, "linked.tif")))
	require.NoError(t, os.Symlink(filepath.Join(dir, "real.tif"), filepath.Join(dir, "alias.tif")))

	files, err := Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"alias.tif", "real.tif"}, names(files))
}

func TestDiscover_SortedWithSizes(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"z.tif", "m.tif", "a.tif"} {
		touch(t, dir, n)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "big.tif"), make([]byte, 2048), 0o644))

	files, err := Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.tif", "big.tif", "m.tif", "z.tif"}, names(files))
	assert.Equal(t, int64(2048), files[1].Size)
}

func TestDiscover_EmptyDir(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "photo.png")

	_, err := Discover(dir)
	var noFiles *NoInputFilesError
	require.ErrorAs(t, err, &noFiles)
	assert.Equal(t, dir, noFiles.Dir)
	assert.Equal(t, ".tif", noFiles.Ext)
	assert.Contains(t, err.Error(), "no .tif files found")
}

func TestDiscover_MissingDir(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	_, err := Discover(missing)

	var notFound *DirectoryNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, missing, notFound.Path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDiscover_FileIsNotDir(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.tif")

	_, err := Discover(filepath.Join(dir, "a.tif"))
	var notFound *DirectoryNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

// --- Request tests ---

func TestNewRequest_BuildsTasks(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.tif")
	touch(t, dir, "b.tif")
	touch(t, dir, "c.png")

	cfg := config.DefaultConfig()
	cfg.Dir = dir
	cfg.ExtraArgs = []string{"--quality", "90"}

	req, err := NewRequest(&cfg, "/work")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("/work", config.DefaultConverter), req.Converter)
	assert.Equal(t, config.Workers, req.Workers)
	assert.Equal(t, []string{"--quality", "90"}, req.ExtraArgs)
	assert.False(t, req.Start.IsZero())

	tasks := req.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, Task{Name: "a.tif", InputPath: filepath.Join(dir, "a.tif"), OutputDir: dir}, tasks[0])
	assert.Equal(t, Task{Name: "b.tif", InputPath: filepath.Join(dir, "b.tif"), OutputDir: dir}, tasks[1])
}

func TestNewRequest_ExpandsHome(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("HOME is not consulted on windows")
	}
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.MkdirAll(filepath.Join(home, "hdr"), 0o755))
	touch(t, filepath.Join(home, "hdr"), "a.tif")

	cfg := config.DefaultConfig()
	cfg.Dir = "~/hdr"

	req, err := NewRequest(&cfg, "/work")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "hdr"), req.Dir)
}

func TestNewRequest_StartupErrors(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Dir = filepath.Join(t.TempDir(), "missing")
	_, err := NewRequest(&cfg, "/work")
	var notFound *DirectoryNotFoundError
	assert.ErrorAs(t, err, &notFound)

	cfg.Dir = t.TempDir()
	_, err = NewRequest(&cfg, "/work")
	var noFiles *NoInputFilesError
	assert.ErrorAs(t, err, &noFiles)
}

// --- Run tests ---

func TestRun_OneInvocationPerFile(t *testing.T) {
	const k = 30
	req := newTestRequest(t, k, nil)
	ex := &fakeExecutor{delay: 5 * time.Millisecond}
	log, _, _ := newTestLogger(t)

	stats := Run(context.Background(), req, ex, log)

	assert.Equal(t, k, stats.Total)
	assert.Equal(t, k, stats.Converted)
	assert.Equal(t, 0, stats.Failed)

	calls := ex.Calls()
	require.Len(t, calls, k)
	seen := map[string]bool{}
	for _, inv := range calls {
		require.Len(t, inv.Args, 2)
		assert.Equal(t, req.Converter, inv.Path)
		assert.Equal(t, req.Dir, inv.Args[1])
		assert.False(t, seen[inv.Args[0]], "duplicate invocation for %s", inv.Args[0])
		seen[inv.Args[0]] = true
	}
	for _, task := range req.Tasks() {
		assert.True(t, seen[task.InputPath], "missing invocation for %s", task.Name)
	}
}

func TestRun_BoundedConcurrency(t *testing.T) {
	req := newTestRequest(t, 40, nil)
	ex := &fakeExecutor{delay: 20 * time.Millisecond}
	log, _, _ := newTestLogger(t)

	Run(context.Background(), req, ex, log)

	assert.LessOrEqual(t, ex.maxInFlight.Load(), int32(config.Workers))
	assert.Greater(t, ex.maxInFlight.Load(), int32(1), "tasks should overlap")
	assert.Equal(t, int32(0), ex.inFlight.Load())
}

func TestRun_ExtraArgsAppendedVerbatim(t *testing.T) {
	extra := []string{"--quality", "90", "-h", "--"}
	req := newTestRequest(t, 5, extra)
	ex := &fakeExecutor{}
	log, _, _ := newTestLogger(t)

	Run(context.Background(), req, ex, log)

	for _, inv := range ex.Calls() {
		require.Len(t, inv.Args, 2+len(extra))
		assert.Equal(t, extra, inv.Args[2:])
	}
}

func TestRun_ExampleInvocation(t *testing.T) {
	req := &Request{
		Dir:       "/tmp/batch",
		Files:     []InputFile{{Name: "a.tif"}, {Name: "b.tif"}},
		Converter: "/work/PQHDRtoGMHDR",
		ExtraArgs: []string{"--quality", "90"},
		Workers:   config.Workers,
		Start:     time.Now(),
	}
	ex := &fakeExecutor{}
	log, _, _ := newTestLogger(t)

	Run(context.Background(), req, ex, log)

	var argv []string
	for _, inv := range ex.Calls() {
		if inv.Args[0] == "/tmp/batch/a.tif" {
			argv = inv.Argv()
		}
	}
	assert.Equal(t, []string{"/work/PQHDRtoGMHDR", "/tmp/batch/a.tif", "/tmp/batch", "--quality", "90"}, argv)
}

func TestRun_FailureIsIsolated(t *testing.T) {
	req := newTestRequest(t, 0, nil)
	req.Files = []InputFile{{Name: "a.tif"}, {Name: "b.tif"}, {Name: "c.tif"}}
	ex := &fakeExecutor{fail: map[string]string{"a.tif": "bad tiff\n"}}
	log, out, errOut := newTestLogger(t)

	stats := Run(context.Background(), req, ex, log)

	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Converted)
	assert.Equal(t, 1, stats.Failed)
	assert.Len(t, ex.Calls(), 3)

	failLine := findLine(errOut.String(), "a.tif")
	assert.Contains(t, failLine, "bad tiff")
	assert.Contains(t, failLine, "[ERROR]")

	stdout := out.String()
	assert.Contains(t, stdout, "Converted b.tif to .heic")
	assert.Contains(t, stdout, "Converted c.tif to .heic")
	assert.NotContains(t, stdout, "Converted a.tif")
	assert.Contains(t, stdout, "All files have been processed.")
	assert.Contains(t, stdout, "Done: 2 converted, 1 failed in ")
}

func TestRun_VerboseLogsStdoutOnFailure(t *testing.T) {
	req := newTestRequest(t, 1, nil)
	ex := &fakeExecutor{
		fail:   map[string]string{"file00.tif": ""},
		stdout: "Error: No input image found.\n",
	}
	cfg := config.DefaultConfig()
	cfg.ColorMode = config.ColorNever
	cfg.Verbose = true
	var out, errOut bytes.Buffer
	log, err := logging.New(&cfg, &out, &errOut)
	require.NoError(t, err)
	t.Cleanup(func() { _ = log.Close() })

	stats := Run(context.Background(), req, ex, log)

	assert.Equal(t, 1, stats.Failed)
	assert.Contains(t, out.String(), "[DEBUG]   file00.tif output: Error: No input image found.")
	assert.Contains(t, errOut.String(), "Error converting file00.tif")
}

func TestRun_JPEGLabel(t *testing.T) {
	req := newTestRequest(t, 1, []string{"-f", "jpg"})
	log, out, _ := newTestLogger(t)

	Run(context.Background(), req, &fakeExecutor{}, log)
	assert.Contains(t, out.String(), "Converted file00.tif to .jpg")
}

func TestRun_DryRunInvokesNothing(t *testing.T) {
	req := newTestRequest(t, 3, []string{"-s"})
	req.DryRun = true
	ex := &fakeExecutor{}
	log, out, _ := newTestLogger(t)

	stats := Run(context.Background(), req, ex, log)

	assert.Empty(t, ex.Calls())
	assert.Equal(t, 3, stats.Converted)
	assert.Contains(t, out.String(), "[DRY] Would run: "+req.Converter+" "+filepath.Join(req.Dir, "file00.tif"))
}

func TestRun_ElapsedCoversRun(t *testing.T) {
	req := newTestRequest(t, 2, nil)
	req.Start = time.Now().Add(-time.Second)
	log, _, _ := newTestLogger(t)

	stats := Run(context.Background(), req, &fakeExecutor{}, log)
	assert.GreaterOrEqual(t, stats.Elapsed, time.Second)
}

// --- Process-level integration test ---

func TestRun_WithProcessExecutor(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake converter")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	work := t.TempDir()
	dir := t.TempDir()
	touch(t, dir, "a.tif")
	touch(t, dir, "b.tif")
	touch(t, dir, "c.png")
	record := filepath.Join(work, "calls.log")

	script := fmt.Sprintf(`#!/bin/sh
echo "$@" >> %q
case "$1" in
  */a.tif) echo "bad tiff" >&2; exit 1 ;;
esac
exit 0
`, record)
	require.NoError(t, os.WriteFile(filepath.Join(work, config.DefaultConverter), []byte(script), 0o755))

	cfg := config.DefaultConfig()
	cfg.Dir = dir
	cfg.ExtraArgs = []string{"--quality", "90"}
	req, err := NewRequest(&cfg, work)
	require.NoError(t, err)

	log, out, errOut := newTestLogger(t)
	stats := Run(context.Background(), req, converter.ProcessExecutor{}, log)

	assert.Equal(t, 1, stats.Converted)
	assert.Equal(t, 1, stats.Failed)
	assert.Contains(t, findLine(errOut.String(), "a.tif"), "bad tiff")
	assert.Contains(t, out.String(), "Converted b.tif to .heic")

	b, err := os.ReadFile(record)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "a.tif") + " " + dir + " --quality 90",
		filepath.Join(dir, "b.tif") + " " + dir + " --quality 90",
	}, lines)
}

// --- Helpers ---

type fakeExecutor struct {
	delay  time.Duration
	fail   map[string]string // file name -> stderr
	stdout string

	mu          sync.Mutex
	calls       []converter.Invocation
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (f *fakeExecutor) Execute(_ context.Context, inv converter.Invocation) converter.Result {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxInFlight.Load()
		if n <= m || f.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.calls = append(f.calls, inv)
	f.mu.Unlock()

	if stderr, ok := f.fail[filepath.Base(inv.Args[0])]; ok {
		return converter.Result{ExitCode: 1, Stdout: f.stdout, Stderr: stderr, Err: errors.New("exit status 1")}
	}
	return converter.Result{Stdout: f.stdout}
}

func (f *fakeExecutor) Calls() []converter.Invocation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]converter.Invocation(nil), f.calls...)
}

func newTestRequest(t *testing.T, n int, extra []string) *Request {
	t.Helper()
	files := make([]InputFile, n)
	for i := range files {
		files[i] = InputFile{Name: fmt.Sprintf("file%02d.tif", i)}
	}
	return &Request{
		Dir:       t.TempDir(),
		Files:     files,
		Converter: "/work/" + config.DefaultConverter,
		ExtraArgs: extra,
		Workers:   config.Workers,
		Start:     time.Now(),
	}
}

func newTestLogger(t *testing.T) (*logging.Logger, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.ColorMode = config.ColorNever
	var out, errOut bytes.Buffer
	log, err := logging.New(&cfg, &out, &errOut)
	require.NoError(t, err)
	t.Cleanup(func() { _ = log.Close() })
	return log, &out, &errOut
}

func findLine(text, substr string) string {
	for _, l := range strings.Split(text, "\n") {
		if strings.Contains(l, substr) {
			return l
		}
	}
	return ""
}

func touch(t *testing.T, dir, name string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte{}, 0o644); err != nil {
		t.Fatalf("touch %s: %v", path, err)
	}
}

func names(files []InputFile) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Name
	}
	return out
}
