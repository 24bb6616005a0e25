package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/backmassage/hdrbatch/internal/config"
	"github.com/backmassage/hdrbatch/internal/converter"
	"github.com/backmassage/hdrbatch/internal/display"
	"github.com/backmassage/hdrbatch/internal/logging"
)

// Run is the top-level batch entry point. It dispatches every task in req
// to ex through a pool of req.Workers goroutines, logs one line per
// outcome, waits for the pool to drain, and returns aggregate stats.
//
// Tasks are submitted in req's file order; completions arrive in any order.
// A failed task is logged and counted but never cancels the others.
func Run(ctx context.Context, req *Request, ex converter.Executor, log *logging.Logger) RunStats {
	tasks := req.Tasks()
	stats := RunStats{Total: len(tasks), TotalInputBytes: req.TotalInputBytes()}
	outExt := converter.OutputExtension(req.ExtraArgs)

	logBatchHeader(log, req, &stats)

	workers := req.Workers
	if workers < 1 {
		workers = config.Workers
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(workers)

	for _, task := range tasks {
		task := task
		g.Go(func() error {
			ok := processTask(ctx, req, ex, log, task, outExt)
			mu.Lock()
			if ok {
				stats.Converted++
			} else {
				stats.Failed++
			}
			mu.Unlock()
			// Always nil: one file's failure must not affect the rest.
			return nil
		})
	}
	_ = g.Wait()

	stats.Elapsed = time.Since(req.Start)
	logSummary(log, &stats)
	return stats
}

// processTask runs the converter for one file and logs the outcome.
func processTask(
	ctx context.Context,
	req *Request,
	ex converter.Executor,
	log *logging.Logger,
	task Task,
	outExt string,
) bool {
	inv := converter.Build(req.Converter, task.InputPath, task.OutputDir, req.ExtraArgs)

	if req.DryRun {
		log.Success("[DRY] Would run: %s", inv)
		return true
	}

	log.Debug("Running: %s", inv)
	res := ex.Execute(ctx, inv)
	if out := strings.TrimSpace(res.Stdout); out != "" {
		log.Debug("  %s output: %s", task.Name, out)
	}

	if err := converter.Failure(task.Name, res); err != nil {
		var cf *converter.ConversionFailure
		if errors.As(err, &cf) {
			log.Error("Error converting %s: %s", task.Name, strings.Join(cf.DiagnosticLines(), "\n    "))
		} else {
			log.Error("Error converting %s: %v", task.Name, err)
		}
		return false
	}

	log.Success("Converted %s to %s", task.Name, outExt)
	log.Debug("  %s took %s", task.Name, display.FormatElapsed(res.Duration))
	return true
}

// --- Logging helpers ---

func logBatchHeader(log *logging.Logger, req *Request, stats *RunStats) {
	log.Info("Found %d %s files in %s (%s)", stats.Total, config.InputExtension, req.Dir,
		display.FormatBytes(stats.TotalInputBytes))
	log.Info("Converter: %s", req.Converter)
	if len(req.ExtraArgs) > 0 {
		log.Info("Converter args: %s", strings.Join(req.ExtraArgs, " "))
	}
	log.Debug("Workers: %d", req.Workers)
	if req.DryRun {
		log.Warn("DRY RUN: converter will not be invoked")
	}
}

func logSummary(log *logging.Logger, stats *RunStats) {
	log.Info("All files have been processed.")
	if stats.Failed > 0 {
		log.Warn("Done: %d converted, %d failed in %s",
			stats.Converted, stats.Failed, display.FormatElapsed(stats.Elapsed))
		return
	}
	log.Info("Done: %d converted, %d failed in %s",
		stats.Converted, stats.Failed, display.FormatElapsed(stats.Elapsed))
}
