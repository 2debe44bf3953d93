package router

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/structdocs/docroute/internal/engine"
)

// ProgressStatus labels a batch progress event.
type ProgressStatus string

const (
	StatusProcessing ProgressStatus = "processing"
	StatusCompleted  ProgressStatus = "completed"
	StatusFailed     ProgressStatus = "failed"
)

// ProgressEvent is delivered synchronously from inside the orchestrator.
// For a given file the "processing" event always precedes the terminal
// one; across files no ordering is guaranteed.
type ProgressEvent struct {
	Current    int // 1-based input index
	Total      int
	FilePath   string
	EngineName string
	Status     ProgressStatus
	Result     *engine.Result // set on completed
	Err        error          // set on failed
}

// ProgressFunc receives batch progress events. Events are serialized, so
// implementations need no locking of their own.
type ProgressFunc func(ProgressEvent)

// BatchOptions configures one ProcessBatch run.
type BatchOptions struct {
	Process     engine.ProcessOptions
	EngineHint  string // applied uniformly to every file when set
	Concurrency int    // max in-flight extractions; default 3
	OnProgress  ProgressFunc
}

// BatchResult aggregates one batch run. Every input path lands in exactly
// one of Results or Errors, and Succeeded+Failed == Total.
type BatchResult struct {
	Results map[string]*engine.Result `json:"-"`
	Errors  map[string]string         `json:"errors"`

	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`

	TotalTime time.Duration `json:"-"`
}

// TotalTimeMS is the wall-clock duration of the whole batch in ms.
func (b *BatchResult) TotalTimeMS() int64 { return b.TotalTime.Milliseconds() }

// SuccessRate is Succeeded/Total, 0 for an empty batch.
func (b *BatchResult) SuccessRate() float64 {
	if b.Total == 0 {
		return 0
	}
	return float64(b.Succeeded) / float64(b.Total)
}

// ProcessBatch processes every path with bounded concurrency and per-file
// failure isolation: a selection or extraction error for one file is
// recorded under that path and never cancels or affects its siblings.
// Duplicate paths are processed once; Total counts distinct paths, so the
// counters always match the Results/Errors map sizes.
func (r *Router) ProcessBatch(ctx context.Context, paths []string, opts BatchOptions) *BatchResult {
	paths = dedupe(paths)

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 3
	}

	start := time.Now()
	batch := &BatchResult{
		Results: make(map[string]*engine.Result),
		Errors:  make(map[string]string),
		Total:   len(paths),
	}

	sem := semaphore.NewWeighted(int64(concurrency))
	var wg sync.WaitGroup

	// mu guards the accumulator maps and serializes progress callbacks,
	// so OnProgress implementations need no synchronization.
	var mu sync.Mutex

	emit := func(ev ProgressEvent) {
		if opts.OnProgress != nil {
			opts.OnProgress(ev)
		}
	}

	for i, path := range paths {
		wg.Add(1)
		go func(idx int, fp string) {
			defer wg.Done()

			if err := sem.Acquire(ctx, 1); err != nil {
				mu.Lock()
				batch.Errors[fp] = err.Error()
				batch.Failed++
				emit(ProgressEvent{
					Current: idx + 1, Total: batch.Total, FilePath: fp,
					EngineName: "unknown", Status: StatusFailed, Err: err,
				})
				mu.Unlock()
				return
			}
			defer sem.Release(1)

			engineName := "unknown"
			e, err := r.Select(fp, opts.EngineHint)
			if err == nil {
				engineName = e.Name()
				mu.Lock()
				emit(ProgressEvent{
					Current: idx + 1, Total: batch.Total, FilePath: fp,
					EngineName: engineName, Status: StatusProcessing,
				})
				mu.Unlock()
			}

			var res *engine.Result
			if err == nil {
				res, err = e.Process(ctx, fp, opts.Process.Normalize())
				if err != nil {
					err = engine.NewExtractionError(engineName, fp, err)
				}
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				r.logger.Error("batch item failed", "path", fp, "engine", engineName, "error", err)
				batch.Errors[fp] = err.Error()
				batch.Failed++
				emit(ProgressEvent{
					Current: idx + 1, Total: batch.Total, FilePath: fp,
					EngineName: engineName, Status: StatusFailed, Err: err,
				})
				return
			}
			batch.Results[fp] = res
			batch.Succeeded++
			emit(ProgressEvent{
				Current: idx + 1, Total: batch.Total, FilePath: fp,
				EngineName: engineName, Status: StatusCompleted, Result: res,
			})
		}(i, path)
	}

	wg.Wait()
	batch.TotalTime = time.Since(start)

	r.logger.Info("batch finished",
		"total", batch.Total,
		"succeeded", batch.Succeeded,
		"failed", batch.Failed,
		"duration_ms", batch.TotalTimeMS(),
	)
	return batch
}

// dedupe drops repeated paths, keeping first-occurrence order.
func dedupe(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
