package router

import (
	"context"

	"github.com/structdocs/docroute/constants"
	"github.com/structdocs/docroute/internal/engine"
)

// Compare runs the same document through multiple engines and returns each
// engine's result keyed by name. With nil names every available engine that
// supports the file's extension runs; with explicit names, only the named
// ones that are available run (unavailable ones are silently skipped).
//
// One engine's failure is logged and omitted from the map; it never aborts
// the comparison. Targets run sequentially, keeping per-engine error
// isolation trivially deterministic.
func (r *Router) Compare(ctx context.Context, path string, opts engine.ProcessOptions, names []string) map[string]*engine.Result {
	ext := constants.ExtOf(path)

	var targets []engine.Engine
	if len(names) > 0 {
		for _, name := range names {
			if e, ok := r.engines[name]; ok && e.Available() {
				targets = append(targets, e)
			}
		}
	} else {
		for _, name := range r.order {
			e := r.engines[name]
			if e.Available() && engine.Supports(e, ext) {
				targets = append(targets, e)
			}
		}
	}

	results := make(map[string]*engine.Result, len(targets))
	for _, e := range targets {
		res, err := e.Process(ctx, path, opts.Normalize())
		if err != nil {
			r.logger.Error("compare: engine failed", "engine", e.Name(), "path", path, "error", err)
			continue
		}
		results[e.Name()] = res
	}
	return results
}
