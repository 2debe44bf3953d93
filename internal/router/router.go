// Package router owns the engine registry and decides which extraction
// backend handles a given document. It also provides batch orchestration
// and multi-engine comparison on top of the same selection logic.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/structdocs/docroute/constants"
	"github.com/structdocs/docroute/internal/engine"
)

// Config is the selection policy, fixed at construction.
//
// Reading process environment to populate this is a startup concern of the
// caller (see internal/config); Select itself never touches the environment.
type Config struct {
	// DefaultEngine is used, when set, for hint-less selection whenever it
	// is available and extension-compatible.
	DefaultEngine string
	// FallbackOrder, when non-empty, replaces the built-in per-extension
	// priority tables.
	FallbackOrder []string
	// AllowedEngines, when non-empty, restricts every selection stage
	// except an explicit caller hint.
	AllowedEngines []string
}

// Router maintains the registry of engines and routes requests to them.
// Register all engines before concurrent use; afterwards the registry is
// read-only and needs no locking.
type Router struct {
	logger *slog.Logger

	engines map[string]engine.Engine
	order   []string // registration order, final tie-break

	defaultEngine string
	fallbackOrder []string
	allowed       map[string]struct{}
}

// New builds a Router with the given policy.
func New(cfg Config, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Router{
		logger:        logger,
		engines:       make(map[string]engine.Engine),
		defaultEngine: cfg.DefaultEngine,
		fallbackOrder: cfg.FallbackOrder,
	}
	if len(cfg.AllowedEngines) > 0 {
		r.allowed = make(map[string]struct{}, len(cfg.AllowedEngines))
		for _, name := range cfg.AllowedEngines {
			r.allowed[strings.ToLower(strings.TrimSpace(name))] = struct{}{}
		}
	}
	return r
}

// Register adds an engine to the registry. Registering the same name again
// replaces the earlier instance (last registration wins).
func (r *Router) Register(e engine.Engine) {
	name := e.Name()
	if _, exists := r.engines[name]; !exists {
		r.order = append(r.order, name)
	}
	r.engines[name] = e
	r.logger.Info("registered engine", "engine", name, "available", e.Available())
}

// Get returns the engine registered under name, or nil.
func (r *Router) Get(name string) engine.Engine { return r.engines[name] }

// Names returns all registered engine names in registration order.
func (r *Router) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Router) priorityFor(ext string) []string {
	if len(r.fallbackOrder) > 0 {
		return r.fallbackOrder
	}
	if p, ok := extensionPriority[ext]; ok {
		return p
	}
	return defaultFallback
}

// isCandidate checks availability, the allow-list, and extension support.
func (r *Router) isCandidate(e engine.Engine, ext string) bool {
	if !e.Available() {
		return false
	}
	if r.allowed != nil {
		if _, ok := r.allowed[e.Name()]; !ok {
			return false
		}
	}
	return engine.Supports(e, ext)
}

// Select chooses the engine for path. hint, when non-empty, names the
// engine explicitly and always wins: the named engine must exist and be
// available, but an extension mismatch only warns.
//
// Without a hint, selection walks: configured default engine, the priority
// list for the extension (or the caller-supplied fallback order), then any
// available compatible engine in registration order. Selection does no I/O
// beyond each candidate's Available check.
func (r *Router) Select(path, hint string) (engine.Engine, error) {
	ext := constants.ExtOf(path)

	if hint != "" {
		e, ok := r.engines[hint]
		if !ok {
			return nil, fmt.Errorf("%w: %q (registered: %s)",
				engine.ErrUnknownEngine, hint, strings.Join(r.registeredNames(), ", "))
		}
		if !e.Available() {
			return nil, fmt.Errorf("%w: %q is registered but its dependencies are not ready",
				engine.ErrEngineUnavailable, hint)
		}
		if !engine.Supports(e, ext) {
			r.logger.Warn("hinted engine does not list extension as supported, proceeding anyway",
				"engine", hint, "extension", ext)
		}
		return e, nil
	}

	if r.defaultEngine != "" {
		if e, ok := r.engines[r.defaultEngine]; ok && r.isCandidate(e, ext) {
			return e, nil
		}
	}

	for _, name := range r.priorityFor(ext) {
		if e, ok := r.engines[name]; ok && r.isCandidate(e, ext) {
			return e, nil
		}
	}

	for _, name := range r.order {
		if e := r.engines[name]; r.isCandidate(e, ext) {
			return e, nil
		}
	}

	return nil, fmt.Errorf("%w for extension %q (registered: %s)",
		engine.ErrNoSuitableEngine, ext, strings.Join(r.registeredNames(), ", "))
}

// Process selects an engine for path and runs it. Errors are returned to
// the caller unwrapped; batch and compare callers downgrade them to data.
func (r *Router) Process(ctx context.Context, path string, opts engine.ProcessOptions, hint string) (*engine.Result, error) {
	e, err := r.Select(path, hint)
	if err != nil {
		return nil, err
	}
	r.logger.Info("processing document", "path", path, "engine", e.Name())
	res, err := e.Process(ctx, path, opts.Normalize())
	if err != nil {
		return nil, engine.NewExtractionError(e.Name(), path, err)
	}
	return res, nil
}

// Info describes one registry entry for introspection (CLI `engines`).
type Info struct {
	Name         string              `json:"name"`
	Available    bool                `json:"available"`
	Extensions   []string            `json:"extensions"`
	Capabilities engine.Capabilities `json:"capabilities"`
}

// List returns metadata about all registered engines in registration order.
func (r *Router) List() []Info {
	infos := make([]Info, 0, len(r.order))
	for _, name := range r.order {
		e := r.engines[name]
		exts := make([]string, 0, len(e.SupportedExtensions()))
		for ext := range e.SupportedExtensions() {
			exts = append(exts, ext)
		}
		sort.Strings(exts)
		infos = append(infos, Info{
			Name:         name,
			Available:    e.Available(),
			Extensions:   exts,
			Capabilities: e.Capabilities(),
		})
	}
	return infos
}

func (r *Router) registeredNames() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	sort.Strings(names)
	return names
}
