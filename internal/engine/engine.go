package engine

import (
	"context"
	"fmt"
	"time"
)

// OutputFormat is the content format a caller asks an engine for.
type OutputFormat string

const (
	FormatMarkdown OutputFormat = "markdown"
	FormatHTML     OutputFormat = "html"
	FormatJSON     OutputFormat = "json"
	FormatText     OutputFormat = "text"
)

// ParseOutputFormat validates a user-supplied format string.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case FormatMarkdown, FormatHTML, FormatJSON, FormatText:
		return OutputFormat(s), nil
	}
	return "", fmt.Errorf("unknown output format %q (want markdown|html|json|text)", s)
}

// Capabilities declares what an engine can report in its results.
// Static per engine type, never mutated.
type Capabilities struct {
	BoundingBoxes    bool `json:"bounding_boxes"`
	Confidence       bool `json:"confidence"`
	Images           bool `json:"images"`
	TableStructure   bool `json:"table_structure"`
	HeadingDetection bool `json:"heading_detection"`
	ReadingOrder     bool `json:"reading_order"`
}

// Table is one extracted table: ordered rows of ordered cell strings.
type Table struct {
	Rows [][]string `json:"rows"`
}

// BoundingBox locates one layout element on a page.
type BoundingBox struct {
	Type string  `json:"type"`
	Page int     `json:"page"`
	X0   float64 `json:"x0"`
	Y0   float64 `json:"y0"`
	X1   float64 `json:"x1"`
	Y1   float64 `json:"y1"`
}

// Result is the unified output shape every engine must produce.
// Immutable once returned; owned by the caller.
type Result struct {
	Content    string       `json:"content"`
	Format     OutputFormat `json:"format"`
	EngineName string       `json:"engine_name"`

	Metadata      map[string]any    `json:"metadata,omitempty"`
	Pages         int               `json:"pages,omitempty"`
	Images        map[string][]byte `json:"images,omitempty"`
	Tables        []Table           `json:"tables,omitempty"`
	BoundingBoxes []BoundingBox     `json:"bounding_boxes,omitempty"`
	Confidence    *float64          `json:"confidence,omitempty"`

	Duration time.Duration `json:"-"`
}

// DurationMS reports processing time in whole milliseconds, never negative.
func (r *Result) DurationMS() int64 {
	if r == nil || r.Duration < 0 {
		return 0
	}
	return r.Duration.Milliseconds()
}

// ProcessOptions carries the requested format plus an open options map that
// the router and orchestrator pass through untouched.
type ProcessOptions struct {
	Format  OutputFormat
	Options map[string]any
}

func (o ProcessOptions) withDefaultFormat() ProcessOptions {
	if o.Format == "" {
		o.Format = FormatMarkdown
	}
	return o
}

// Normalize fills option defaults. Engines call this first in Process.
func (o ProcessOptions) Normalize() ProcessOptions { return o.withDefaultFormat() }

// Engine is the contract every extraction backend satisfies.
//
// Available must be cheap, side-effect-free, and must never panic; it
// returns false on any uncertainty. Process must tolerate concurrent calls
// on distinct paths and clean up any temp files before returning.
type Engine interface {
	// Name is the unique lowercase identifier, stable for the instance.
	Name() string
	// SupportedExtensions is the non-empty set of lowercase extensions
	// (no leading dot) the engine claims to handle.
	SupportedExtensions() map[string]struct{}
	Capabilities() Capabilities
	Available() bool
	Process(ctx context.Context, path string, opts ProcessOptions) (*Result, error)
}

// Supports reports whether e claims ext (already normalized).
func Supports(e Engine, ext string) bool {
	if ext == "" {
		return true
	}
	_, ok := e.SupportedExtensions()[ext]
	return ok
}

// ExtSet builds an extension set from literals, for engine declarations.
func ExtSet(exts ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		s[e] = struct{}{}
	}
	return s
}
