// Package docconv wraps code.sajari.com/docconv as the general-purpose
// office, markup, and plain-text extraction backend.
package docconv

import (
	"context"
	"fmt"
	"time"

	sajari "code.sajari.com/docconv"

	"github.com/structdocs/docroute/internal/engine"
)

var supportedExtensions = engine.ExtSet(
	"pdf", "docx", "doc", "pptx", "odt", "rtf",
	"html", "htm", "txt", "md", "csv", "tsv", "xml", "pages",
)

// Extractor implements engine.Engine over docconv's ConvertPath.
type Extractor struct{}

// New builds the backend.
func New() *Extractor { return &Extractor{} }

func (e *Extractor) Name() string { return "docconv" }

func (e *Extractor) SupportedExtensions() map[string]struct{} { return supportedExtensions }

func (e *Extractor) Capabilities() engine.Capabilities {
	// plain text only: no layout, no structure
	return engine.Capabilities{}
}

// Available is unconditional: the library converts the common formats in
// pure Go and degrades per call for formats needing external tools.
func (e *Extractor) Available() bool { return true }

func (e *Extractor) Process(ctx context.Context, path string, opts engine.ProcessOptions) (*engine.Result, error) {
	opts = opts.Normalize()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	resp, err := sajari.ConvertPath(path)
	if err != nil {
		return nil, fmt.Errorf("docconv: %w", err)
	}

	meta := make(map[string]any, len(resp.Meta))
	for k, v := range resp.Meta {
		meta[k] = v
	}

	return &engine.Result{
		Content:    engine.RenderText(resp.Body, opts.Format),
		Format:     opts.Format,
		EngineName: e.Name(),
		Metadata:   meta,
		Duration:   time.Since(start),
	}, nil
}
