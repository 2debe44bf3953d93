// Package preanalyze classifies a file before routing: extension category,
// MIME type, and for PDFs a page count and text-layer probe. It is a
// standalone pre-filter consumers use to pick an engine hint; the router
// never calls it.
package preanalyze

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/structdocs/docroute/constants"
	"github.com/structdocs/docroute/internal/backends/poppler"
)

// Text-layer probe: sample this many pages and require this many chars to
// call a PDF text-based rather than scanned.
const (
	samplePages       = 2
	textLayerMinChars = 100
)

// Analysis is the routing-relevant profile of one file.
type Analysis struct {
	Path      string                 `json:"path"`
	Extension string                 `json:"extension"`
	MimeType  string                 `json:"mime_type,omitempty"`
	Category  constants.FileCategory `json:"category"`
	SizeBytes int64                  `json:"size_bytes"`

	// PDF only
	PageCount    int   `json:"page_count,omitempty"`
	HasTextLayer *bool `json:"has_text_layer,omitempty"`
}

// IsScannedPDF reports a PDF whose text-layer probe came back empty.
func (a *Analysis) IsScannedPDF() bool {
	return a.Extension == "pdf" && a.HasTextLayer != nil && !*a.HasTextLayer
}

// Analyzer probes files. The poppler runner is reused for the PDF text
// sample so tests can stub the external tool.
type Analyzer struct {
	logger    *slog.Logger
	pdftotext string
	runner    poppler.Runner
}

// New builds an Analyzer. pdftotext may be empty for the PATH default.
func New(pdftotext string, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	if pdftotext == "" {
		pdftotext = "pdftotext"
	}
	return &Analyzer{logger: logger, pdftotext: pdftotext, runner: poppler.ExecRunner()}
}

// Analyze classifies path. PDF-specific probes failing is not an error:
// the analysis degrades to extension-only classification.
func (a *Analyzer) Analyze(ctx context.Context, path string) (*Analysis, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	ext := constants.ExtOf(path)
	analysis := &Analysis{
		Path:      path,
		Extension: ext,
		MimeType:  constants.MimeOf(ext),
		Category:  constants.CategoryOf(ext),
		SizeBytes: info.Size(),
	}
	if ext != "pdf" {
		return analysis, nil
	}

	if count, err := api.PageCountFile(path); err != nil {
		a.logger.Warn("pdf page count failed", "path", path, "error", err)
	} else {
		analysis.PageCount = count
	}

	if hasText, err := a.probeTextLayer(ctx, path); err != nil {
		a.logger.Warn("pdf text layer probe failed", "path", path, "error", err)
	} else {
		analysis.HasTextLayer = &hasText
	}
	return analysis, nil
}

// probeTextLayer extracts the first pages and checks for meaningful text.
func (a *Analyzer) probeTextLayer(ctx context.Context, path string) (bool, error) {
	out, _, err := a.runner.Run(ctx, a.pdftotext,
		"-f", "1", "-l", strconv.Itoa(samplePages), "-enc", "UTF-8", path, "-")
	if err != nil {
		return false, err
	}
	return len(strings.TrimSpace(string(out))) > textLayerMinChars, nil
}
