// Package poppler is the local exec-based extraction backend: pdftotext for
// text-layer PDFs, pdftoppm + tesseract for scanned PDFs and images.
package poppler

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/structdocs/docroute/constants"
	"github.com/structdocs/docroute/internal/engine"
)

// Config tunes the external tools. Zero values get sensible defaults.
type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	DPI           int    // rasterization DPI for scanned PDFs, default 300
	MaxPages      int    // 0 = no limit

	TessdataDir         string
	EnableTSVConfidence bool

	PSM int // e.g., 6 is good for uniform block of text
	OEM int // 1 = LSTM; leave 0 to use default

	// MinTextLayerChars is the threshold below which a PDF's text layer is
	// considered absent and the OCR path kicks in. Default 100.
	MinTextLayerChars int
}

var supportedExtensions = engine.ExtSet(
	"pdf", "png", "jpg", "jpeg", "tiff", "tif", "bmp",
)

// Extractor implements engine.Engine on top of the poppler and tesseract
// command-line tools.
type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

// New builds the backend. logger may be nil.
func New(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.MinTextLayerChars <= 0 {
		cfg.MinTextLayerChars = 100
	}
	return &Extractor{cfg: cfg, runner: execRunner{}, logger: logger}
}

func (e *Extractor) Name() string { return "poppler" }

func (e *Extractor) SupportedExtensions() map[string]struct{} { return supportedExtensions }

func (e *Extractor) Capabilities() engine.Capabilities {
	return engine.Capabilities{Confidence: true}
}

// Available checks that the external binaries resolve on PATH.
func (e *Extractor) Available() bool {
	for _, bin := range []string{e.cfg.Pdftotext, e.cfg.Pdftoppm, e.cfg.Tesseract} {
		if _, err := exec.LookPath(bin); err != nil {
			return false
		}
	}
	return true
}

// Process picks a strategy based on file extension: PDFs try the text layer
// first and fall back to rasterize+OCR; images go straight to tesseract.
func (e *Extractor) Process(ctx context.Context, path string, opts engine.ProcessOptions) (*engine.Result, error) {
	opts = opts.Normalize()
	start := time.Now()
	ext := constants.ExtOf(path)
	e.logger.Debug("starting extraction", "path", path, "ext", ext)

	var (
		text     string
		pages    int
		method   string
		conf     float64
		warnings []string
		err      error
	)
	switch {
	case ext == "pdf":
		text, pages, method, conf, warnings, err = e.extractPDF(ctx, path)
	case constants.CategoryOf(ext) == constants.CategoryImage:
		text, warnings, err = e.tesseractOCR(ctx, path)
		pages, method = 1, "image-ocr"
		if err == nil && e.cfg.EnableTSVConfidence {
			var confWarns []string
			conf, confWarns = e.confidenceOf(ctx, path)
			warnings = append(warnings, confWarns...)
		}
	default:
		return nil, fmt.Errorf("unsupported extension: %q", ext)
	}
	if err != nil {
		return nil, err
	}
	text = Normalize(text)

	res := &engine.Result{
		Content:    engine.RenderText(text, opts.Format),
		Format:     opts.Format,
		EngineName: e.Name(),
		Pages:      pages,
		Metadata: map[string]any{
			"method":   method,
			"language": e.cfg.TesseractLang,
		},
		Duration: time.Since(start),
	}
	if len(warnings) > 0 {
		res.Metadata["warnings"] = warnings
	}
	if conf > 0 {
		res.Confidence = &conf
	}
	return res, nil
}

// confidenceOf runs the TSV confidence pass on one image file. tesseract
// cannot decode PDFs, so PDF callers must pass rasterized page images.
func (e *Extractor) confidenceOf(ctx context.Context, imgPath string) (float64, []string) {
	conf, _, err := e.tesseractTSVConfidence(ctx, imgPath)
	if err != nil {
		return 0, []string{fmt.Sprintf("tsv confidence: %v", err)}
	}
	return conf, nil
}

func (e *Extractor) extractPDF(ctx context.Context, path string) (string, int, string, float64, []string, error) {
	text, pages, warns, err := e.pdfToText(ctx, path)
	if err == nil && len(strings.TrimSpace(text)) >= e.cfg.MinTextLayerChars {
		return text, pages, "pdf-text", 0, warns, nil
	}
	if err != nil {
		warns = append(warns, fmt.Sprintf("pdftotext failed: %v", err))
	} else {
		warns = append(warns, "text layer too small, falling back to OCR")
	}
	text, pages, conf, ocrWarns, err := e.pdfToOCR(ctx, path)
	warns = append(warns, ocrWarns...)
	return text, pages, "pdf-ocr", conf, warns, err
}

func (e *Extractor) pdfToText(ctx context.Context, path string) (text string, pages int, warnings []string, err error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", 0, []string{string(errb)}, err
	}
	text = string(out)
	// A form-feed \f is used as page separator by default
	pages = 1 + strings.Count(text, "\f")
	return text, pages, nil, nil
}

// pdfToOCR rasterizes the PDF and OCRs each page. The TSV confidence pass,
// when enabled, runs per page here while the rendered images still exist.
func (e *Extractor) pdfToOCR(ctx context.Context, path string) (text string, pages int, conf float64, warnings []string, err error) {
	tmpDir, err := os.MkdirTemp("", "docroute-pp-*")
	if err != nil {
		return "", 0, 0, nil, err
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			e.logger.Warn("failed to remove temp dir", "dir", tmpDir, "error", rmErr)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", e.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return "", 0, 0, []string{string(errb)}, err
	}

	// collect generated pngs (prefix-1.png, prefix-2.png, ...)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return "", 0, 0, []string{"pdftoppm produced no images"}, fmt.Errorf("no pages rendered")
	}

	var b strings.Builder
	var warns []string
	var confSum float64
	var confN int
	for _, img := range matches {
		txt, w, err := e.tesseractOCR(ctx, img)
		if err != nil {
			warns = append(warns, err.Error())
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\f\n") // keep a clear page break marker
		}
		b.WriteString(txt)
		warns = append(warns, w...)

		if e.cfg.EnableTSVConfidence {
			c, confWarns := e.confidenceOf(ctx, img)
			warns = append(warns, confWarns...)
			if c > 0 {
				confSum += c
				confN++
			}
		}
	}
	if confN > 0 {
		conf = confSum / float64(confN)
	}
	pages = len(matches)
	return b.String(), pages, conf, warns, nil
}

func (e *Extractor) tesseractOCR(ctx context.Context, path string) (string, []string, error) {
	args := []string{path, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}

	// tesseract <file> stdout -l <lang>
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", []string{string(errb)}, fmt.Errorf("tesseract: %w", err)
	}

	// minor cleanup of obvious line noise
	txt := reBoxNoise.ReplaceAllString(string(out), "")
	return txt, nil, nil
}
