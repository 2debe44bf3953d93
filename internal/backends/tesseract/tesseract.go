// Package tesseract is the in-process image OCR backend, linked against
// libtesseract via gosseract. Unlike the poppler backend it reports word
// bounding boxes and a mean word confidence.
package tesseract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/otiai10/gosseract/v2"

	"github.com/structdocs/docroute/internal/engine"
)

var supportedExtensions = engine.ExtSet(
	"png", "jpg", "jpeg", "tiff", "tif", "bmp", "webp",
)

// Config tunes recognition. Zero values use tesseract defaults.
type Config struct {
	Languages []string // e.g. ["eng", "deu"]; default ["eng"]
	DPI       int
}

// Extractor implements engine.Engine with a fresh gosseract client per
// call, which keeps concurrent Process calls on distinct paths safe.
type Extractor struct {
	cfg           Config
	clientFactory func() *gosseract.Client
}

// New builds the backend.
func New(cfg Config) *Extractor {
	if len(cfg.Languages) == 0 {
		cfg.Languages = []string{"eng"}
	}
	return &Extractor{cfg: cfg, clientFactory: gosseract.NewClient}
}

func (e *Extractor) Name() string { return "gosseract" }

func (e *Extractor) SupportedExtensions() map[string]struct{} { return supportedExtensions }

func (e *Extractor) Capabilities() engine.Capabilities {
	return engine.Capabilities{BoundingBoxes: true, Confidence: true}
}

// Available probes the linked tesseract installation; any panic or error
// from the cgo layer reports unavailable.
func (e *Extractor) Available() (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	c := e.clientFactory()
	defer c.Close()
	langs, err := c.GetAvailableLanguages()
	return err == nil && len(langs) > 0
}

func (e *Extractor) Process(ctx context.Context, path string, opts engine.ProcessOptions) (*engine.Result, error) {
	opts = opts.Normalize()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	c := e.clientFactory()
	defer c.Close()

	if err := c.SetImage(path); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	if err := c.SetLanguage(e.cfg.Languages...); err != nil {
		return nil, fmt.Errorf("set languages: %w", err)
	}
	if e.cfg.DPI > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), fmt.Sprint(e.cfg.DPI)); err != nil {
			return nil, fmt.Errorf("set dpi: %w", err)
		}
	}

	text, err := c.Text()
	if err != nil {
		return nil, fmt.Errorf("recognize text: %w", err)
	}
	text = strings.TrimSpace(text)

	boxes, confidence := wordBoxes(c)

	res := &engine.Result{
		Content:       engine.RenderText(text, opts.Format),
		Format:        opts.Format,
		EngineName:    e.Name(),
		Pages:         1,
		BoundingBoxes: boxes,
		Metadata: map[string]any{
			"languages": strings.Join(e.cfg.Languages, "+"),
		},
		Duration: time.Since(start),
	}
	if confidence > 0 {
		res.Confidence = &confidence
	}
	return res, nil
}

// wordBoxes collects word-level bounding boxes and the mean confidence
// rescaled to 0..1. Box retrieval failures degrade to no boxes.
func wordBoxes(c *gosseract.Client) ([]engine.BoundingBox, float64) {
	words, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(words) == 0 {
		return nil, 0
	}
	boxes := make([]engine.BoundingBox, 0, len(words))
	var sum float64
	for _, w := range words {
		boxes = append(boxes, engine.BoundingBox{
			Type: "word",
			Page: 1,
			X0:   float64(w.Box.Min.X),
			Y0:   float64(w.Box.Min.Y),
			X1:   float64(w.Box.Max.X),
			Y1:   float64(w.Box.Max.Y),
		})
		sum += w.Confidence
	}
	return boxes, sum / float64(len(words)) / 100.0
}
