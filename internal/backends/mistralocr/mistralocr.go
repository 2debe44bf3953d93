// Package mistralocr calls the Mistral OCR HTTP API, which returns
// per-page Markdown for PDFs and images.
package mistralocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/structdocs/docroute/constants"
	"github.com/structdocs/docroute/internal/engine"
)

const (
	defaultEndpoint = "https://api.mistral.ai/v1/ocr"
	defaultModel    = "mistral-ocr-latest"
)

var supportedExtensions = engine.ExtSet("pdf", "png", "jpg", "jpeg", "webp")

// Config holds credentials and endpoint overrides (tests point Endpoint at
// a local server).
type Config struct {
	APIKey   string
	Endpoint string
	Model    string
	Timeout  time.Duration
}

// Extractor implements engine.Engine over the OCR endpoint.
type Extractor struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

// New builds the backend. logger may be nil.
func New(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &Extractor{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

func (e *Extractor) Name() string { return "mistralocr" }

func (e *Extractor) SupportedExtensions() map[string]struct{} { return supportedExtensions }

func (e *Extractor) Capabilities() engine.Capabilities {
	return engine.Capabilities{Images: true, TableStructure: true, HeadingDetection: true, ReadingOrder: true}
}

func (e *Extractor) Available() bool { return e.cfg.APIKey != "" }

type ocrRequest struct {
	Model    string      `json:"model"`
	Document ocrDocument `json:"document"`
}

type ocrDocument struct {
	Type        string `json:"type"`
	DocumentURL string `json:"document_url,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

type ocrResponse struct {
	Pages []struct {
		Index    int    `json:"index"`
		Markdown string `json:"markdown"`
	} `json:"pages"`
	Model string `json:"model"`
}

func (e *Extractor) Process(ctx context.Context, path string, opts engine.ProcessOptions) (*engine.Result, error) {
	opts = opts.Normalize()
	start := time.Now()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ext := constants.ExtOf(path)
	dataURL := fmt.Sprintf("data:%s;base64,%s", constants.MimeOf(ext), base64.StdEncoding.EncodeToString(data))

	doc := ocrDocument{Type: "document_url", DocumentURL: dataURL}
	if constants.CategoryOf(ext) == constants.CategoryImage {
		doc = ocrDocument{Type: "image_url", ImageURL: dataURL}
	}

	raw, _, err := sendJSON(ctx, e.client, e.cfg.Endpoint,
		ocrRequest{Model: e.cfg.Model, Document: doc},
		map[string]string{"Authorization": "Bearer " + e.cfg.APIKey},
		e.logger,
	)
	if err != nil {
		return nil, fmt.Errorf("mistral ocr: %w", err)
	}

	var resp ocrResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode ocr response: %w", err)
	}

	pages := make([]string, 0, len(resp.Pages))
	for _, p := range resp.Pages {
		pages = append(pages, p.Markdown)
	}
	markdown := strings.Join(pages, "\n\n")

	content := markdown
	if opts.Format != engine.FormatMarkdown {
		content = engine.RenderText(markdown, opts.Format)
	}

	return &engine.Result{
		Content:    content,
		Format:     opts.Format,
		EngineName: e.Name(),
		Pages:      len(resp.Pages),
		Metadata:   map[string]any{"model": resp.Model},
		Duration:   time.Since(start),
	}, nil
}
