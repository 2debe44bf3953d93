// Package gemini transcribes documents with Google's Gemini vision models:
// the page image (or raw text) goes in, structured text comes out.
package gemini

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/structdocs/docroute/constants"
	"github.com/structdocs/docroute/internal/engine"
)

const defaultModel = "gemini-1.5-flash"

var supportedExtensions = engine.ExtSet(
	"png", "jpg", "jpeg", "webp", "gif", "pdf", "html", "htm", "txt", "md",
)

var promptByFormat = map[engine.OutputFormat]string{
	engine.FormatMarkdown: "Transcribe this document to clean Markdown. Preserve headings, lists, and tables. Output only the transcription.",
	engine.FormatHTML:     "Transcribe this document to semantic HTML. Preserve headings, lists, and tables. Output only the HTML.",
	engine.FormatJSON:     `Transcribe this document to a JSON object {"text": ...}. Output only the JSON.`,
	engine.FormatText:     "Transcribe this document to plain text in natural reading order. Output only the text.",
}

// Config holds credentials and model choice.
type Config struct {
	APIKey string
	Model  string // default gemini-1.5-flash
}

// Extractor implements engine.Engine against the Gemini API. The client is
// created lazily and reused; creation is idempotent.
type Extractor struct {
	cfg Config

	once      sync.Once
	client    *genai.Client
	clientErr error
}

// New builds the backend.
func New(cfg Config) *Extractor {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	return &Extractor{cfg: cfg}
}

func (e *Extractor) Name() string { return "gemini" }

func (e *Extractor) SupportedExtensions() map[string]struct{} { return supportedExtensions }

func (e *Extractor) Capabilities() engine.Capabilities {
	return engine.Capabilities{TableStructure: true, HeadingDetection: true, ReadingOrder: true}
}

// Available only checks for credentials; no network call.
func (e *Extractor) Available() bool { return e.cfg.APIKey != "" }

func (e *Extractor) getClient(ctx context.Context) (*genai.Client, error) {
	e.once.Do(func() {
		e.client, e.clientErr = genai.NewClient(ctx, option.WithAPIKey(e.cfg.APIKey))
	})
	return e.client, e.clientErr
}

// Close releases the underlying API client.
func (e *Extractor) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

func (e *Extractor) Process(ctx context.Context, path string, opts engine.ProcessOptions) (*engine.Result, error) {
	opts = opts.Normalize()
	start := time.Now()

	client, err := e.getClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	parts := []genai.Part{genai.Text(promptByFormat[opts.Format])}
	ext := constants.ExtOf(path)
	switch constants.CategoryOf(ext) {
	case constants.CategoryImage:
		parts = append(parts, genai.ImageData(imageFormat(ext), data))
	case constants.CategoryDocument:
		if ext == "pdf" {
			parts = append(parts, genai.Blob{MIMEType: constants.MimeOf(ext), Data: data})
		} else {
			parts = append(parts, genai.Text(string(data)))
		}
	default:
		parts = append(parts, genai.Text(string(data)))
	}

	model := client.GenerativeModel(e.cfg.Model)
	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}

	return &engine.Result{
		Content:    responseText(resp),
		Format:     opts.Format,
		EngineName: e.Name(),
		Metadata:   map[string]any{"model": e.cfg.Model},
		Duration:   time.Since(start),
	}, nil
}

// imageFormat maps an extension to the format label genai.ImageData expects.
func imageFormat(ext string) string {
	if ext == "jpg" {
		return "jpeg"
	}
	return ext
}

func responseText(resp *genai.GenerateContentResponse) string {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b []byte
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b = append(b, t...)
		}
	}
	return string(b)
}
