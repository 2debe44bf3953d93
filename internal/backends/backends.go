// Package backends builds the extraction engines and registers them with
// a router. Backend construction failures are logged and skipped: a
// missing credential or SDK config must not keep the other engines from
// registering.
package backends

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"github.com/structdocs/docroute/internal/backends/docconv"
	"github.com/structdocs/docroute/internal/backends/gemini"
	"github.com/structdocs/docroute/internal/backends/mistralocr"
	"github.com/structdocs/docroute/internal/backends/poppler"
	"github.com/structdocs/docroute/internal/backends/tesseract"
	"github.com/structdocs/docroute/internal/backends/textract"
	"github.com/structdocs/docroute/internal/config"
	"github.com/structdocs/docroute/internal/router"
)

// RegisterAll wires every backend into rt. Unavailable engines still
// register; the router's availability checks keep them out of selection.
func RegisterAll(ctx context.Context, rt *router.Router, cfg *config.Config, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	rt.Register(poppler.New(poppler.Config{
		Pdftotext:           cfg.OCR.Pdftotext,
		Pdftoppm:            cfg.OCR.Pdftoppm,
		Tesseract:           cfg.OCR.Tesseract,
		TesseractLang:       cfg.OCR.Language,
		DPI:                 cfg.OCR.DPI,
		MaxPages:            cfg.OCR.MaxPages,
		TessdataDir:         cfg.OCR.TessdataDir,
		EnableTSVConfidence: cfg.OCR.TSVConfidence,
	}, logger))

	rt.Register(tesseract.New(tesseract.Config{}))

	rt.Register(docconv.New())

	rt.Register(gemini.New(gemini.Config{
		APIKey: cfg.Gemini.APIKey,
		Model:  cfg.Gemini.Model,
	}))

	rt.Register(mistralocr.New(mistralocr.Config{
		APIKey:   cfg.Mistral.APIKey,
		Endpoint: cfg.Mistral.Endpoint,
		Model:    cfg.Mistral.Model,
		Timeout:  cfg.Mistral.Timeout,
	}, logger))

	if awsCfg, err := awsconfig.LoadDefaultConfig(ctx); err != nil {
		logger.Warn("aws config not loadable, textract unavailable", "error", err)
	} else {
		hasCreds := credentialsResolvable(ctx, awsCfg)
		rt.Register(textract.New(awsCfg, hasCreds))
	}
}

// credentialsResolvable probes the AWS credential chain once at startup so
// the textract engine's Available check stays cheap afterwards.
func credentialsResolvable(ctx context.Context, cfg aws.Config) bool {
	probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	_, err := cfg.Credentials.Retrieve(probeCtx)
	return err == nil
}
