// Package textract is the AWS Textract backend: synchronous
// DetectDocumentText over the document bytes, with line-level layout.
package textract

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"

	"github.com/structdocs/docroute/internal/engine"
)

var supportedExtensions = engine.ExtSet("png", "jpg", "jpeg", "pdf", "tiff", "tif")

// API is the Textract surface we call; narrowed for test stubs.
type API interface {
	DetectDocumentText(ctx context.Context, params *textract.DetectDocumentTextInput, optFns ...func(*textract.Options)) (*textract.DetectDocumentTextOutput, error)
}

// Extractor implements engine.Engine on the Textract sync API.
type Extractor struct {
	client   API
	hasCreds bool
}

// New builds the backend from a resolved AWS config. hasCreds should come
// from a successful credential retrieval at startup; Available never
// performs network I/O itself.
func New(cfg aws.Config, hasCreds bool) *Extractor {
	return &Extractor{client: textract.NewFromConfig(cfg), hasCreds: hasCreds}
}

// NewWithClient is for tests.
func NewWithClient(client API) *Extractor {
	return &Extractor{client: client, hasCreds: client != nil}
}

func (e *Extractor) Name() string { return "textract" }

func (e *Extractor) SupportedExtensions() map[string]struct{} { return supportedExtensions }

func (e *Extractor) Capabilities() engine.Capabilities {
	return engine.Capabilities{BoundingBoxes: true, Confidence: true, ReadingOrder: true}
}

func (e *Extractor) Available() bool { return e.hasCreds }

func (e *Extractor) Process(ctx context.Context, path string, opts engine.ProcessOptions) (*engine.Result, error) {
	opts = opts.Normalize()
	start := time.Now()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	out, err := e.client.DetectDocumentText(ctx, &textract.DetectDocumentTextInput{
		Document: &types.Document{Bytes: data},
	})
	if err != nil {
		return nil, fmt.Errorf("textract detect: %w", err)
	}

	var (
		lines      []string
		boxes      []engine.BoundingBox
		order      []string
		confSum    float64
		confBlocks int
	)
	for _, block := range out.Blocks {
		if block.BlockType != types.BlockTypeLine {
			continue
		}
		text := aws.ToString(block.Text)
		lines = append(lines, text)
		order = append(order, aws.ToString(block.Id))
		if block.Confidence != nil {
			confSum += float64(*block.Confidence)
			confBlocks++
		}
		if block.Geometry != nil && block.Geometry.BoundingBox != nil {
			bb := block.Geometry.BoundingBox
			page := 1
			if block.Page != nil {
				page = int(*block.Page)
			}
			boxes = append(boxes, engine.BoundingBox{
				Type: "line",
				Page: page,
				X0:   float64(bb.Left),
				Y0:   float64(bb.Top),
				X1:   float64(bb.Left + bb.Width),
				Y1:   float64(bb.Top + bb.Height),
			})
		}
	}

	res := &engine.Result{
		Content:       engine.RenderText(strings.Join(lines, "\n"), opts.Format),
		Format:        opts.Format,
		EngineName:    e.Name(),
		Pages:         pageCount(out.DocumentMetadata),
		BoundingBoxes: boxes,
		Metadata:      map[string]any{"reading_order": order},
		Duration:      time.Since(start),
	}
	if confBlocks > 0 {
		c := confSum / float64(confBlocks) / 100.0
		res.Confidence = &c
	}
	return res, nil
}

func pageCount(meta *types.DocumentMetadata) int {
	if meta == nil || meta.Pages == nil {
		return 0
	}
	return int(*meta.Pages)
}
