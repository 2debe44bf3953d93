package textract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awstextract "github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/structdocs/docroute/internal/engine"
)

type stubAPI struct {
	out  *awstextract.DetectDocumentTextOutput
	err  error
	seen *awstextract.DetectDocumentTextInput
}

func (s *stubAPI) DetectDocumentText(_ context.Context, params *awstextract.DetectDocumentTextInput, _ ...func(*awstextract.Options)) (*awstextract.DetectDocumentTextOutput, error) {
	s.seen = params
	return s.out, s.err
}

func lineBlock(id, text string, conf float32) types.Block {
	return types.Block{
		BlockType:  types.BlockTypeLine,
		Id:         aws.String(id),
		Text:       aws.String(text),
		Confidence: aws.Float32(conf),
		Page:       aws.Int32(1),
		Geometry: &types.Geometry{
			BoundingBox: &types.BoundingBox{Left: 0.1, Top: 0.2, Width: 0.5, Height: 0.05},
		},
	}
}

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scan.png")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestProcessAssemblesLines(t *testing.T) {
	stub := &stubAPI{out: &awstextract.DetectDocumentTextOutput{
		DocumentMetadata: &types.DocumentMetadata{Pages: aws.Int32(1)},
		Blocks: []types.Block{
			lineBlock("id-1", "INVOICE #42", 99.0),
			{BlockType: types.BlockTypeWord, Text: aws.String("ignored")},
			lineBlock("id-2", "Total: 12.50", 91.0),
		},
	}}
	e := NewWithClient(stub)
	path := writeDoc(t, "png bytes")

	res, err := e.Process(context.Background(), path, engine.ProcessOptions{Format: engine.FormatText})
	require.NoError(t, err)

	assert.Equal(t, "INVOICE #42\nTotal: 12.50", res.Content)
	assert.Equal(t, "textract", res.EngineName)
	assert.Equal(t, 1, res.Pages)
	assert.Equal(t, []string{"id-1", "id-2"}, res.Metadata["reading_order"])

	require.NotNil(t, res.Confidence)
	assert.InDelta(t, 0.95, *res.Confidence, 1e-6)

	require.Len(t, res.BoundingBoxes, 2)
	box := res.BoundingBoxes[0]
	assert.Equal(t, "line", box.Type)
	assert.Equal(t, 1, box.Page)
	assert.InDelta(t, 0.6, box.X1, 1e-6)
	assert.InDelta(t, 0.25, box.Y1, 1e-6)

	require.NotNil(t, stub.seen)
	assert.Equal(t, []byte("png bytes"), stub.seen.Document.Bytes)
}

func TestProcessAPIError(t *testing.T) {
	e := NewWithClient(&stubAPI{err: errors.New("throttled")})
	path := writeDoc(t, "png bytes")

	_, err := e.Process(context.Background(), path, engine.ProcessOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
}

func TestProcessMissingFile(t *testing.T) {
	e := NewWithClient(&stubAPI{})
	_, err := e.Process(context.Background(), filepath.Join(t.TempDir(), "nope.png"), engine.ProcessOptions{})
	require.Error(t, err)
}

func TestAvailability(t *testing.T) {
	assert.True(t, NewWithClient(&stubAPI{}).Available())
	assert.False(t, New(aws.Config{}, false).Available())
}
