package preanalyze

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/structdocs/docroute/constants"
)

type fakeRunner struct {
	out string
	err error
}

func (f *fakeRunner) Run(context.Context, string, ...string) ([]byte, []byte, error) {
	return []byte(f.out), nil, f.err
}

func newTestAnalyzer(r *fakeRunner) *Analyzer {
	a := New("", slog.New(slog.NewTextHandler(io.Discard, nil)))
	a.runner = r
	return a
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestAnalyzeNonPDF(t *testing.T) {
	path := writeFile(t, "photo.JPG", "not really a jpeg")

	a := newTestAnalyzer(&fakeRunner{})
	got, err := a.Analyze(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "jpg", got.Extension)
	assert.Equal(t, constants.CategoryImage, got.Category)
	assert.Equal(t, "image/jpeg", got.MimeType)
	assert.Equal(t, int64(len("not really a jpeg")), got.SizeBytes)
	assert.Zero(t, got.PageCount)
	assert.Nil(t, got.HasTextLayer)
	assert.False(t, got.IsScannedPDF())
}

func TestAnalyzePDFTextLayer(t *testing.T) {
	path := writeFile(t, "doc.pdf", "%PDF-1.4 stub")

	// Probe output over the threshold marks the PDF text-based. Page
	// counting fails on the stub and degrades to zero.
	a := newTestAnalyzer(&fakeRunner{out: strings.Repeat("extracted words ", 20)})
	got, err := a.Analyze(context.Background(), path)
	require.NoError(t, err)

	require.NotNil(t, got.HasTextLayer)
	assert.True(t, *got.HasTextLayer)
	assert.False(t, got.IsScannedPDF())
}

func TestAnalyzeScannedPDF(t *testing.T) {
	path := writeFile(t, "scan.pdf", "%PDF-1.4 stub")

	a := newTestAnalyzer(&fakeRunner{out: "  \n "})
	got, err := a.Analyze(context.Background(), path)
	require.NoError(t, err)

	require.NotNil(t, got.HasTextLayer)
	assert.False(t, *got.HasTextLayer)
	assert.True(t, got.IsScannedPDF())
}

func TestAnalyzeMissingFile(t *testing.T) {
	a := newTestAnalyzer(&fakeRunner{})
	_, err := a.Analyze(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"))
	require.Error(t, err)
}
