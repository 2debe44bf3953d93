package evaluation

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/structdocs/docroute/internal/engine"
	"github.com/structdocs/docroute/internal/router"
)

// echoEngine returns canned content per document base name, so ground truth
// can be matched or missed deliberately.
type echoEngine struct {
	name    string
	content map[string]string // base name -> emitted content
}

func (e *echoEngine) Name() string { return e.name }

func (e *echoEngine) SupportedExtensions() map[string]struct{} {
	return engine.ExtSet("txt", "pdf")
}

func (e *echoEngine) Capabilities() engine.Capabilities { return engine.Capabilities{} }

func (e *echoEngine) Available() bool { return true }

func (e *echoEngine) Process(_ context.Context, path string, opts engine.ProcessOptions) (*engine.Result, error) {
	base := filepath.Base(path)
	return &engine.Result{
		Content:    e.content[base],
		Format:     opts.Format,
		EngineName: e.name,
	}, nil
}

func writeDataset(t *testing.T, category, docName, content string, sidecar any) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, category)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, docName), []byte(content), 0o644))

	base := docName[:len(docName)-len(filepath.Ext(docName))]
	data, err := json.Marshal(sidecar)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, base+GroundTruthSuffix), data, 0o644))
	return root
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunnerPerfectExtractionScoresZeroErrorRates(t *testing.T) {
	truth := "The quick brown fox jumps over the lazy dog."
	root := writeDataset(t, "invoices", "sample.txt", truth, Sidecar{
		DocumentID:  "sample",
		Category:    "invoices",
		GroundTruth: GroundTruth{FullText: truth},
	})

	rt := router.New(router.Config{}, testLogger())
	rt.Register(&echoEngine{name: "echo", content: map[string]string{"sample.txt": truth}})

	runner := NewRunner(rt, root, testLogger())
	report, err := runner.Run(context.Background(), []string{"echo"}, nil)
	require.NoError(t, err)

	require.Len(t, report.Scores, 1)
	score := report.Scores[0]
	assert.Equal(t, "sample", score.DocumentID)
	assert.Equal(t, "echo", score.EngineName)
	assert.Equal(t, "invoices", score.Category)
	assert.Empty(t, score.Error)
	require.NotNil(t, score.CER)
	require.NotNil(t, score.WER)
	assert.InDelta(t, 0.0, *score.CER, 1e-9)
	assert.InDelta(t, 0.0, *score.WER, 1e-9)

	summary, ok := report.EngineSummaries["echo"]
	require.True(t, ok)
	assert.Equal(t, 1, summary.DocumentsEvaluated)
	assert.InDelta(t, 0.0, summary.AvgCER, 1e-9)
}

func TestRunnerUnknownEngineRecordsErrorPerDocument(t *testing.T) {
	truth := "some text"
	root := writeDataset(t, "letters", "doc.txt", truth, Sidecar{
		DocumentID:  "doc",
		Category:    "letters",
		GroundTruth: GroundTruth{FullText: truth},
	})

	rt := router.New(router.Config{}, testLogger())
	rt.Register(&echoEngine{name: "echo", content: map[string]string{"doc.txt": truth}})

	runner := NewRunner(rt, root, testLogger())
	report, err := runner.Run(context.Background(), []string{"nosuch"}, nil)
	require.NoError(t, err, "a bad engine name must not abort the run")

	require.Len(t, report.Scores, 1)
	score := report.Scores[0]
	assert.Contains(t, score.Error, "nosuch")
	assert.Nil(t, score.CER)

	// Errored scores contribute nothing to the aggregate.
	_, ok := report.EngineSummaries["nosuch"]
	assert.False(t, ok)
}

func TestRunnerScoresHeadingsAndTables(t *testing.T) {
	content := "# Introduction\n\nbody text\n\n# Conclusion\n"
	root := writeDataset(t, "reports", "r1.txt", content, Sidecar{
		DocumentID: "r1",
		Category:   "reports",
		GroundTruth: GroundTruth{
			FullText: content,
			Headings: []string{"Introduction", "Conclusion"},
			Tables:   [][][]string{{{"a", "b"}}},
		},
	})

	rt := router.New(router.Config{}, testLogger())
	rt.Register(&echoEngine{name: "echo", content: map[string]string{"r1.txt": content}})

	runner := NewRunner(rt, root, testLogger())
	report, err := runner.Run(context.Background(), []string{"echo"}, nil)
	require.NoError(t, err)

	require.Len(t, report.Scores, 1)
	score := report.Scores[0]
	require.NotNil(t, score.HeadingF1)
	assert.InDelta(t, 1.0, *score.HeadingF1, 1e-9)
	// The echo engine reports no tables against a non-empty reference.
	require.NotNil(t, score.TableF1)
	assert.InDelta(t, 0.0, *score.TableF1, 1e-9)
	// No reading order in ground truth, so no score.
	assert.Nil(t, score.ReadingOrder)
}

func TestRunnerCategoryFilter(t *testing.T) {
	truth := "hello"
	root := writeDataset(t, "invoices", "a.txt", truth, Sidecar{
		DocumentID:  "a",
		Category:    "invoices",
		GroundTruth: GroundTruth{FullText: truth},
	})

	rt := router.New(router.Config{}, testLogger())
	rt.Register(&echoEngine{name: "echo", content: map[string]string{"a.txt": truth}})

	runner := NewRunner(rt, root, testLogger())

	report, err := runner.Run(context.Background(), []string{"echo"}, []string{"receipts"})
	require.NoError(t, err)
	assert.Empty(t, report.Scores)

	report, err = runner.Run(context.Background(), []string{"echo"}, []string{"invoices"})
	require.NoError(t, err)
	assert.Len(t, report.Scores, 1)
}

func TestRunnerSkipsInvalidSidecar(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "misc")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.txt"), []byte("text"), 0o644))
	// Missing required document_id.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x"+GroundTruthSuffix),
		[]byte(`{"category":"misc","ground_truth":{"full_text":"text"}}`), 0o644))

	rt := router.New(router.Config{}, testLogger())
	rt.Register(&echoEngine{name: "echo", content: map[string]string{"x.txt": "text"}})

	runner := NewRunner(rt, root, testLogger())
	report, err := runner.Run(context.Background(), []string{"echo"}, nil)
	require.NoError(t, err)
	assert.Empty(t, report.Scores)
}

func TestDiscoverSkipsOrphanSidecars(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "misc")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "orphan"+GroundTruthSuffix),
		[]byte(`{"document_id":"orphan","category":"misc","ground_truth":{"full_text":""}}`), 0o644))

	runner := NewRunner(router.New(router.Config{}, testLogger()), root, testLogger())
	pairs, err := runner.Discover(nil)
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestRunnerDefaultsToAvailableEngines(t *testing.T) {
	truth := "content"
	root := writeDataset(t, "misc", "d.txt", truth, Sidecar{
		DocumentID:  "d",
		Category:    "misc",
		GroundTruth: GroundTruth{FullText: truth},
	})

	rt := router.New(router.Config{}, testLogger())
	rt.Register(&echoEngine{name: "first", content: map[string]string{"d.txt": truth}})
	rt.Register(&echoEngine{name: "second", content: map[string]string{"d.txt": "other"}})

	runner := NewRunner(rt, root, testLogger())
	report, err := runner.Run(context.Background(), nil, nil)
	require.NoError(t, err)

	require.Len(t, report.Scores, 2)
	names := []string{report.Scores[0].EngineName, report.Scores[1].EngineName}
	assert.ElementsMatch(t, []string{"first", "second"}, names)
}

func TestMarkdownHeadings(t *testing.T) {
	content := "# Title\ntext\n## Sub Section\n###\n  # Indented\nno heading"
	got := markdownHeadings(content)
	assert.Equal(t, []string{"Title", "Sub Section", "Indented"}, got)
}

func TestReadingOrderOf(t *testing.T) {
	res := &engine.Result{Metadata: map[string]any{"reading_order": []any{"a", "b"}}}
	order, ok := readingOrderOf(res)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, order)

	res = &engine.Result{Metadata: map[string]any{}}
	_, ok = readingOrderOf(res)
	assert.False(t, ok)
}
