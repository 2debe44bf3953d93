package evaluation

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestSummarize(t *testing.T) {
	scores := []DocumentScore{
		{DocumentID: "a", EngineName: "poppler", CER: ptr(0.1), WER: ptr(0.2), ProcessingTimeMS: 100},
		{DocumentID: "b", EngineName: "poppler", CER: ptr(0.3), WER: ptr(0.4), ProcessingTimeMS: 300},
		{DocumentID: "c", EngineName: "poppler", Error: "engine crashed"},
		{DocumentID: "a", EngineName: "gemini", ProcessingTimeMS: 50},
	}

	summaries := summarize(scores)

	poppler, ok := summaries["poppler"]
	require.True(t, ok)
	assert.Equal(t, 2, poppler.DocumentsEvaluated, "errored pair excluded")
	assert.InDelta(t, 0.2, poppler.AvgCER, 1e-9)
	assert.InDelta(t, 0.3, poppler.AvgWER, 1e-9)
	assert.InDelta(t, 200.0, poppler.AvgTimeMS, 1e-9)

	// gemini produced no text metrics at all.
	gemini, ok := summaries["gemini"]
	require.True(t, ok)
	assert.Equal(t, 1, gemini.DocumentsEvaluated)
	assert.Equal(t, NoData, gemini.AvgCER)
	assert.Equal(t, NoData, gemini.AvgWER)
	assert.InDelta(t, 50.0, gemini.AvgTimeMS, 1e-9)
}

func TestSummarizeAllErrored(t *testing.T) {
	summaries := summarize([]DocumentScore{
		{DocumentID: "a", EngineName: "poppler", Error: "boom"},
	})
	assert.Empty(t, summaries)
}

func TestReportJSONShape(t *testing.T) {
	report := &Report{
		RunID:     "run-1",
		Timestamp: "2026-01-02T03:04:05Z",
		Scores: []DocumentScore{
			{DocumentID: "a", EngineName: "poppler", CER: ptr(0.0), ProcessingTimeMS: 12},
			{DocumentID: "b", EngineName: "poppler", Error: "unreadable"},
		},
	}
	report.EngineSummaries = summarize(report.Scores)

	data, err := report.ToJSON()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "run-1", decoded["run_id"])

	scores := decoded["scores"].([]any)
	require.Len(t, scores, 2)

	first := scores[0].(map[string]any)
	assert.Equal(t, 0.0, first["cer"])
	_, hasWER := first["wer"]
	assert.False(t, hasWER, "absent metrics are omitted, not zeroed")
	_, hasErr := first["error"]
	assert.False(t, hasErr)

	second := scores[1].(map[string]any)
	assert.Equal(t, "unreadable", second["error"])
	_, hasCER := second["cer"]
	assert.False(t, hasCER)
}

func TestWriteXLSX(t *testing.T) {
	report := &Report{
		RunID:     "run-xlsx",
		Timestamp: "2026-01-02T03:04:05Z",
		Scores: []DocumentScore{
			{DocumentID: "a", EngineName: "poppler", Category: "invoices", CER: ptr(0.05), WER: ptr(0.1), ProcessingTimeMS: 42},
		},
	}
	report.EngineSummaries = summarize(report.Scores)

	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, report.WriteXLSX(path))

	_, err := os.Stat(path)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"Scores", "Summary"}, f.GetSheetList())

	got, err := f.GetCellValue("Scores", "A2")
	require.NoError(t, err)
	assert.Equal(t, "a", got)

	engineCell, err := f.GetCellValue("Summary", "A2")
	require.NoError(t, err)
	assert.Equal(t, "poppler", engineCell)
}

func TestWriteXLSXSummaryOrderStable(t *testing.T) {
	report := &Report{
		RunID: "run-order",
		Scores: []DocumentScore{
			{DocumentID: "a", EngineName: "textract", ProcessingTimeMS: 10},
			{DocumentID: "a", EngineName: "docconv", ProcessingTimeMS: 20},
			{DocumentID: "a", EngineName: "poppler", ProcessingTimeMS: 30},
		},
	}
	report.EngineSummaries = summarize(report.Scores)

	path := filepath.Join(t.TempDir(), "order.xlsx")
	require.NoError(t, report.WriteXLSX(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	var got []string
	for row := 2; row <= 4; row++ {
		cell, err := f.GetCellValue("Summary", fmt.Sprintf("A%d", row))
		require.NoError(t, err)
		got = append(got, cell)
	}
	assert.Equal(t, []string{"docconv", "poppler", "textract"}, got)
}
