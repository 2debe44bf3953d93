package evaluation

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"
)

// NoData marks an aggregate with no scorable pairs. 0.0 is a legitimate
// perfect score, so absence needs a distinguished sentinel.
const NoData = -1.0

// DocumentScore is one (document, engine) pair's evaluation outcome.
// Nil metric pointers mean the metric was not applicable; a non-empty
// Error means the pair failed and contributes to no aggregate.
type DocumentScore struct {
	DocumentID string `json:"document_id"`
	EngineName string `json:"engine_name"`
	Category   string `json:"category"`

	CER          *float64 `json:"cer,omitempty"`
	WER          *float64 `json:"wer,omitempty"`
	TableF1      *float64 `json:"table_f1,omitempty"`
	HeadingF1    *float64 `json:"heading_f1,omitempty"`
	ReadingOrder *float64 `json:"reading_order,omitempty"`

	ProcessingTimeMS int64  `json:"processing_time_ms"`
	Error            string `json:"error,omitempty"`
}

// EngineSummary aggregates one engine's scores across a run.
type EngineSummary struct {
	AvgCER             float64 `json:"avg_cer"`
	AvgWER             float64 `json:"avg_wer"`
	AvgTimeMS          float64 `json:"avg_time_ms"`
	DocumentsEvaluated int     `json:"documents_evaluated"`
}

// Report is the full outcome of one evaluation run.
type Report struct {
	RunID           string                   `json:"run_id"`
	Timestamp       string                   `json:"timestamp"`
	Scores          []DocumentScore          `json:"scores"`
	EngineSummaries map[string]EngineSummary `json:"engine_summaries"`
}

// ToJSON renders the report as indented JSON.
func (r *Report) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// summarize computes per-engine averages over the pairs that succeeded.
func summarize(scores []DocumentScore) map[string]EngineSummary {
	type acc struct {
		cerSum, werSum, timeSum float64
		cerN, werN, count       int
	}
	accs := make(map[string]*acc)
	for _, s := range scores {
		if s.Error != "" {
			continue
		}
		a := accs[s.EngineName]
		if a == nil {
			a = &acc{}
			accs[s.EngineName] = a
		}
		a.count++
		a.timeSum += float64(s.ProcessingTimeMS)
		if s.CER != nil {
			a.cerSum += *s.CER
			a.cerN++
		}
		if s.WER != nil {
			a.werSum += *s.WER
			a.werN++
		}
	}

	summaries := make(map[string]EngineSummary, len(accs))
	for name, a := range accs {
		sum := EngineSummary{
			AvgCER:             NoData,
			AvgWER:             NoData,
			AvgTimeMS:          NoData,
			DocumentsEvaluated: a.count,
		}
		if a.cerN > 0 {
			sum.AvgCER = a.cerSum / float64(a.cerN)
		}
		if a.werN > 0 {
			sum.AvgWER = a.werSum / float64(a.werN)
		}
		if a.count > 0 {
			sum.AvgTimeMS = a.timeSum / float64(a.count)
		}
		summaries[name] = sum
	}
	return summaries
}

// WriteXLSX renders the report as an XLSX workbook: one sheet of per-pair
// scores, one sheet of per-engine summaries.
func (r *Report) WriteXLSX(path string) error {
	f := excelize.NewFile()

	const scoreSheet = "Scores"
	idx, err := f.NewSheet(scoreSheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)

	headers := []string{"Document", "Engine", "Category", "CER", "WER", "Table F1", "Heading F1", "Reading Order", "Time (ms)", "Error"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(scoreSheet, cell, h); err != nil {
			return err
		}
	}
	for rowIdx, s := range r.Scores {
		values := []any{
			s.DocumentID, s.EngineName, s.Category,
			metricCell(s.CER), metricCell(s.WER), metricCell(s.TableF1),
			metricCell(s.HeadingF1), metricCell(s.ReadingOrder),
			s.ProcessingTimeMS, s.Error,
		}
		for colIdx, v := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err := f.SetCellValue(scoreSheet, cell, v); err != nil {
				return err
			}
		}
	}

	const summarySheet = "Summary"
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	sumHeaders := []string{"Engine", "Avg CER", "Avg WER", "Avg Time (ms)", "Documents"}
	for i, h := range sumHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(summarySheet, cell, h); err != nil {
			return err
		}
	}
	names := make([]string, 0, len(r.EngineSummaries))
	for name := range r.EngineSummaries {
		names = append(names, name)
	}
	sort.Strings(names)

	row := 2
	for _, name := range names {
		sum := r.EngineSummaries[name]
		values := []any{name, sum.AvgCER, sum.AvgWER, sum.AvgTimeMS, sum.DocumentsEvaluated}
		for colIdx, v := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, row)
			if err := f.SetCellValue(summarySheet, cell, v); err != nil {
				return err
			}
		}
		row++
	}

	// Drop excelize's default sheet so the workbook opens on Scores.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}
	return f.SaveAs(path)
}

func metricCell(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}
