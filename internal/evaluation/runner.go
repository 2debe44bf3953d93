package evaluation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/structdocs/docroute/internal/engine"
	"github.com/structdocs/docroute/internal/router"
)

// GroundTruthSuffix is the sidecar suffix: <base>.ground_truth.json sits
// next to the document file <base>.<ext> it describes.
const GroundTruthSuffix = ".ground_truth.json"

// Sidecar is the ground-truth record stored next to each dataset document.
type Sidecar struct {
	DocumentID  string      `json:"document_id"`
	Category    string      `json:"category"`
	GroundTruth GroundTruth `json:"ground_truth"`
}

// GroundTruth holds the reference values a document is scored against.
type GroundTruth struct {
	FullText     string       `json:"full_text"`
	Tables       [][][]string `json:"tables,omitempty"`
	Headings     []string     `json:"headings,omitempty"`
	ReadingOrder []string     `json:"reading_order,omitempty"`
}

// sidecarSchema constrains the sidecar shape; structural fields stay open.
func sidecarSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"document_id", "category", "ground_truth"},
		"properties": map[string]any{
			"document_id": map[string]any{"type": "string", "minLength": 1},
			"category":    map[string]any{"type": "string"},
			"ground_truth": map[string]any{
				"type":     "object",
				"required": []string{"full_text"},
				"properties": map[string]any{
					"full_text":     map[string]any{"type": "string"},
					"tables":        map[string]any{"type": "array"},
					"headings":      map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					"reading_order": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				},
			},
		},
	}
}

func validateSidecar(data []byte) error {
	b, err := json.Marshal(sidecarSchema())
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("sidecar.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("sidecar.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal sidecar: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("sidecar does not match schema: %w", err)
	}
	return nil
}

// Pair is one discovered (document, sidecar) couple.
type Pair struct {
	DocumentPath string
	SidecarPath  string
	Category     string
}

// Runner batch-scores extraction quality against a labeled dataset.
type Runner struct {
	router      *router.Router
	datasetPath string
	logger      *slog.Logger
}

// NewRunner builds a Runner over the dataset rooted at datasetPath.
func NewRunner(rt *router.Router, datasetPath string, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{router: rt, datasetPath: datasetPath, logger: logger}
}

// Discover finds every sidecar under the dataset root (optionally filtered
// by category, the parent directory name) and pairs it with the sibling
// document of matching base name. Sidecars with no matching document are
// skipped silently; partial datasets are expected during curation.
func (r *Runner) Discover(categories []string) ([]Pair, error) {
	catFilter := map[string]struct{}{}
	for _, c := range categories {
		catFilter[c] = struct{}{}
	}

	var pairs []Pair
	err := filepath.WalkDir(r.datasetPath, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), GroundTruthSuffix) {
			return nil
		}
		category := filepath.Base(filepath.Dir(path))
		if len(catFilter) > 0 {
			if _, ok := catFilter[category]; !ok {
				return nil
			}
		}
		base := strings.TrimSuffix(d.Name(), GroundTruthSuffix)
		doc, found := findDocument(filepath.Dir(path), base)
		if !found {
			r.logger.Debug("sidecar has no matching document, skipping", "sidecar", path)
			return nil
		}
		pairs = append(pairs, Pair{DocumentPath: doc, SidecarPath: path, Category: category})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk dataset %q: %w", r.datasetPath, err)
	}
	return pairs, nil
}

// findDocument looks for a sibling whose name minus extension equals base
// and which is not itself a sidecar.
func findDocument(dir, base string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasSuffix(name, GroundTruthSuffix) {
			continue
		}
		if strings.TrimSuffix(name, filepath.Ext(name)) == base {
			return filepath.Join(dir, name), true
		}
	}
	return "", false
}

// Run evaluates the Cartesian product of discovered documents and the
// requested engines (nil = every available engine). A selection or
// extraction failure for one pair yields a DocumentScore carrying only the
// error; the run always completes for the remaining pairs.
func (r *Runner) Run(ctx context.Context, engines, categories []string) (*Report, error) {
	report := &Report{
		RunID:     uuid.New().String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	pairs, err := r.Discover(categories)
	if err != nil {
		return nil, err
	}
	r.logger.Info("discovered ground-truth documents", "count", len(pairs))

	if len(engines) == 0 {
		for _, info := range r.router.List() {
			if info.Available {
				engines = append(engines, info.Name)
			}
		}
	}

	for _, pair := range pairs {
		sc, err := r.loadSidecar(pair.SidecarPath)
		if err != nil {
			r.logger.Warn("invalid ground-truth sidecar, skipping", "sidecar", pair.SidecarPath, "error", err)
			continue
		}
		if sc.Category == "" {
			sc.Category = pair.Category
		}
		for _, engineName := range engines {
			report.Scores = append(report.Scores, r.evaluateOne(ctx, pair.DocumentPath, sc, engineName))
		}
	}

	report.EngineSummaries = summarize(report.Scores)
	return report, nil
}

func (r *Runner) loadSidecar(path string) (*Sidecar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := validateSidecar(data); err != nil {
		return nil, err
	}
	var sc Sidecar
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (r *Runner) evaluateOne(ctx context.Context, docPath string, sc *Sidecar, engineName string) DocumentScore {
	score := DocumentScore{
		DocumentID: sc.DocumentID,
		EngineName: engineName,
		Category:   sc.Category,
	}

	res, err := r.router.Process(ctx, docPath,
		engine.ProcessOptions{Format: engine.FormatMarkdown}, engineName)
	if err != nil {
		score.Error = err.Error()
		return score
	}
	score.ProcessingTimeMS = res.DurationMS()

	if sc.GroundTruth.FullText != "" {
		score.CER = ptr(ComputeCER(res.Content, sc.GroundTruth.FullText))
		score.WER = ptr(ComputeWER(res.Content, sc.GroundTruth.FullText))
	}
	if len(sc.GroundTruth.Tables) > 0 {
		score.TableF1 = ptr(ComputeTableF1(res.Tables, toTables(sc.GroundTruth.Tables)))
	}
	if len(sc.GroundTruth.Headings) > 0 {
		score.HeadingF1 = ptr(ComputeHeadingF1(markdownHeadings(res.Content), sc.GroundTruth.Headings))
	}
	if len(sc.GroundTruth.ReadingOrder) > 0 {
		if predicted, ok := readingOrderOf(res); ok {
			score.ReadingOrder = ptr(ComputeReadingOrderScore(predicted, sc.GroundTruth.ReadingOrder))
		}
	}
	return score
}

func toTables(raw [][][]string) []engine.Table {
	tables := make([]engine.Table, 0, len(raw))
	for _, rows := range raw {
		tables = append(tables, engine.Table{Rows: rows})
	}
	return tables
}

// markdownHeadings pulls ATX headings out of markdown content, the shape
// most engines emit headings in.
func markdownHeadings(content string) []string {
	var headings []string
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "#") {
			continue
		}
		text := strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
		if text != "" {
			headings = append(headings, text)
		}
	}
	return headings
}

// readingOrderOf pulls an engine-reported element ordering from result
// metadata, when the backend exposes one.
func readingOrderOf(res *engine.Result) ([]string, bool) {
	raw, ok := res.Metadata["reading_order"]
	if !ok {
		return nil, false
	}
	switch v := raw.(type) {
	case []string:
		return v, true
	case []any:
		order := make([]string, 0, len(v))
		for _, el := range v {
			s, ok := el.(string)
			if !ok {
				return nil, false
			}
			order = append(order, s)
		}
		return order, true
	}
	return nil, false
}

func ptr(v float64) *float64 { return &v }
