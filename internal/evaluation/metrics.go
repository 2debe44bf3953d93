// Package evaluation scores extraction quality against ground-truth
// datasets and aggregates the results into per-engine reports.
package evaluation

import (
	"strings"

	"github.com/agext/levenshtein"

	"github.com/structdocs/docroute/internal/engine"
)

// Metric conventions: first argument predicted, second reference. Error
// rates are lower-better, F1 and order scores higher-better. Every function
// is total on empty or degenerate input.

// ComputeCER is the character error rate: character-level edit distance
// normalized by reference length. 0.0 on exact match; can exceed 1.0 when
// the prediction is much longer than the reference. An empty reference
// scores 0.0 against an empty prediction and the prediction's rune count
// otherwise, so there is never a division by zero.
func ComputeCER(predicted, reference string) float64 {
	refLen := len([]rune(reference))
	if refLen == 0 {
		if predicted == "" {
			return 0.0
		}
		return float64(len([]rune(predicted)))
	}
	dist := levenshtein.Distance(predicted, reference, nil)
	return float64(dist) / float64(refLen)
}

// ComputeWER is the word error rate: edit distance over whitespace-split
// tokens, normalized by reference token count. Same empty-reference rules
// as ComputeCER.
func ComputeWER(predicted, reference string) float64 {
	pred := strings.Fields(predicted)
	ref := strings.Fields(reference)
	if len(ref) == 0 {
		if len(pred) == 0 {
			return 0.0
		}
		return float64(len(pred))
	}
	return float64(wordDistance(pred, ref)) / float64(len(ref))
}

// wordDistance is a single-row Levenshtein over token slices. The
// levenshtein dependency is rune-oriented, so the word-level variant is
// computed directly.
func wordDistance(a, b []string) int {
	if len(a) == 0 {
		return len(b)
	}
	row := make([]int, len(b)+1)
	for j := range row {
		row[j] = j
	}
	for i := 1; i <= len(a); i++ {
		prev := row[0]
		row[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			tmp := row[j]
			row[j] = minInt(row[j]+1, row[j-1]+1, prev+cost)
			prev = tmp
		}
	}
	return row[len(b)]
}

// ComputeTableF1 flattens every table into a bag of normalized cell strings
// and scores set-intersection precision/recall/F1. Both sides empty is a
// perfect 1.0; exactly one side empty is 0.0.
func ComputeTableF1(predicted, reference []engine.Table) float64 {
	if len(reference) == 0 && len(predicted) == 0 {
		return 1.0
	}
	if len(reference) == 0 || len(predicted) == 0 {
		return 0.0
	}
	return setF1(flattenCells(predicted), flattenCells(reference))
}

// ComputeHeadingF1 scores heading detection with the same normalized-set F1
// methodology, case- and whitespace-insensitive.
func ComputeHeadingF1(predicted, reference []string) float64 {
	if len(reference) == 0 && len(predicted) == 0 {
		return 1.0
	}
	if len(reference) == 0 || len(predicted) == 0 {
		return 0.0
	}
	pred := make(map[string]struct{}, len(predicted))
	for _, h := range predicted {
		pred[normalizeText(h)] = struct{}{}
	}
	ref := make(map[string]struct{}, len(reference))
	for _, h := range reference {
		ref[normalizeText(h)] = struct{}{}
	}
	return setF1(pred, ref)
}

// ComputeReadingOrderScore is Kendall's tau rank correlation between the
// predicted and reference orderings, restricted to elements present in
// both. Returns a value in [-1, 1], 1.0 for a perfect order match. Fewer
// than two common elements is trivially consistent (1.0) only when that
// count equals the full reference size, else 0.0.
func ComputeReadingOrderScore(predicted, reference []string) float64 {
	predIndex := make(map[string]int, len(predicted))
	for i, el := range predicted {
		predIndex[el] = i
	}
	var predRanks []int
	for _, el := range reference {
		if idx, ok := predIndex[el]; ok {
			predRanks = append(predRanks, idx)
		}
	}
	if len(predRanks) < 2 {
		if len(predRanks) == len(reference) {
			return 1.0
		}
		return 0.0
	}

	// Concordant-minus-discordant over total pairs; reference ranks are
	// 0..n-1 by construction, so only the predicted ranks matter.
	n := len(predRanks)
	concordant, total := 0, 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			total++
			if predRanks[i] < predRanks[j] {
				concordant++
			}
		}
	}
	if total == 0 {
		return 1.0
	}
	return float64(2*concordant-total) / float64(total)
}

func setF1(pred, ref map[string]struct{}) float64 {
	if len(pred) == 0 && len(ref) == 0 {
		return 1.0
	}
	tp := 0
	for c := range ref {
		if _, ok := pred[c]; ok {
			tp++
		}
	}
	var precision, recall float64
	if len(pred) > 0 {
		precision = float64(tp) / float64(len(pred))
	}
	if len(ref) > 0 {
		recall = float64(tp) / float64(len(ref))
	}
	if precision+recall == 0 {
		return 0.0
	}
	return 2 * precision * recall / (precision + recall)
}

func flattenCells(tables []engine.Table) map[string]struct{} {
	cells := make(map[string]struct{})
	for _, t := range tables {
		for _, row := range t.Rows {
			for _, cell := range row {
				cells[normalizeText(cell)] = struct{}{}
			}
		}
	}
	return cells
}

// normalizeText lowercases and collapses all whitespace runs to one space.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func minInt(vals ...int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
