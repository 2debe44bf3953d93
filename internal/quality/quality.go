// Package quality checks extraction results against minimum-quality
// thresholds. It is a standalone post-filter: consumers run Check after an
// extraction and decide whether to retry with a different engine. The
// router never calls it.
package quality

import (
	"strings"
	"unicode"

	"github.com/structdocs/docroute/internal/engine"
)

// Thresholds configures Check. Zero value means "use defaults".
type Thresholds struct {
	// MinTextLength is the minimum content length (after trimming) for an
	// extraction to count as successful. Default 50.
	MinTextLength int
	// MinConfidence rejects results whose engine-reported confidence falls
	// below it. Only applied when the engine reported one. Default 0.8.
	MinConfidence float64
	// MaxGibberishRatio caps the share of non-printable or box-drawing
	// characters, a common OCR-garbage signature. Default 0.3.
	MaxGibberishRatio float64
}

// Defaults fills unset fields.
func (t Thresholds) Defaults() Thresholds {
	if t.MinTextLength <= 0 {
		t.MinTextLength = 50
	}
	if t.MinConfidence <= 0 {
		t.MinConfidence = 0.8
	}
	if t.MaxGibberishRatio <= 0 {
		t.MaxGibberishRatio = 0.3
	}
	return t
}

// Check reports whether res meets every threshold.
func Check(res *engine.Result, t Thresholds) bool {
	t = t.Defaults()

	if res == nil || len(strings.TrimSpace(res.Content)) < t.MinTextLength {
		return false
	}
	if res.Confidence != nil && *res.Confidence < t.MinConfidence {
		return false
	}
	return GibberishRatio(res.Content) <= t.MaxGibberishRatio
}

// GibberishRatio is the share of characters that look like OCR garbage:
// control, surrogate, and private-use runes (common whitespace excepted)
// plus the box-drawing/block/geometric range U+2500–U+25FF. Returns 0 for
// empty input.
func GibberishRatio(text string) float64 {
	if text == "" {
		return 0.0
	}
	total, bad := 0, 0
	for _, r := range text {
		total++
		switch r {
		case '\n', '\r', '\t', ' ':
			continue
		}
		if unicode.Is(unicode.Cc, r) || unicode.Is(unicode.Cs, r) || unicode.Is(unicode.Co, r) {
			bad++
		} else if r >= 0x2500 && r <= 0x25FF {
			bad++
		}
	}
	return float64(bad) / float64(total)
}
