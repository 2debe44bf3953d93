package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/structdocs/docroute/internal/engine"
)

func TestComputeCER(t *testing.T) {
	tests := []struct {
		name      string
		predicted string
		reference string
		want      float64
	}{
		{name: "exact match", predicted: "hello world", reference: "hello world", want: 0.0},
		{name: "single substitution", predicted: "hallo", reference: "hello", want: 0.2},
		{name: "empty both", predicted: "", reference: "", want: 0.0},
		{name: "empty reference counts prediction runes", predicted: "abc", reference: "", want: 3.0},
		{name: "empty prediction", predicted: "", reference: "abcd", want: 1.0},
		{name: "multibyte runes", predicted: "héllo", reference: "héllo", want: 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ComputeCER(tt.predicted, tt.reference), 1e-9)
		})
	}
}

func TestComputeCERCanExceedOne(t *testing.T) {
	got := ComputeCER("a much much longer prediction", "a")
	assert.Greater(t, got, 1.0)
}

func TestComputeWER(t *testing.T) {
	tests := []struct {
		name      string
		predicted string
		reference string
		want      float64
	}{
		{name: "exact match", predicted: "the quick brown fox", reference: "the quick brown fox", want: 0.0},
		{name: "one of four words wrong", predicted: "the quick brown dog", reference: "the quick brown fox", want: 0.25},
		{name: "whitespace insensitive", predicted: "the  quick\nbrown fox", reference: "the quick brown fox", want: 0.0},
		{name: "empty both", predicted: "", reference: "", want: 0.0},
		{name: "empty reference counts prediction words", predicted: "two words", reference: "", want: 2.0},
		{name: "empty prediction", predicted: "", reference: "one two three", want: 1.0},
		{name: "insertion", predicted: "the very quick fox", reference: "the quick fox", want: 1.0 / 3.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ComputeWER(tt.predicted, tt.reference), 1e-9)
		})
	}
}

func TestComputeTableF1(t *testing.T) {
	ref := []engine.Table{{Rows: [][]string{{"Name", "Amount"}, {"Coffee", "3.50"}}}}

	tests := []struct {
		name      string
		predicted []engine.Table
		reference []engine.Table
		want      float64
	}{
		{name: "both empty", predicted: nil, reference: nil, want: 1.0},
		{name: "missing prediction", predicted: nil, reference: ref, want: 0.0},
		{name: "spurious prediction", predicted: ref, reference: nil, want: 0.0},
		{name: "identical tables", predicted: ref, reference: ref, want: 1.0},
		{
			name:      "case and whitespace insensitive",
			predicted: []engine.Table{{Rows: [][]string{{"  name ", "AMOUNT"}, {"coffee", "3.50"}}}},
			reference: ref,
			want:      1.0,
		},
		{
			name:      "half the cells found",
			predicted: []engine.Table{{Rows: [][]string{{"Name", "Amount"}}}},
			reference: ref,
			// precision 1.0, recall 0.5
			want: 2.0 / 3.0,
		},
		{
			name:      "no overlap",
			predicted: []engine.Table{{Rows: [][]string{{"x", "y"}}}},
			reference: ref,
			want:      0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ComputeTableF1(tt.predicted, tt.reference), 1e-9)
		})
	}
}

func TestComputeHeadingF1(t *testing.T) {
	tests := []struct {
		name      string
		predicted []string
		reference []string
		want      float64
	}{
		{name: "both empty", predicted: nil, reference: nil, want: 1.0},
		{name: "missing predictions", predicted: nil, reference: []string{"Intro"}, want: 0.0},
		{name: "spurious predictions", predicted: []string{"Intro"}, reference: nil, want: 0.0},
		{name: "exact", predicted: []string{"Intro", "Methods"}, reference: []string{"Intro", "Methods"}, want: 1.0},
		{name: "case insensitive", predicted: []string{"INTRO"}, reference: []string{"intro"}, want: 1.0},
		{
			name:      "partial overlap",
			predicted: []string{"Intro", "Results"},
			reference: []string{"Intro", "Methods"},
			want:      0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ComputeHeadingF1(tt.predicted, tt.reference), 1e-9)
		})
	}
}

func TestComputeReadingOrderScore(t *testing.T) {
	tests := []struct {
		name      string
		predicted []string
		reference []string
		want      float64
	}{
		{name: "perfect order", predicted: []string{"a", "b", "c", "d"}, reference: []string{"a", "b", "c", "d"}, want: 1.0},
		{name: "fully reversed", predicted: []string{"d", "c", "b", "a"}, reference: []string{"a", "b", "c", "d"}, want: -1.0},
		{name: "both empty", predicted: nil, reference: nil, want: 1.0},
		{name: "single common element of one", predicted: []string{"a"}, reference: []string{"a"}, want: 1.0},
		{name: "single common element of many", predicted: []string{"a"}, reference: []string{"a", "b", "c"}, want: 0.0},
		{name: "no common elements", predicted: []string{"x", "y"}, reference: []string{"a", "b"}, want: 0.0},
		{
			name:      "one swap of four",
			predicted: []string{"a", "c", "b", "d"},
			reference: []string{"a", "b", "c", "d"},
			// 5 of 6 pairs concordant
			want: 2.0 / 3.0,
		},
		{
			name:      "ignores elements missing from prediction",
			predicted: []string{"a", "c"},
			reference: []string{"a", "b", "c"},
			want:      1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ComputeReadingOrderScore(tt.predicted, tt.reference), 1e-9)
		})
	}
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "hello world", normalizeText("  Hello \t WORLD\n"))
	assert.Equal(t, "", normalizeText("   "))
}
