package score

import (
	"math"
	"testing"
)

func TestJaccard(t *testing.T) {
	tests := []struct {
		name      string
		request   []string
		candidate []string
		want      float64
	}{
		{
			name:      "identical sets",
			request:   []string{"sleep", "deep", "rest"},
			candidate: []string{"sleep", "deep", "rest"},
			want:      1.0,
		},
		{
			name:      "disjoint sets",
			request:   []string{"sleep", "rest"},
			candidate: []string{"focus", "work"},
			want:      0.0,
		},
		{
			name:      "partial overlap",
			request:   []string{"sleep", "deep", "rest", "night"},
			candidate: []string{"rest", "night", "calm", "quiet"},
			want:      2.0 / 6.0,
		},
		{
			name:      "both empty",
			request:   nil,
			candidate: nil,
			want:      0.0,
		},
		{
			name:      "one empty",
			request:   []string{"sleep"},
			candidate: nil,
			want:      0.0,
		},
		{
			name:      "duplicates counted once",
			request:   []string{"sleep", "sleep", "rest"},
			candidate: []string{"sleep", "rest", "rest"},
			want:      1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Jaccard(tt.request, tt.candidate)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Jaccard(%v, %v) = %v, want %v", tt.request, tt.candidate, got, tt.want)
			}
		})
	}
}

func TestJaccardSymmetry(t *testing.T) {
	a := []string{"sleep", "deep", "rest"}
	b := []string{"rest", "calm"}
	if Jaccard(a, b) != Jaccard(b, a) {
		t.Errorf("Jaccard is not symmetric: %v vs %v", Jaccard(a, b), Jaccard(b, a))
	}
}
