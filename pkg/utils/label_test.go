package utils

import "testing"

func TestMergeLabel(t *testing.T) {
	tests := []struct {
		name     string
		existing Label
		incoming Label
		want     Label
	}{
		{
			name:     "empty existing takes incoming",
			existing: Label{},
			incoming: Label{Value: "content", Source: "recall"},
			want:     Label{Value: "content", Source: "recall"},
		},
		{
			name:     "empty incoming keeps existing",
			existing: Label{Value: "svd", Source: "recall"},
			incoming: Label{},
			want:     Label{Value: "svd", Source: "recall"},
		},
		{
			name:     "values and sources accumulate",
			existing: Label{Value: "svd", Source: "recall"},
			incoming: Label{Value: "content", Source: "rank"},
			want:     Label{Value: "svd|content", Source: "recall,rank"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MergeLabel(tt.existing, tt.incoming); got != tt.want {
				t.Errorf("MergeLabel() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestScoreLabel(t *testing.T) {
	if got := ScoreLabel(0.123456, "rank"); got.Value != "0.1235" || got.Source != "rank" {
		t.Errorf("ScoreLabel() = %+v", got)
	}
}
