package scoring

import "testing"

func TestRound(t *testing.T) {
	cases := []struct {
		in     float64
		places int
		want   float64
	}{
		{0.30000000000000004, 4, 0.3},
		{0.12346, 4, 0.1235},
		{2.5, 0, 2},
		{3.5, 0, 4},
		{0.125, 2, 0.12},
		{2439.6019776244984, 2, 2439.6},
		{-1.005, 2, -1},
	}
	for _, tc := range cases {
		if got := Round(tc.in, tc.places); got != tc.want {
			t.Fatalf("Round(%v, %d) = %v, want %v", tc.in, tc.places, got, tc.want)
		}
	}
}

func TestRiskLabel(t *testing.T) {
	if riskLabel(1) != LabelHighRisk || riskLabel(0) != LabelLowRisk {
		t.Fatalf("unexpected labels")
	}
}
