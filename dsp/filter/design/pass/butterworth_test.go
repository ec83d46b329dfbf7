package pass

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-streamfx/dsp/filter/biquad"
)

func TestButterworthLP(t *testing.T) {
	const sr = 48000.0

	tests := []struct {
		order    int
		sections int
	}{
		{1, 1},
		{2, 1},
		{3, 2},
		{4, 2},
	}

	for _, tt := range tests {
		coeffs := ButterworthLP(1000, tt.order, sr)
		if len(coeffs) != tt.sections {
			t.Fatalf("order %d: %d sections, want %d", tt.order, len(coeffs), tt.sections)
		}

		chain := biquad.NewChain(coeffs)

		if db := chain.MagnitudeDB(1000, sr); math.Abs(db+3.0103) > 0.01 {
			t.Errorf("order %d: cutoff gain %.4f dB, want -3.01", tt.order, db)
		}

		if db := chain.MagnitudeDB(10, sr); math.Abs(db) > 0.01 {
			t.Errorf("order %d: passband gain %.4f dB", tt.order, db)
		}
	}

	if ButterworthLP(1000, 0, sr) != nil {
		t.Error("order 0 should return nil")
	}
}
