package design

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/cwbudde/algo-streamfx/dsp/filter/biquad"
)

const sr = 48000.0

func magAt(c biquad.Coefficients, freq float64) float64 {
	return cmplx.Abs(c.Response(freq, sr))
}

func TestPassDesigners(t *testing.T) {
	tests := []struct {
		name      string
		c         biquad.Coefficients
		freq      float64
		want      float64
		tolerance float64
	}{
		{"lowpass dc", Lowpass(1000, defaultQ, sr), 0, 1, 1e-9},
		{"lowpass cutoff", Lowpass(1000, defaultQ, sr), 1000, 1 / math.Sqrt2, 1e-6},
		{"lowpass stop", Lowpass(1000, defaultQ, sr), 20000, 0, 1e-2},
		{"highpass nyquist", Highpass(1000, defaultQ, sr), sr / 2, 1, 1e-9},
		{"highpass dc", Highpass(1000, defaultQ, sr), 0, 0, 1e-9},
		{"bandpass center", Bandpass(1000, 2, sr), 1000, 2, 1e-6},
		{"notch center", Notch(1000, 2, sr), 1000, 0, 1e-9},
		{"allpass", Allpass(1000, 2, sr), 3000, 1, 1e-9},
		{"peak center", Peak(1000, 6, 1, sr), 1000, math.Pow(10, 6.0/20), 1e-6},
		{"lowshelf dc", LowShelf(1000, 6, defaultQ, sr), 0, math.Pow(10, 6.0/20), 1e-6},
		{"highshelf nyquist", HighShelf(1000, -6, defaultQ, sr), sr / 2, math.Pow(10, -6.0/20), 1e-6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := magAt(tt.c, tt.freq); math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("|H(%v)| = %v, want %v", tt.freq, got, tt.want)
			}
		})
	}
}

func TestDesignersRejectInvalidFrequency(t *testing.T) {
	for _, freq := range []float64{0, -1, sr / 2, sr, math.NaN()} {
		if c := Lowpass(freq, 1, sr); c != (biquad.Coefficients{}) {
			t.Errorf("Lowpass(%v) = %+v, want zero", freq, c)
		}

		if c := Peak(freq, 3, 1, sr); c != (biquad.Coefficients{}) {
			t.Errorf("Peak(%v) = %+v, want zero", freq, c)
		}
	}
}

func TestNonPositiveQFallsBackToButterworth(t *testing.T) {
	if Lowpass(1000, 0, sr) != Lowpass(1000, defaultQ, sr) {
		t.Error("q=0 should use the default Q")
	}
}
