package testutil

import (
	"math"
	"testing"
)

func TestSine(t *testing.T) {
	s := Sine(1000, 48000, 1, 48)
	if len(s) != 48 {
		t.Fatalf("len = %d, want 48", len(s))
	}

	if math.Abs(s[0]) > 1e-15 {
		t.Fatalf("s[0] = %v, want 0", s[0])
	}

	if got := RMS(s); math.Abs(got-1/math.Sqrt2) > 1e-9 {
		t.Fatalf("RMS = %v, want %v", got, 1/math.Sqrt2)
	}
}

func TestNoiseDeterministic(t *testing.T) {
	a := Noise(42, 1, 64)
	b := Noise(42, 1, 64)
	c := Noise(43, 1, 64)

	RequireSliceNearlyEqual(t, a, b, 0)

	if Peak(a) > 1 {
		t.Fatalf("peak = %v, want <= 1", Peak(a))
	}

	diff := false
	for i := range a {
		if a[i] != c[i] {
			diff = true
			break
		}
	}

	if !diff {
		t.Fatal("different seeds produced identical noise")
	}
}

func TestImpulseAndRamp(t *testing.T) {
	RequireSliceNearlyEqual(t, Impulse(4, 2), []float64{0, 0, 1, 0}, 0)
	RequireSilent(t, Impulse(4, 10), 0)
	RequireSliceNearlyEqual(t, Ramp(0.5, 3), []float64{0.5, 1, 1.5}, 0)
	RequireSliceNearlyEqual(t, DC(0.25, 2), []float64{0.25, 0.25}, 0)
}

func TestMonoStream(t *testing.T) {
	st := MonoStream(8000, Ramp(1, 5))
	if n := len(st.AudioTracks()); n != 1 {
		t.Fatalf("audio tracks = %d, want 1", n)
	}

	RequireSliceNearlyEqual(t, ReadTrack(t, st.AudioTracks()[0]), Ramp(1, 5), 0)
}
