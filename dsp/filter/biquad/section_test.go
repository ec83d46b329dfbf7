package biquad

import (
	"math"
	"testing"
)

const eps = 1e-12

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// smoother is a stable lowpass-like section used across the tests.
func smoother() Coefficients {
	return Coefficients{B0: 0.25, B1: 0.5, B2: 0.25, A1: -0.2, A2: 0.04}
}

func reference(c Coefficients, input []float64) []float64 {
	s := NewSection(c)
	out := make([]float64, len(input))

	for i, x := range input {
		out[i] = s.ProcessSample(x)
	}

	return out
}

func TestProcessSample_ImpulseTrace(t *testing.T) {
	// y0 = 0.25
	// y1 = 0.5 + 0.2*0.25 = 0.55
	// y2 = 0.2*0.55 + (0.25 - 0.04*0.25) = 0.35
	// y3 = 0.2*0.35 - 0.04*0.55 = 0.048
	want := []float64{0.25, 0.55, 0.35, 0.048}
	got := reference(smoother(), []float64{1, 0, 0, 0})

	for i := range want {
		if !almostEqual(got[i], want[i], eps) {
			t.Errorf("sample %d: got %.15f, want %.15f", i, got[i], want[i])
		}
	}
}

func TestProcessBlock_MatchesSample(t *testing.T) {
	// Odd length exercises the unrolled tail.
	input := []float64{1, 0.5, -0.3, 0.7, 0, -1, 0.2, 0.8, -0.1}
	ref := reference(smoother(), input)

	s := NewSection(smoother())
	block := append([]float64(nil), input...)
	s.ProcessBlock(block)

	for i := range block {
		if !almostEqual(block[i], ref[i], eps) {
			t.Errorf("sample %d: ProcessBlock=%.15f, ProcessSample=%.15f", i, block[i], ref[i])
		}
	}
}

func TestProcessBlockTo_MatchesSample(t *testing.T) {
	input := []float64{1, 0.5, -0.3, 0.7, 0, -1, 0.2, 0.8}
	orig := append([]float64(nil), input...)
	ref := reference(smoother(), input)

	s := NewSection(smoother())
	dst := make([]float64, len(input))
	s.ProcessBlockTo(dst, input)

	for i := range dst {
		if !almostEqual(dst[i], ref[i], eps) {
			t.Errorf("sample %d: ProcessBlockTo=%.15f, ProcessSample=%.15f", i, dst[i], ref[i])
		}

		if input[i] != orig[i] {
			t.Errorf("src modified at index %d", i)
		}
	}

	s.ProcessBlockTo(nil, nil)
}

func TestProcessSample_PureDelay(t *testing.T) {
	got := reference(Coefficients{B1: 1}, []float64{1, 2, 3, 4, 5})
	want := []float64{0, 1, 2, 3, 4}

	for i := range want {
		if !almostEqual(got[i], want[i], eps) {
			t.Errorf("sample %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestState_SaveRestore(t *testing.T) {
	s := NewSection(smoother())
	s.ProcessSample(1)
	s.ProcessSample(0.5)
	saved := s.State()

	y3 := s.ProcessSample(-0.3)
	y4 := s.ProcessSample(0.7)

	s.SetState(saved)

	if y := s.ProcessSample(-0.3); !almostEqual(y, y3, eps) {
		t.Errorf("sample 3: got %v after restore, want %v", y, y3)
	}

	if y := s.ProcessSample(0.7); !almostEqual(y, y4, eps) {
		t.Errorf("sample 4: got %v after restore, want %v", y, y4)
	}

	s.Reset()

	if st := s.State(); st != [2]float64{} {
		t.Fatalf("state not zero after reset: %v", st)
	}
}

func TestChain_MatchesSerialSections(t *testing.T) {
	coeffs := []Coefficients{smoother(), {B0: 0.5, B1: -0.1, A1: -0.3}}
	input := []float64{1, 0.5, -0.3, 0.7, 0, -1, 0.2}

	want := reference(coeffs[1], reference(coeffs[0], input))

	c := NewChain(coeffs)
	if c.Order() != 4 || c.NumSections() != 2 {
		t.Fatalf("order=%d sections=%d", c.Order(), c.NumSections())
	}

	block := append([]float64(nil), input...)
	c.ProcessBlock(block)

	for i := range want {
		if !almostEqual(block[i], want[i], eps) {
			t.Errorf("sample %d: got %.15f, want %.15f", i, block[i], want[i])
		}
	}

	c.Reset()

	for i := range c.NumSections() {
		if st := c.Section(i).State(); st != [2]float64{} {
			t.Errorf("section %d not reset: %v", i, st)
		}
	}
}
