package biquad

import (
	"math"
	"math/cmplx"
	"testing"
)

func TestMagnitudeSquared_MatchesResponse(t *testing.T) {
	c := smoother()
	sr := 48000.0

	for _, freq := range []float64{100, 500, 1000, 5000, 10000, 20000} {
		h := c.Response(freq, sr)
		fromResponse := real(h)*real(h) + imag(h)*imag(h)

		if got := c.MagnitudeSquared(freq, sr); !almostEqual(got, fromResponse, 1e-10) {
			t.Errorf("freq=%v: MagnitudeSquared=%.15f, |Response|^2=%.15f", freq, got, fromResponse)
		}

		if db := c.MagnitudeDB(freq, sr); !almostEqual(db, 10*math.Log10(fromResponse), 1e-9) {
			t.Errorf("freq=%v: MagnitudeDB=%.15f", freq, db)
		}

		if ph := c.Phase(freq, sr); !almostEqual(ph, cmplx.Phase(h), 1e-12) {
			t.Errorf("freq=%v: Phase=%.15f, arg(Response)=%.15f", freq, ph, cmplx.Phase(h))
		}
	}
}

func TestResponse_Allpass(t *testing.T) {
	a1, a2 := -0.5, 0.3
	c := Coefficients{B0: a2, B1: a1, B2: 1, A1: a1, A2: a2}

	for _, freq := range []float64{0, 100, 1000, 10000, 24000} {
		if mag := cmplx.Abs(c.Response(freq, 48000)); !almostEqual(mag, 1, 1e-10) {
			t.Errorf("freq=%v: |H|=%.15f, want 1", freq, mag)
		}
	}
}

func TestChain_Response_ProductOfSections(t *testing.T) {
	coeffs := []Coefficients{smoother(), {B0: 0.5, B1: -0.1, A1: -0.3}}
	chain := NewChain(coeffs, WithGain(0.5))
	sr := 48000.0

	if chain.Gain() != 0.5 {
		t.Fatalf("gain = %v", chain.Gain())
	}

	for _, freq := range []float64{100, 1000, 10000} {
		ref := 0.5 * coeffs[0].Response(freq, sr) * coeffs[1].Response(freq, sr)
		got := chain.Response(freq, sr)

		if cmplx.Abs(got-ref) > 1e-10 {
			t.Errorf("freq=%v: chain=%v, product=%v", freq, got, ref)
		}

		if db := chain.MagnitudeDB(freq, sr); !almostEqual(db, 20*math.Log10(cmplx.Abs(ref)), 1e-9) {
			t.Errorf("freq=%v: MagnitudeDB=%v", freq, db)
		}
	}
}

func TestSection_ImpulseResponse(t *testing.T) {
	s := NewSection(smoother())
	s.ProcessSample(0.5)
	s.ProcessSample(0.3)
	saved := s.State()

	ir := s.ImpulseResponse(8)

	if s.State() != saved {
		t.Fatal("ImpulseResponse modified section state")
	}

	want := reference(smoother(), []float64{1, 0, 0, 0, 0, 0, 0, 0})
	for i := range want {
		if !almostEqual(ir[i], want[i], eps) {
			t.Errorf("ir[%d]: got %.15f, want %.15f", i, ir[i], want[i])
		}
	}

	if s.ImpulseResponse(0) != nil {
		t.Error("ImpulseResponse(0) should return nil")
	}
}
