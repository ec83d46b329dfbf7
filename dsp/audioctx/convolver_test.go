package audioctx

import (
	"errors"
	"testing"

	"github.com/cwbudde/algo-streamfx/internal/testutil"
)

func directConvolve(x, h []float64) []float64 {
	out := make([]float64, len(x)+len(h)-1)
	for i, xv := range x {
		for j, hv := range h {
			out[i+j] += xv * hv
		}
	}

	return out
}

func mustBuffer(t *testing.T, sampleRate float64, channels ...[]float64) *Buffer {
	t.Helper()

	b, err := NewBuffer(sampleRate, channels)
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}

	return b
}

func TestConvolverMatchesDirectConvolution(t *testing.T) {
	tests := []struct {
		name      string
		blockSize int
		irLen     int
		inLen     int
	}{
		{"unit impulse", 128, 1, 300},
		{"short ir", 64, 40, 500},
		{"multi partition", 64, 300, 500},
		{"ir longer than input", 32, 1000, 100},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := mustContext(t, WithSampleRate(8000), WithBlockSize(tc.blockSize))

			ir := testutil.Noise(3, 0.5, tc.irLen)
			if tc.irLen == 1 {
				ir = []float64{1}
			}

			conv, err := c.NewConvolver(mustBuffer(t, 8000, ir), false)
			if err != nil {
				t.Fatalf("NewConvolver: %v", err)
			}

			in := testutil.Noise(5, 1, tc.inLen)
			out := renderThrough(t, c, in, conv)

			testutil.RequireSliceNearlyEqual(t, out, directConvolve(in, ir), 1e-9)
		})
	}
}

func TestConvolverDelayedImpulse(t *testing.T) {
	c := mustContext(t, WithSampleRate(8000), WithBlockSize(16))

	conv, err := c.NewConvolver(mustBuffer(t, 8000, []float64{0, 0, 1}), false)
	if err != nil {
		t.Fatalf("NewConvolver: %v", err)
	}

	in := testutil.Ramp(1, 20)
	want := append([]float64{0, 0}, in...)

	testutil.RequireSliceNearlyEqual(t, renderThrough(t, c, in, conv), want, 1e-9)
}

func TestConvolverNormalization(t *testing.T) {
	c := mustContext(t, WithSampleRate(44100), WithBlockSize(64))

	// Constant 0.5 response: power 0.5, scale 0.00125/0.5.
	conv, err := c.NewConvolver(mustBuffer(t, 44100, testutil.DC(0.5, 100)), true)
	if err != nil {
		t.Fatalf("NewConvolver: %v", err)
	}

	if !conv.Normalize() || conv.ImpulseLength() != 100 {
		t.Fatalf("Normalize=%v ImpulseLength=%d", conv.Normalize(), conv.ImpulseLength())
	}

	out := renderThrough(t, c, testutil.Impulse(1, 0), conv)
	testutil.RequireSliceNearlyEqual(t, out, testutil.DC(0.5*0.0025, 100), 1e-12)
}

func TestNormalizationScale(t *testing.T) {
	tests := []struct {
		name string
		buf  *Buffer
		want float64
	}{
		{"mono 44.1k", mustBuffer(t, 44100, testutil.DC(0.5, 10)), 0.0025},
		{"mono 88.2k", mustBuffer(t, 88200, testutil.DC(0.5, 10)), 0.00125},
		{"silent uses floor", mustBuffer(t, 44100, testutil.DC(0, 10)), 10},
		{
			"quad halves",
			mustBuffer(t, 44100, testutil.DC(0.5, 4), testutil.DC(0.5, 4), testutil.DC(0.5, 4), testutil.DC(0.5, 4)),
			0.00125,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := normalizationScale(tc.buf)
			testutil.RequireSliceNearlyEqual(t, []float64{got}, []float64{tc.want}, 1e-12)
		})
	}
}

func TestConvolverRejectsMismatchedRate(t *testing.T) {
	c := mustContext(t, WithSampleRate(48000))

	if _, err := c.NewConvolver(mustBuffer(t, 44100, []float64{1}), false); !errors.Is(err, ErrSampleRateMismatch) {
		t.Fatalf("err = %v, want %v", err, ErrSampleRateMismatch)
	}

	if _, err := c.NewConvolver(nil, false); !errors.Is(err, ErrEmptyBuffer) {
		t.Fatalf("nil buffer: err = %v, want %v", err, ErrEmptyBuffer)
	}
}

func TestBufferValidation(t *testing.T) {
	if _, err := NewBuffer(0, [][]float64{{1}}); !errors.Is(err, ErrInvalidSampleRate) {
		t.Fatalf("zero rate: err = %v", err)
	}

	if _, err := NewBuffer(8000, nil); !errors.Is(err, ErrEmptyBuffer) {
		t.Fatalf("no channels: err = %v", err)
	}

	if _, err := NewBuffer(8000, [][]float64{{1, 2}, {1}}); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("ragged: err = %v", err)
	}

	b := mustBuffer(t, 8000, []float64{1, 0}, []float64{0, 1})
	testutil.RequireSliceNearlyEqual(t, b.Mono(), []float64{0.5, 0.5}, 0)

	if b.Duration() != 2.0/8000 {
		t.Fatalf("Duration = %v", b.Duration())
	}
}
