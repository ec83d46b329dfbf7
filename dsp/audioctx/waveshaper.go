package audioctx

import (
	"fmt"
	"math"
	"slices"

	"github.com/cwbudde/algo-streamfx/dsp/filter/biquad"
	"github.com/cwbudde/algo-streamfx/dsp/filter/design/pass"
)

// Oversample selects the rate at which a WaveShaperNode applies its curve.
type Oversample int

const (
	OversampleNone Oversample = iota
	Oversample2x
	Oversample4x
)

func (o Oversample) String() string {
	switch o {
	case OversampleNone:
		return "none"
	case Oversample2x:
		return "2x"
	case Oversample4x:
		return "4x"
	default:
		return fmt.Sprintf("Oversample(%d)", int(o))
	}
}

// Factor returns the oversampling ratio.
func (o Oversample) Factor() int {
	switch o {
	case Oversample2x:
		return 2
	case Oversample4x:
		return 4
	default:
		return 1
	}
}

// ParseOversample accepts "none", "2x" and "4x".
func ParseOversample(s string) (Oversample, error) {
	switch s {
	case "none":
		return OversampleNone, nil
	case "2x":
		return Oversample2x, nil
	case "4x":
		return Oversample4x, nil
	default:
		return 0, fmt.Errorf("%w: unknown oversample mode %q", ErrInvalidParameter, s)
	}
}

// antiAliasOrder is the Butterworth order of the oversampling filters.
const antiAliasOrder = 4

// WaveShaperNode maps each sample through a transfer curve. Input -1 maps to
// the first curve point and +1 to the last; values in between are linearly
// interpolated, values outside are clamped to the end points. An empty curve
// passes the signal through.
type WaveShaperNode struct {
	nodeBase

	curve      []float64
	oversample Oversample

	up   *biquad.Chain
	down *biquad.Chain
	work []float64
}

// NewWaveShaper creates a wave shaper. The curve is copied.
func (c *Context) NewWaveShaper(curve []float64, oversample Oversample) (*WaveShaperNode, error) {
	for i, v := range curve {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: curve[%d] is not finite", ErrInvalidParameter, i)
		}
	}

	factor := oversample.Factor()
	if oversample != OversampleNone && factor == 1 {
		return nil, fmt.Errorf("%w: oversample %v", ErrInvalidParameter, oversample)
	}

	n := &WaveShaperNode{
		curve:      slices.Clone(curve),
		oversample: oversample,
		work:       make([]float64, c.blockSize*factor),
	}

	if factor > 1 {
		rate := c.sampleRate * float64(factor)
		cutoff := 0.45 * c.sampleRate

		n.up = biquad.NewChain(pass.ButterworthLP(cutoff, antiAliasOrder, rate))
		n.down = biquad.NewChain(pass.ButterworthLP(cutoff, antiAliasOrder, rate))
	}

	n.nodeBase = c.newBase(TypeWaveShaper, 1, 1, n)

	return n, nil
}

// Curve returns a copy of the transfer curve.
func (n *WaveShaperNode) Curve() []float64 { return slices.Clone(n.curve) }

func (n *WaveShaperNode) Oversample() Oversample { return n.oversample }

// shape applies the curve to one sample.
func (n *WaveShaperNode) shape(x float64) float64 {
	last := len(n.curve) - 1
	if last < 0 {
		return x
	}

	v := float64(last) / 2 * (x + 1)

	switch {
	case v <= 0 || math.IsNaN(v):
		return n.curve[0]
	case v >= float64(last):
		return n.curve[last]
	}

	i := int(v)
	frac := v - float64(i)

	return n.curve[i] + frac*(n.curve[i+1]-n.curve[i])
}

func (n *WaveShaperNode) process(in, out []float64) {
	factor := n.oversample.Factor()
	if factor == 1 || len(n.curve) == 0 {
		for i, x := range in {
			out[i] = n.shape(x)
		}

		return
	}

	work := n.work[:len(in)*factor]
	clear(work)

	for i, x := range in {
		work[i*factor] = x * float64(factor)
	}

	n.up.ProcessBlock(work)

	for i, x := range work {
		work[i] = n.shape(x)
	}

	n.down.ProcessBlock(work)

	for i := range out {
		out[i] = work[i*factor]
	}
}
