package audioctx

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/cwbudde/algo-streamfx/dsp/filter/biquad"
	"github.com/cwbudde/algo-streamfx/dsp/filter/design"
)

// FilterType selects the response of a BiquadFilterNode.
type FilterType int

const (
	Lowpass FilterType = iota
	Highpass
	Bandpass
	Lowshelf
	Highshelf
	Peaking
	Notch
	Allpass
)

var filterTypeNames = [...]string{
	Lowpass:   "lowpass",
	Highpass:  "highpass",
	Bandpass:  "bandpass",
	Lowshelf:  "lowshelf",
	Highshelf: "highshelf",
	Peaking:   "peaking",
	Notch:     "notch",
	Allpass:   "allpass",
}

func (t FilterType) String() string {
	if t < 0 || int(t) >= len(filterTypeNames) {
		return fmt.Sprintf("FilterType(%d)", int(t))
	}

	return filterTypeNames[t]
}

// ParseFilterType maps a lower-case filter name to its FilterType.
func ParseFilterType(name string) (FilterType, error) {
	for i, n := range filterTypeNames {
		if n == name {
			return FilterType(i), nil
		}
	}

	return 0, fmt.Errorf("%w: unknown filter type %q", ErrInvalidParameter, name)
}

// shelfQ gives the shelves a cookbook slope of 1.
const shelfQ = 1 / math.Sqrt2

// designBiquad computes coefficients for a browser-style filter. Lowpass and
// highpass interpret q in dB, bandpass is normalized to 0 dB at its peak and
// the shelves use a fixed slope. The cutoff limits at 0 and nyquist resolve
// to the response's limiting transfer function.
func designBiquad(typ FilterType, freq, q, gainDB, sampleRate float64) biquad.Coefficients {
	f := min(max(freq/(sampleRate/2), 0), 1)

	passthrough := biquad.Coefficients{B0: 1}
	silence := biquad.Coefficients{}
	shelfGain := biquad.Coefficients{B0: math.Pow(10, gainDB/20)}

	switch typ {
	case Lowpass, Highpass:
		lowpass := typ == Lowpass

		switch {
		case f >= 1 && lowpass, f <= 0 && !lowpass:
			return passthrough
		case f >= 1, f <= 0:
			return silence
		case lowpass:
			return design.Lowpass(freq, math.Pow(10, q/20), sampleRate)
		default:
			return design.Highpass(freq, math.Pow(10, q/20), sampleRate)
		}

	case Bandpass:
		if f <= 0 || f >= 1 {
			return silence
		}

		if q <= 0 {
			return passthrough
		}

		c := design.Bandpass(freq, q, sampleRate)
		c.B0 /= q
		c.B2 /= q

		return c

	case Notch, Allpass, Peaking:
		if f <= 0 || f >= 1 {
			return passthrough
		}

		if q <= 0 {
			switch typ {
			case Notch:
				return silence
			case Allpass:
				return biquad.Coefficients{B0: -1}
			default:
				return shelfGain
			}
		}

		switch typ {
		case Notch:
			return design.Notch(freq, q, sampleRate)
		case Allpass:
			return design.Allpass(freq, q, sampleRate)
		default:
			return design.Peak(freq, gainDB, q, sampleRate)
		}

	case Lowshelf:
		switch {
		case f >= 1:
			return shelfGain
		case f <= 0:
			return passthrough
		}

		return design.LowShelf(freq, gainDB, shelfQ, sampleRate)

	case Highshelf:
		switch {
		case f >= 1:
			return passthrough
		case f <= 0:
			return shelfGain
		}

		return design.HighShelf(freq, gainDB, shelfQ, sampleRate)
	}

	return passthrough
}

// BiquadFilterNode is a second-order IIR filter.
type BiquadFilterNode struct {
	nodeBase

	typ       FilterType
	frequency *Param
	q         *Param
	gain      *Param

	section biquad.Section
	last    [3]float64
	dirty   bool
}

// NewBiquadFilter creates a lowpass filter at 350 Hz with Q 1.
func (c *Context) NewBiquadFilter() *BiquadFilterNode {
	nyquist := c.sampleRate / 2
	n := &BiquadFilterNode{
		frequency: newParam("frequency", 350, 0, nyquist),
		q:         newParam("Q", 1, -math.MaxFloat32, math.MaxFloat32),
		gain:      newParam("gain", 0, -math.MaxFloat32, 1541),
		dirty:     true,
	}
	n.nodeBase = c.newBase(TypeBiquadFilter, 1, 1, n)

	return n
}

// SetType changes the filter response.
func (n *BiquadFilterNode) SetType(typ FilterType) error {
	if typ < 0 || int(typ) >= len(filterTypeNames) {
		return fmt.Errorf("%w: filter type %d", ErrInvalidParameter, int(typ))
	}

	n.ctx.mu.Lock()
	n.typ = typ
	n.dirty = true
	n.ctx.mu.Unlock()

	return nil
}

func (n *BiquadFilterNode) FilterType() FilterType {
	n.ctx.mu.Lock()
	defer n.ctx.mu.Unlock()

	return n.typ
}

func (n *BiquadFilterNode) Frequency() *Param { return n.frequency }
func (n *BiquadFilterNode) Q() *Param         { return n.q }
func (n *BiquadFilterNode) Gain() *Param      { return n.gain }

// FrequencyResponse evaluates the current filter at each frequency in Hz and
// writes magnitude and phase (radians). All slices must have equal length.
// Frequencies outside [0, nyquist] yield NaN.
func (n *BiquadFilterNode) FrequencyResponse(freqs, mag, phase []float64) error {
	if len(mag) != len(freqs) || len(phase) != len(freqs) {
		return fmt.Errorf("%w: response slices differ in length", ErrInvalidParameter)
	}

	n.ctx.mu.Lock()
	coeffs := designBiquad(n.typ, n.frequency.Value(), n.q.Value(), n.gain.Value(), n.ctx.sampleRate)
	n.ctx.mu.Unlock()

	nyquist := n.ctx.sampleRate / 2

	for i, f := range freqs {
		if f < 0 || f > nyquist || math.IsNaN(f) {
			mag[i], phase[i] = math.NaN(), math.NaN()
			continue
		}

		h := coeffs.Response(f, n.ctx.sampleRate)
		mag[i] = cmplx.Abs(h)
		phase[i] = cmplx.Phase(h)
	}

	return nil
}

func (n *BiquadFilterNode) process(in, out []float64) {
	t := n.ctx.now()
	cur := [3]float64{n.frequency.advance(t), n.q.advance(t), n.gain.advance(t)}

	if n.dirty || cur != n.last {
		n.section.Coefficients = designBiquad(n.typ, cur[0], cur[1], cur[2], n.ctx.sampleRate)
		n.last = cur
		n.dirty = false
	}

	n.section.ProcessBlockTo(out, in)
}
