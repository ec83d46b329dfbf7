package audioctx

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-streamfx/dsp/conv"
	"github.com/cwbudde/algo-vecmath"
)

// Normalization constants for impulse responses.
const (
	gainCalibration           = 0.00125
	gainCalibrationSampleRate = 44100.0
	minPower                  = 0.000125
)

// ConvolverNode convolves its input with an impulse response using
// streaming overlap-save FFT convolution over one render quantum, so the
// node adds no latency.
type ConvolverNode struct {
	nodeBase

	normalize bool
	irLength  int

	sos *conv.StreamingOverlapSave
}

// NewConvolver creates a convolver for buf. Multi-channel responses are
// averaged to mono. With normalize set, the response is scaled by its power.
func (c *Context) NewConvolver(buf *Buffer, normalize bool) (*ConvolverNode, error) {
	if buf == nil {
		return nil, ErrEmptyBuffer
	}

	if buf.SampleRate() != c.sampleRate {
		return nil, fmt.Errorf("%w: impulse response at %v Hz, context at %v Hz",
			ErrSampleRateMismatch, buf.SampleRate(), c.sampleRate)
	}

	ir := buf.Mono()
	if normalize {
		vecmath.ScaleBlock(ir, ir, normalizationScale(buf))
	}

	sos, err := conv.NewStreamingOverlapSave(ir, c.blockSize)
	if err != nil {
		return nil, fmt.Errorf("audioctx: convolver: %w", err)
	}

	n := &ConvolverNode{
		normalize: normalize,
		irLength:  len(ir),
		sos:       sos,
	}
	n.nodeBase = c.newBase(TypeConvolver, 1, 1, n)

	return n, nil
}

// normalizationScale returns the factor that brings buf to a calibrated
// power level.
func normalizationScale(buf *Buffer) float64 {
	power := 0.0
	for ch := range buf.NumberOfChannels() {
		for _, v := range buf.Channel(ch) {
			power += v * v
		}
	}

	power = math.Sqrt(power / float64(buf.NumberOfChannels()*buf.Length()))
	if math.IsNaN(power) || math.IsInf(power, 0) || power < minPower {
		power = minPower
	}

	scale := 1 / power * gainCalibration
	scale *= gainCalibrationSampleRate / buf.SampleRate()

	if buf.NumberOfChannels() == 4 {
		scale *= 0.5
	}

	return scale
}

// Normalize reports whether the response was power-normalized.
func (n *ConvolverNode) Normalize() bool { return n.normalize }

// ImpulseLength returns the response length in frames.
func (n *ConvolverNode) ImpulseLength() int { return n.irLength }

func (n *ConvolverNode) tailFrames() int { return n.irLength - 1 }

func (n *ConvolverNode) process(in, out []float64) {
	if err := n.sos.ProcessBlockTo(out, in); err != nil {
		clear(out)
	}
}
