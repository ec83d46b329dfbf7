package audioctx

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-streamfx/dsp/delay"
)

// MaxDelayTime is the exclusive upper bound for a delay node's capacity in
// seconds.
const MaxDelayTime = 180.0

// DelayNode delays its input by delayTime seconds. Fractional delays are
// read with cubic Hermite interpolation.
type DelayNode struct {
	nodeBase

	delayTime *Param
	maxDelay  float64

	line *delay.Line
}

// NewDelay creates a delay node able to hold maxDelayTime seconds, which
// must lie in (0, MaxDelayTime).
func (c *Context) NewDelay(maxDelayTime float64) (*DelayNode, error) {
	if !(maxDelayTime > 0 && maxDelayTime < MaxDelayTime) {
		return nil, fmt.Errorf("%w: maxDelayTime must be in (0, %v): %v",
			ErrInvalidParameter, MaxDelayTime, maxDelayTime)
	}

	// One slot for the current frame and three for the interpolation
	// neighbours.
	line, err := delay.New(int(math.Ceil(maxDelayTime*c.sampleRate)) + 4)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParameter, err)
	}

	n := &DelayNode{
		delayTime: newParam("delayTime", 0, 0, maxDelayTime),
		maxDelay:  maxDelayTime,
		line:      line,
	}
	n.nodeBase = c.newBase(TypeDelay, 1, 1, n)

	return n, nil
}

func (n *DelayNode) DelayTime() *Param { return n.delayTime }

// MaxDelayTime returns the capacity the node was created with.
func (n *DelayNode) MaxDelayTime() float64 { return n.maxDelay }

func (n *DelayNode) tailFrames() int {
	return int(math.Ceil(n.maxDelay * n.ctx.sampleRate))
}

func (n *DelayNode) process(in, out []float64) {
	// The current frame is written first, so it sits one slot back.
	frames := n.delayTime.advance(n.ctx.now())*n.ctx.sampleRate + 1

	for i, x := range in {
		n.line.Write(x)
		out[i] = n.line.ReadFractional(frames)
	}
}
