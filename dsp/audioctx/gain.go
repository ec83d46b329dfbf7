package audioctx

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// GainNode scales its input by the gain parameter.
type GainNode struct {
	nodeBase

	gain *Param
}

// NewGain creates a gain node with unity gain.
func (c *Context) NewGain() *GainNode {
	n := &GainNode{gain: newParam("gain", 1, -math.MaxFloat32, math.MaxFloat32)}
	n.nodeBase = c.newBase(TypeGain, 1, 1, n)

	return n
}

// Gain returns the linear gain parameter.
func (n *GainNode) Gain() *Param { return n.gain }

func (n *GainNode) process(in, out []float64) {
	vecmath.ScaleBlock(out, in, n.gain.advance(n.ctx.now()))
}
