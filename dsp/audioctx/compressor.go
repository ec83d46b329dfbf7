package audioctx

import (
	"math"

	"github.com/cwbudde/algo-streamfx/dsp/effects/dynamics"
)

// DynamicsCompressorNode lowers the level of loud passages. The static curve
// has a quadratic soft knee centred on the threshold; a makeup gain derived
// from the curve restores the level of a full-scale signal partially.
type DynamicsCompressorNode struct {
	nodeBase

	threshold *Param
	knee      *Param
	ratio     *Param
	attack    *Param
	release   *Param

	comp      *dynamics.Compressor
	last      [5]float64
	reduction float64
}

// NewDynamicsCompressor creates a compressor with threshold -24 dB, knee
// 30 dB, ratio 12, attack 3 ms and release 250 ms.
func (c *Context) NewDynamicsCompressor() *DynamicsCompressorNode {
	// The sample rate was validated by NewContext.
	comp, _ := dynamics.NewCompressor(c.sampleRate)

	n := &DynamicsCompressorNode{
		threshold: newParam("threshold", -24, -100, 0),
		knee:      newParam("knee", 30, 0, 40),
		ratio:     newParam("ratio", 12, 1, 20),
		attack:    newParam("attack", 0.003, 0, 1),
		release:   newParam("release", 0.25, 0, 1),
		comp:      comp,
		last:      [5]float64{math.NaN()},
	}
	n.nodeBase = c.newBase(TypeCompressor, 1, 1, n)

	return n
}

func (n *DynamicsCompressorNode) Threshold() *Param { return n.threshold }
func (n *DynamicsCompressorNode) Knee() *Param      { return n.knee }
func (n *DynamicsCompressorNode) Ratio() *Param     { return n.ratio }
func (n *DynamicsCompressorNode) Attack() *Param    { return n.attack }
func (n *DynamicsCompressorNode) Release() *Param   { return n.release }

// Reduction returns the gain reduction in dB applied to the last rendered
// frame. It is zero or negative.
func (n *DynamicsCompressorNode) Reduction() float64 {
	n.ctx.mu.Lock()
	defer n.ctx.mu.Unlock()

	return n.reduction
}

// configure pushes parameter values into the compressor. Times are in
// seconds and are raised to the compressor's minimum; the makeup gain
// recovers 60% of the reduction at 0 dBFS.
func (n *DynamicsCompressorNode) configure(v [5]float64) {
	if v == n.last {
		return
	}

	n.last = v
	threshold, knee, ratio, attack, release := v[0], v[1], v[2], v[3], v[4]

	// Param ranges keep every value inside the compressor's limits.
	_ = n.comp.SetThreshold(threshold)
	_ = n.comp.SetKnee(knee)
	_ = n.comp.SetRatio(ratio)
	_ = n.comp.SetAttack(max(attack*1000, dynamics.MinAttackMs))
	_ = n.comp.SetRelease(max(release*1000, dynamics.MinReleaseMs))

	fullScaleDB := 20 * math.Log10(n.comp.StaticGain(1))
	_ = n.comp.SetMakeupGain(-0.6 * fullScaleDB)
}

func (n *DynamicsCompressorNode) process(in, out []float64) {
	t := n.ctx.now()

	n.configure([5]float64{
		n.threshold.advance(t),
		n.knee.advance(t),
		n.ratio.advance(t),
		n.attack.advance(t),
		n.release.advance(t),
	})

	n.comp.ProcessTo(out, in)
	n.reduction = n.comp.GainReductionDB()
}
