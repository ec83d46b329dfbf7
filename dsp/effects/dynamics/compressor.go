package dynamics

import (
	"fmt"
	"math"
)

const (
	defaultCompressorThresholdDB = -20.0
	defaultCompressorRatio       = 4.0
	defaultCompressorKneeDB      = 6.0
	defaultCompressorAttackMs    = 10.0
	defaultCompressorReleaseMs   = 100.0

	minCompressorRatio  = 1.0
	maxCompressorRatio  = 100.0
	minCompressorKneeDB = 0.0
	maxCompressorKneeDB = 40.0

	// MinAttackMs and MinReleaseMs bound the time constants from below.
	MinAttackMs  = 0.1
	MinReleaseMs = 1.0

	maxCompressorAttackMs  = 1000.0
	maxCompressorReleaseMs = 5000.0

	// log2(10) / 20 converts decibels to the log2 domain.
	log2Of10Div20 = 0.16609640474436813
)

// Compressor implements a soft-knee compressor with logarithmic-domain gain
// calculation. It is mono and not safe for concurrent use.
type Compressor struct {
	thresholdDB  float64
	ratio        float64
	kneeDB       float64
	attackMs     float64
	releaseMs    float64
	makeupGainDB float64
	autoMakeup   bool

	sampleRate float64

	peakLevel float64
	lastGain  float64

	attackCoeff      float64
	releaseCoeff     float64
	thresholdLog2    float64
	kneeWidthLog2    float64
	invKneeWidthLog2 float64
	makeupGainLin    float64
}

// NewCompressor creates a soft-knee compressor.
//
// Default parameters:
//   - Threshold: -20 dB
//   - Ratio: 4:1
//   - Knee: 6 dB
//   - Attack: 10 ms
//   - Release: 100 ms
//   - Auto makeup gain: enabled
func NewCompressor(sampleRate float64) (*Compressor, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("compressor sample rate must be positive and finite: %f", sampleRate)
	}

	c := &Compressor{
		thresholdDB: defaultCompressorThresholdDB,
		ratio:       defaultCompressorRatio,
		kneeDB:      defaultCompressorKneeDB,
		attackMs:    defaultCompressorAttackMs,
		releaseMs:   defaultCompressorReleaseMs,
		autoMakeup:  true,
		sampleRate:  sampleRate,
		lastGain:    1,
	}

	c.updateCoefficients()

	return c, nil
}

// SetThreshold sets compression threshold in dB.
func (c *Compressor) SetThreshold(dB float64) error {
	if math.IsNaN(dB) || math.IsInf(dB, 0) {
		return fmt.Errorf("compressor threshold must be finite: %f", dB)
	}

	c.thresholdDB = dB
	c.updateCoefficients()

	return nil
}

// SetRatio sets compression ratio in [1, 100]. 1 disables compression.
func (c *Compressor) SetRatio(ratio float64) error {
	if ratio < minCompressorRatio || ratio > maxCompressorRatio ||
		math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return fmt.Errorf("compressor ratio must be in [%f, %f]: %f",
			minCompressorRatio, maxCompressorRatio, ratio)
	}

	c.ratio = ratio
	c.updateCoefficients()

	return nil
}

// SetKnee sets soft-knee width in dB, in [0, 40]. 0 is a hard knee.
func (c *Compressor) SetKnee(kneeDB float64) error {
	if kneeDB < minCompressorKneeDB || kneeDB > maxCompressorKneeDB ||
		math.IsNaN(kneeDB) || math.IsInf(kneeDB, 0) {
		return fmt.Errorf("compressor knee must be in [%f, %f]: %f",
			minCompressorKneeDB, maxCompressorKneeDB, kneeDB)
	}

	c.kneeDB = kneeDB
	c.updateCoefficients()

	return nil
}

// SetAttack sets attack time in milliseconds.
func (c *Compressor) SetAttack(ms float64) error {
	if ms < MinAttackMs || ms > maxCompressorAttackMs ||
		math.IsNaN(ms) || math.IsInf(ms, 0) {
		return fmt.Errorf("compressor attack must be in [%f, %f]: %f",
			MinAttackMs, maxCompressorAttackMs, ms)
	}

	c.attackMs = ms
	c.updateTimeConstants()

	return nil
}

// SetRelease sets release time in milliseconds.
func (c *Compressor) SetRelease(ms float64) error {
	if ms < MinReleaseMs || ms > maxCompressorReleaseMs ||
		math.IsNaN(ms) || math.IsInf(ms, 0) {
		return fmt.Errorf("compressor release must be in [%f, %f]: %f",
			MinReleaseMs, maxCompressorReleaseMs, ms)
	}

	c.releaseMs = ms
	c.updateTimeConstants()

	return nil
}

// SetMakeupGain sets manual makeup gain in dB and disables auto makeup.
func (c *Compressor) SetMakeupGain(dB float64) error {
	if math.IsNaN(dB) || math.IsInf(dB, 0) {
		return fmt.Errorf("compressor makeup gain must be finite: %f", dB)
	}

	c.makeupGainDB = dB
	c.autoMakeup = false
	c.updateCoefficients()

	return nil
}

// SetAutoMakeup enables or disables automatic makeup gain, which
// compensates for the gain reduction at 0 dBFS.
func (c *Compressor) SetAutoMakeup(enable bool) {
	c.autoMakeup = enable
	c.updateCoefficients()
}

func (c *Compressor) Threshold() float64  { return c.thresholdDB }
func (c *Compressor) Ratio() float64      { return c.ratio }
func (c *Compressor) Knee() float64       { return c.kneeDB }
func (c *Compressor) Attack() float64     { return c.attackMs }
func (c *Compressor) Release() float64    { return c.releaseMs }
func (c *Compressor) MakeupGain() float64 { return c.makeupGainDB }
func (c *Compressor) AutoMakeup() bool    { return c.autoMakeup }

// ProcessSample processes one sample through the compressor.
func (c *Compressor) ProcessSample(input float64) float64 {
	inputLevel := math.Abs(input)

	if inputLevel > c.peakLevel {
		c.peakLevel += (inputLevel - c.peakLevel) * c.attackCoeff
	} else {
		c.peakLevel = inputLevel + (c.peakLevel-inputLevel)*c.releaseCoeff
	}

	c.lastGain = c.calculateGain(c.peakLevel)

	return input * c.lastGain * c.makeupGainLin
}

// ProcessInPlace applies compression to buf in place.
func (c *Compressor) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = c.ProcessSample(buf[i])
	}
}

// ProcessTo compresses src into dst. Both slices must have the same length.
func (c *Compressor) ProcessTo(dst, src []float64) {
	for i, x := range src {
		dst[i] = c.ProcessSample(x)
	}
}

// StaticGain returns the linear gain the curve applies to a steady input
// of the given magnitude, without makeup.
func (c *Compressor) StaticGain(inputMagnitude float64) float64 {
	return c.calculateGain(math.Abs(inputMagnitude))
}

// CalculateOutputLevel computes the steady-state output level for a given
// input magnitude.
func (c *Compressor) CalculateOutputLevel(inputMagnitude float64) float64 {
	inputMagnitude = math.Abs(inputMagnitude)
	return inputMagnitude * c.calculateGain(inputMagnitude) * c.makeupGainLin
}

// GainReductionDB returns the reduction applied to the last processed
// sample in dB. It is zero or negative.
func (c *Compressor) GainReductionDB() float64 {
	return 20 * math.Log10(c.lastGain)
}

// Reset clears the envelope follower.
func (c *Compressor) Reset() {
	c.peakLevel = 0
	c.lastGain = 1
}

func (c *Compressor) updateCoefficients() {
	c.thresholdLog2 = c.thresholdDB * log2Of10Div20
	c.kneeWidthLog2 = c.kneeDB * log2Of10Div20

	if c.kneeDB > 0 {
		c.invKneeWidthLog2 = 1.0 / c.kneeWidthLog2
	} else {
		c.invKneeWidthLog2 = 0
	}

	if c.autoMakeup {
		c.makeupGainDB = -c.thresholdDB * (1.0 - 1.0/c.ratio)
	}

	c.makeupGainLin = mathPower10(c.makeupGainDB / 20.0)

	c.updateTimeConstants()
}

func (c *Compressor) updateTimeConstants() {
	// Half-life of attackMs and releaseMs.
	c.attackCoeff = 1.0 - math.Exp(-math.Ln2/(c.attackMs*0.001*c.sampleRate))
	c.releaseCoeff = math.Exp(-math.Ln2 / (c.releaseMs * 0.001 * c.sampleRate))
}

// calculateGain applies a quadratic soft knee of width k around the
// threshold in the log2 domain.
func (c *Compressor) calculateGain(peakLevel float64) float64 {
	if peakLevel <= 0 {
		return 1.0
	}

	overshoot := mathLog2(peakLevel) - c.thresholdLog2

	if c.kneeDB <= 0 {
		if overshoot <= 0 {
			return 1.0
		}

		return mathPower2(-overshoot * (1.0 - 1.0/c.ratio))
	}

	halfWidth := c.kneeWidthLog2 * 0.5

	var effectiveOvershoot float64

	switch {
	case overshoot < -halfWidth:
		return 1.0
	case overshoot > halfWidth:
		effectiveOvershoot = overshoot
	default:
		scratch := overshoot + halfWidth
		effectiveOvershoot = scratch * scratch * 0.5 * c.invKneeWidthLog2
	}

	return mathPower2(-effectiveOvershoot * (1.0 - 1.0/c.ratio))
}
