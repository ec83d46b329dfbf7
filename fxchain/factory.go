package fxchain

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-streamfx/dsp/audioctx"
)

// create builds the node for a resolved and loaded configuration. The node
// is not connected.
func create(actx *audioctx.Context, cfg Config) (audioctx.Node, error) {
	switch c := cfg.(type) {
	case GainConfig:
		n := actx.NewGain()
		if err := n.Gain().SetValue(c.Gain.Or(DefaultGain)); err != nil {
			return nil, invalidf("%s: %v", KindGain, err)
		}

		return n, nil
	case BiquadFilterConfig:
		return createBiquad(actx, c)
	case DynamicCompressorConfig:
		return createCompressor(actx, c)
	case DelayConfig:
		n, err := actx.NewDelay(c.MaxDelayTime.Or(0))
		if err != nil {
			return nil, invalidf("%s: %v", KindDelay, err)
		}

		if err := n.DelayTime().SetValue(c.DelayTime.Or(0)); err != nil {
			return nil, invalidf("%s: %v", KindDelay, err)
		}

		return n, nil
	case ConvolverConfig:
		if c.impulse == nil {
			return nil, fmt.Errorf("%w: %s: impulse response not loaded", ErrResourceFetch, c.Buffer.Or(""))
		}

		n, err := actx.NewConvolver(c.impulse, c.Normalize.Or(true))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrDecode, c.Buffer.Or(""), err)
		}

		return n, nil
	case WaveShaperConfig:
		mode, err := audioctx.ParseOversample(c.Oversample.Or(""))
		if err != nil {
			return nil, invalidf("%s: %v", KindWaveShaper, err)
		}

		n, err := actx.NewWaveShaper(c.Curve.Or(nil), mode)
		if err != nil {
			return nil, invalidf("%s: %v", KindWaveShaper, err)
		}

		return n, nil
	case ProcessingScriptConfig:
		name := c.ProcessorName.Or("")

		n, err := actx.NewScriptNode(name, c.Options)
		if err != nil {
			if errors.Is(err, audioctx.ErrProcessorNotFound) {
				return nil, fmt.Errorf("%w: %q not registered by %s", ErrProcessorInstantiation,
					name, c.ScriptLocation.Or(""))
			}

			return nil, fmt.Errorf("%w: %w", ErrProcessorInstantiation, err)
		}

		return n, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownKind, cfg)
	}
}

func createBiquad(actx *audioctx.Context, c BiquadFilterConfig) (audioctx.Node, error) {
	typ, err := audioctx.ParseFilterType(c.Type.Or(DefaultFilterType))
	if err != nil {
		return nil, invalidf("%s: %v", KindBiquadFilter, err)
	}

	n := actx.NewBiquadFilter()
	if err := n.SetType(typ); err != nil {
		return nil, invalidf("%s: %v", KindBiquadFilter, err)
	}

	params := []struct {
		p *audioctx.Param
		v float64
	}{
		{n.Frequency(), c.Frequency.Or(DefaultFilterFrequency)},
		{n.Q(), c.Q.Or(DefaultFilterQ)},
		{n.Gain(), c.Gain.Or(DefaultFilterGain)},
	}

	for _, pv := range params {
		if err := pv.p.SetValue(pv.v); err != nil {
			return nil, invalidf("%s: %v", KindBiquadFilter, err)
		}
	}

	return n, nil
}

// createCompressor sets every parameter and also schedules it at the
// context's current time, so Value reports it at once and a running graph
// picks it up on the next quantum.
func createCompressor(actx *audioctx.Context, c DynamicCompressorConfig) (audioctx.Node, error) {
	n := actx.NewDynamicsCompressor()
	now := actx.CurrentTime()

	params := []struct {
		p *audioctx.Param
		v float64
	}{
		{n.Threshold(), c.Threshold.Or(DefaultCompressorThreshold)},
		{n.Knee(), c.Knee.Or(DefaultCompressorKnee)},
		{n.Ratio(), c.Ratio.Or(DefaultCompressorRatio)},
		{n.Attack(), c.Attack.Or(DefaultCompressorAttack)},
		{n.Release(), c.Release.Or(DefaultCompressorRelease)},
	}

	for _, pv := range params {
		if err := pv.p.SetValue(pv.v); err != nil {
			return nil, invalidf("%s: %v", KindDynamicCompressor, err)
		}

		if err := pv.p.SetValueAtTime(pv.v, now); err != nil {
			return nil, invalidf("%s: %v", KindDynamicCompressor, err)
		}
	}

	return n, nil
}
