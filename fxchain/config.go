package fxchain

import (
	"maps"
	"slices"

	"github.com/cwbudde/algo-streamfx/dsp/audioctx"
)

// Config is the configuration of one appendable stage kind. The set of
// implementations is closed: GainConfig, BiquadFilterConfig,
// DynamicCompressorConfig, DelayConfig, ConvolverConfig, WaveShaperConfig
// and ProcessingScriptConfig.
type Config interface {
	Kind() Kind

	// Params returns the set parameters keyed by their descriptor names.
	Params() map[string]any

	sealed()
}

type GainConfig struct {
	Gain Opt[float64]
}

type BiquadFilterConfig struct {
	Type      Opt[string]
	Frequency Opt[float64]
	Q         Opt[float64]
	// Gain in dB, used by the shelving and peaking types.
	Gain Opt[float64]
}

type DynamicCompressorConfig struct {
	Threshold Opt[float64]
	Knee      Opt[float64]
	Ratio     Opt[float64]
	Attack    Opt[float64]
	Release   Opt[float64]
}

type DelayConfig struct {
	DelayTime    Opt[float64]
	MaxDelayTime Opt[float64]
}

// ConvolverConfig references an impulse response. The loader fetches and
// decodes it before the stage is built.
type ConvolverConfig struct {
	Buffer    Opt[string]
	Normalize Opt[bool]

	impulse *audioctx.Buffer
}

type WaveShaperConfig struct {
	Curve      Opt[[]float64]
	Oversample Opt[string]
}

// ProcessingScriptConfig names a processor registered by the script module
// at ScriptLocation. Options are handed to the processor constructor as
// processorOptions.
type ProcessingScriptConfig struct {
	ScriptLocation Opt[string]
	ProcessorName  Opt[string]
	Options        map[string]any
}

func (GainConfig) Kind() Kind              { return KindGain }
func (BiquadFilterConfig) Kind() Kind      { return KindBiquadFilter }
func (DynamicCompressorConfig) Kind() Kind { return KindDynamicCompressor }
func (DelayConfig) Kind() Kind             { return KindDelay }
func (ConvolverConfig) Kind() Kind         { return KindConvolver }
func (WaveShaperConfig) Kind() Kind        { return KindWaveShaper }
func (ProcessingScriptConfig) Kind() Kind  { return KindProcessingScript }

func (GainConfig) sealed()              {}
func (BiquadFilterConfig) sealed()      {}
func (DynamicCompressorConfig) sealed() {}
func (DelayConfig) sealed()             {}
func (ConvolverConfig) sealed()         {}
func (WaveShaperConfig) sealed()        {}
func (ProcessingScriptConfig) sealed()  {}

func (c GainConfig) Params() map[string]any {
	p := map[string]any{}
	put(p, "gain", c.Gain)

	return p
}

func (c BiquadFilterConfig) Params() map[string]any {
	p := map[string]any{}
	put(p, "type", c.Type)
	put(p, "frequency", c.Frequency)
	put(p, "Q", c.Q)
	put(p, "gain", c.Gain)

	return p
}

func (c DynamicCompressorConfig) Params() map[string]any {
	p := map[string]any{}
	put(p, "threshold", c.Threshold)
	put(p, "knee", c.Knee)
	put(p, "ratio", c.Ratio)
	put(p, "attack", c.Attack)
	put(p, "release", c.Release)

	return p
}

func (c DelayConfig) Params() map[string]any {
	p := map[string]any{}
	put(p, "delayTime", c.DelayTime)
	put(p, "maxDelayTime", c.MaxDelayTime)

	return p
}

func (c ConvolverConfig) Params() map[string]any {
	p := map[string]any{}
	put(p, "buffer", c.Buffer)
	put(p, "normalize", c.Normalize)

	return p
}

func (c WaveShaperConfig) Params() map[string]any {
	p := map[string]any{}
	if v, ok := c.Curve.Get(); ok {
		p["curve"] = slices.Clone(v)
	}

	put(p, "oversample", c.Oversample)

	return p
}

func (c ProcessingScriptConfig) Params() map[string]any {
	p := map[string]any{}
	put(p, "scriptLocation", c.ScriptLocation)
	put(p, "processorName", c.ProcessorName)

	if c.Options != nil {
		p["processorOptions"] = maps.Clone(c.Options)
	}

	return p
}

func put[T any](p map[string]any, name string, o Opt[T]) {
	if v, ok := o.Get(); ok {
		p[name] = v
	}
}
