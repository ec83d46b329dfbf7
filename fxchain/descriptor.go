package fxchain

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"
	"sort"
	"strings"

	"github.com/cwbudde/algo-streamfx/dsp/audioctx"
)

// ParamType is the value type of a stage parameter.
type ParamType string

const (
	ParamNumber   ParamType = "number"
	ParamString   ParamType = "string"
	ParamBool     ParamType = "bool"
	ParamCurve    ParamType = "curve"
	ParamResource ParamType = "resource"
	ParamObject   ParamType = "object"
)

// Parameter describes one configuration parameter of a stage kind. Default
// is nil for parameters without a default.
type Parameter struct {
	Name     string
	Type     ParamType
	Required bool
	Default  any
	Choices  []string
}

// Descriptor is the configuration schema of a stage kind.
type Descriptor struct {
	Kind       Kind
	Parameters []Parameter
	// Loads reports whether the kind needs the resource loader before it
	// can be built.
	Loads bool
}

// Parameter returns the parameter called name.
func (d Descriptor) Parameter(name string) (Parameter, bool) {
	for _, p := range d.Parameters {
		if p.Name == name {
			return p, true
		}
	}

	return Parameter{}, false
}

// Defaults returns the default value of every defaulted parameter.
func (d Descriptor) Defaults() map[string]any {
	out := map[string]any{}

	for _, p := range d.Parameters {
		if p.Default != nil {
			out[p.Name] = p.Default
		}
	}

	return out
}

// Stage parameter defaults.
const (
	DefaultGain                = 1.0
	DefaultFilterType          = "lowpass"
	DefaultFilterFrequency     = 350.0
	DefaultFilterQ             = 1.0
	DefaultFilterGain          = 0.0
	DefaultCompressorThreshold = -50.0
	DefaultCompressorKnee      = 40.0
	DefaultCompressorRatio     = 12.0
	DefaultCompressorAttack    = 0.0
	DefaultCompressorRelease   = 0.25
)

var descriptors = map[Kind]Descriptor{
	KindGain: {
		Kind: KindGain,
		Parameters: []Parameter{
			{Name: "gain", Type: ParamNumber, Default: DefaultGain},
		},
	},
	KindBiquadFilter: {
		Kind: KindBiquadFilter,
		Parameters: []Parameter{
			{Name: "type", Type: ParamString, Default: DefaultFilterType, Choices: filterTypeChoices()},
			{Name: "frequency", Type: ParamNumber, Default: DefaultFilterFrequency},
			{Name: "Q", Type: ParamNumber, Default: DefaultFilterQ},
			{Name: "gain", Type: ParamNumber, Default: DefaultFilterGain},
		},
	},
	KindDynamicCompressor: {
		Kind: KindDynamicCompressor,
		Parameters: []Parameter{
			{Name: "threshold", Type: ParamNumber, Default: DefaultCompressorThreshold},
			{Name: "knee", Type: ParamNumber, Default: DefaultCompressorKnee},
			{Name: "ratio", Type: ParamNumber, Default: DefaultCompressorRatio},
			{Name: "attack", Type: ParamNumber, Default: DefaultCompressorAttack},
			{Name: "release", Type: ParamNumber, Default: DefaultCompressorRelease},
		},
	},
	KindDelay: {
		Kind: KindDelay,
		Parameters: []Parameter{
			{Name: "delayTime", Type: ParamNumber, Required: true},
			{Name: "maxDelayTime", Type: ParamNumber, Required: true},
		},
	},
	KindConvolver: {
		Kind:  KindConvolver,
		Loads: true,
		Parameters: []Parameter{
			{Name: "buffer", Type: ParamResource, Required: true},
			{Name: "normalize", Type: ParamBool, Required: true},
		},
	},
	KindWaveShaper: {
		Kind: KindWaveShaper,
		Parameters: []Parameter{
			{Name: "curve", Type: ParamCurve, Required: true},
			{Name: "oversample", Type: ParamString, Required: true, Choices: []string{"none", "2x", "4x"}},
		},
	},
	KindProcessingScript: {
		Kind:  KindProcessingScript,
		Loads: true,
		Parameters: []Parameter{
			{Name: "scriptLocation", Type: ParamResource, Required: true},
			{Name: "processorName", Type: ParamString, Required: true},
			{Name: "processorOptions", Type: ParamObject},
		},
	},
}

func filterTypeChoices() []string {
	out := make([]string, 0, 8)
	for t := audioctx.Lowpass; t <= audioctx.Allpass; t++ {
		out = append(out, t.String())
	}

	return out
}

// Kinds returns the appendable stage kinds in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(descriptors))
	for k := range descriptors {
		out = append(out, k)
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

// Describe returns the schema of kind.
func Describe(kind Kind) (Descriptor, error) {
	d, ok := descriptors[kind]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	d.Parameters = slices.Clone(d.Parameters)

	return d, nil
}

// DescribeName is Describe for a kind name.
func DescribeName(name string) (Descriptor, error) {
	kind, err := ParseKind(name)
	if err != nil {
		return Descriptor{}, err
	}

	return Describe(kind)
}

// ParseConfig builds a typed configuration from generic parameters as found
// in presets and JSON stage lists. A nil value counts as absent. Unknown
// parameter names are rejected.
func ParseConfig(kind Kind, params map[string]any) (Config, error) {
	d, err := Describe(kind)
	if err != nil {
		return nil, err
	}

	for name := range params {
		if _, ok := d.Parameter(name); !ok {
			return nil, invalidf("%s: unknown parameter %q", kind, name)
		}
	}

	p := paramReader{kind: kind, params: params}

	var cfg Config

	switch kind {
	case KindGain:
		cfg = GainConfig{Gain: p.number("gain")}
	case KindBiquadFilter:
		cfg = BiquadFilterConfig{
			Type:      p.str("type"),
			Frequency: p.number("frequency"),
			Q:         p.number("Q"),
			Gain:      p.number("gain"),
		}
	case KindDynamicCompressor:
		cfg = DynamicCompressorConfig{
			Threshold: p.number("threshold"),
			Knee:      p.number("knee"),
			Ratio:     p.number("ratio"),
			Attack:    p.number("attack"),
			Release:   p.number("release"),
		}
	case KindDelay:
		cfg = DelayConfig{DelayTime: p.number("delayTime"), MaxDelayTime: p.number("maxDelayTime")}
	case KindConvolver:
		cfg = ConvolverConfig{Buffer: p.str("buffer"), Normalize: p.boolean("normalize")}
	case KindWaveShaper:
		cfg = WaveShaperConfig{Curve: p.curve("curve"), Oversample: p.str("oversample")}
	case KindProcessingScript:
		cfg = ProcessingScriptConfig{
			ScriptLocation: p.str("scriptLocation"),
			ProcessorName:  p.str("processorName"),
			Options:        p.object("processorOptions"),
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	if p.err != nil {
		return nil, p.err
	}

	return cfg, nil
}

// ParseSpec is ParseConfig for a kind name.
func ParseSpec(kind string, params map[string]any) (Config, error) {
	k, err := ParseKind(kind)
	if err != nil {
		return nil, err
	}

	return ParseConfig(k, params)
}

// paramReader converts generic values and keeps the first conversion error.
type paramReader struct {
	kind   Kind
	params map[string]any
	err    error
}

func (p *paramReader) fail(name string, v any, want string) {
	if p.err == nil {
		p.err = invalidf("%s: %s: want %s, got %T", p.kind, name, want, v)
	}
}

func (p *paramReader) number(name string) Opt[float64] {
	v, ok := p.params[name]
	if !ok || v == nil {
		return None[float64]()
	}

	f, ok := toFloat(v)
	if !ok {
		p.fail(name, v, "number")
		return None[float64]()
	}

	return Some(f)
}

func (p *paramReader) str(name string) Opt[string] {
	v, ok := p.params[name]
	if !ok || v == nil {
		return None[string]()
	}

	s, ok := v.(string)
	if !ok {
		p.fail(name, v, "string")
		return None[string]()
	}

	return Some(s)
}

func (p *paramReader) boolean(name string) Opt[bool] {
	v, ok := p.params[name]
	if !ok || v == nil {
		return None[bool]()
	}

	b, ok := v.(bool)
	if !ok {
		p.fail(name, v, "bool")
		return None[bool]()
	}

	return Some(b)
}

func (p *paramReader) curve(name string) Opt[[]float64] {
	v, ok := p.params[name]
	if !ok || v == nil {
		return None[[]float64]()
	}

	switch c := v.(type) {
	case []float64:
		return Some(slices.Clone(c))
	case []any:
		out := make([]float64, len(c))

		for i, e := range c {
			f, ok := toFloat(e)
			if !ok {
				p.fail(fmt.Sprintf("%s[%d]", name, i), e, "number")
				return None[[]float64]()
			}

			out[i] = f
		}

		return Some(out)
	default:
		p.fail(name, v, "list of numbers")
		return None[[]float64]()
	}
}

func (p *paramReader) object(name string) map[string]any {
	v, ok := p.params[name]
	if !ok || v == nil {
		return nil
	}

	m, ok := v.(map[string]any)
	if !ok {
		p.fail(name, v, "object")
		return nil
	}

	return maps.Clone(m)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// Resolve applies the defaults of cfg's kind to every absent parameter and
// validates the result. Explicitly set values, zero included, are kept.
func Resolve(cfg Config) (Config, error) {
	switch c := cfg.(type) {
	case GainConfig:
		c.Gain = c.Gain.Default(DefaultGain)
		if err := finite(KindGain, "gain", c.Gain); err != nil {
			return nil, err
		}

		return c, nil
	case BiquadFilterConfig:
		return resolveBiquad(c)
	case DynamicCompressorConfig:
		return resolveCompressor(c)
	case DelayConfig:
		return resolveDelay(c)
	case ConvolverConfig:
		if strings.TrimSpace(c.Buffer.Or("")) == "" {
			return nil, invalidf("%s: buffer is required", KindConvolver)
		}

		if !c.Normalize.IsSet() {
			return nil, invalidf("%s: normalize is required", KindConvolver)
		}

		return c, nil
	case WaveShaperConfig:
		return resolveWaveShaper(c)
	case ProcessingScriptConfig:
		if strings.TrimSpace(c.ScriptLocation.Or("")) == "" {
			return nil, invalidf("%s: scriptLocation is required", KindProcessingScript)
		}

		if strings.TrimSpace(c.ProcessorName.Or("")) == "" {
			return nil, invalidf("%s: processorName is required", KindProcessingScript)
		}

		c.Options = maps.Clone(c.Options)

		return c, nil
	case nil:
		return nil, invalidf("nil configuration")
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownKind, cfg)
	}
}

func resolveBiquad(c BiquadFilterConfig) (Config, error) {
	c.Type = c.Type.Default(DefaultFilterType)
	c.Frequency = c.Frequency.Default(DefaultFilterFrequency)
	c.Q = c.Q.Default(DefaultFilterQ)
	c.Gain = c.Gain.Default(DefaultFilterGain)

	if _, err := audioctx.ParseFilterType(c.Type.Or("")); err != nil {
		return nil, invalidf("%s: type %q: one of %s", KindBiquadFilter,
			c.Type.Or(""), strings.Join(filterTypeChoices(), ", "))
	}

	if err := finite(KindBiquadFilter, "frequency", c.Frequency); err != nil {
		return nil, err
	}

	if err := finite(KindBiquadFilter, "Q", c.Q); err != nil {
		return nil, err
	}

	if err := finite(KindBiquadFilter, "gain", c.Gain); err != nil {
		return nil, err
	}

	if c.Frequency.Or(0) < 0 {
		return nil, invalidf("%s: frequency must be >= 0, got %v", KindBiquadFilter, c.Frequency.Or(0))
	}

	return c, nil
}

func resolveCompressor(c DynamicCompressorConfig) (Config, error) {
	c.Threshold = c.Threshold.Default(DefaultCompressorThreshold)
	c.Knee = c.Knee.Default(DefaultCompressorKnee)
	c.Ratio = c.Ratio.Default(DefaultCompressorRatio)
	c.Attack = c.Attack.Default(DefaultCompressorAttack)
	c.Release = c.Release.Default(DefaultCompressorRelease)

	checks := []struct {
		name   string
		v      Opt[float64]
		lo, hi float64
	}{
		{"threshold", c.Threshold, -100, 0},
		{"knee", c.Knee, 0, 40},
		{"ratio", c.Ratio, 1, 20},
		{"attack", c.Attack, 0, 1},
		{"release", c.Release, 0, 1},
	}

	for _, chk := range checks {
		if err := inRange(KindDynamicCompressor, chk.name, chk.v, chk.lo, chk.hi); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func resolveDelay(c DelayConfig) (Config, error) {
	delay, ok := c.DelayTime.Get()
	if !ok {
		return nil, invalidf("%s: delayTime is required", KindDelay)
	}

	maxDelay, ok := c.MaxDelayTime.Get()
	if !ok {
		return nil, invalidf("%s: maxDelayTime is required", KindDelay)
	}

	if err := finite(KindDelay, "delayTime", c.DelayTime); err != nil {
		return nil, err
	}

	if err := finite(KindDelay, "maxDelayTime", c.MaxDelayTime); err != nil {
		return nil, err
	}

	switch {
	case delay < 0:
		return nil, invalidf("%s: delayTime must be >= 0, got %v", KindDelay, delay)
	case maxDelay <= 0 || maxDelay >= audioctx.MaxDelayTime:
		return nil, invalidf("%s: maxDelayTime must be in (0, %v), got %v", KindDelay, audioctx.MaxDelayTime, maxDelay)
	case maxDelay < delay:
		return nil, invalidf("%s: maxDelayTime %v is less than delayTime %v", KindDelay, maxDelay, delay)
	}

	return c, nil
}

func resolveWaveShaper(c WaveShaperConfig) (Config, error) {
	curve, ok := c.Curve.Get()
	if !ok || len(curve) == 0 {
		return nil, invalidf("%s: curve is required", KindWaveShaper)
	}

	for i, v := range curve {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, invalidf("%s: curve[%d] is not finite", KindWaveShaper, i)
		}
	}

	mode, ok := c.Oversample.Get()
	if !ok {
		return nil, invalidf("%s: oversample is required", KindWaveShaper)
	}

	if _, err := audioctx.ParseOversample(mode); err != nil {
		return nil, invalidf("%s: oversample %q: one of none, 2x, 4x", KindWaveShaper, mode)
	}

	c.Curve = Some(slices.Clone(curve))

	return c, nil
}

func finite(kind Kind, name string, o Opt[float64]) error {
	v := o.Or(0)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return invalidf("%s: %s must be finite, got %v", kind, name, v)
	}

	return nil
}

func inRange(kind Kind, name string, o Opt[float64], lo, hi float64) error {
	if err := finite(kind, name, o); err != nil {
		return err
	}

	if v := o.Or(0); v < lo || v > hi {
		return invalidf("%s: %s must be in [%v, %v], got %v", kind, name, lo, hi, v)
	}

	return nil
}
