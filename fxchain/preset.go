package fxchain

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/cwbudde/algo-streamfx/internal/logging"
	"github.com/cwbudde/algo-streamfx/media"
)

// Built-in preset names.
const (
	PresetGainBiquadDelay = "GAIN_BIQUAD_DELAY"
	PresetVoiceClarity    = "VOICE_CLARITY"
	PresetTelephone       = "TELEPHONE"
	PresetSlapback        = "SLAPBACK"
)

// Preset is a named, ordered list of stage configurations.
type Preset struct {
	Name   string
	Stages []Config
}

// Catalog holds presets by name.
type Catalog struct {
	mu      sync.RWMutex
	presets map[string]Preset
}

func NewCatalog() *Catalog {
	return &Catalog{presets: make(map[string]Preset)}
}

// Register adds p after resolving every stage configuration.
func (c *Catalog) Register(p Preset) error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("fxchain catalog: empty preset name")
	}

	if len(p.Stages) == 0 {
		return invalidf("preset %q has no stages", p.Name)
	}

	stages := make([]Config, len(p.Stages))

	for i, cfg := range p.Stages {
		resolved, err := Resolve(cfg)
		if err != nil {
			return fmt.Errorf("fxchain catalog: preset %q stage %d: %w", p.Name, i, err)
		}

		stages[i] = resolved
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.presets[p.Name]; exists {
		return fmt.Errorf("%w: %q", errDuplicatePreset, p.Name)
	}

	c.presets[p.Name] = Preset{Name: p.Name, Stages: stages}

	return nil
}

// MustRegister is like Register but panics on error.
func (c *Catalog) MustRegister(p Preset) {
	if err := c.Register(p); err != nil {
		panic(err)
	}
}

// Lookup returns the preset called name.
func (c *Catalog) Lookup(name string) (Preset, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.presets[name]
	if !ok {
		return Preset{}, false
	}

	p.Stages = slices.Clone(p.Stages)

	return p, true
}

// Names returns the registered preset names in sorted order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, 0, len(c.presets))
	for name := range c.presets {
		out = append(out, name)
	}

	sort.Strings(out)

	return out
}

// Apply appends the stages of the named preset to chain in order, waiting
// for each, and finalizes it. When a stage fails the stages appended before
// it stay connected and a *PresetError is returned.
func (c *Catalog) Apply(ctx context.Context, name string, chain *Chain) (*media.Stream, error) {
	p, ok := c.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}

	logging.Info(logging.CategoryPreset, "applying preset name=%s stages=%d", name, len(p.Stages))

	for i, cfg := range p.Stages {
		if _, err := chain.Append(ctx, cfg); err != nil {
			logging.Warning(logging.CategoryPreset, "preset stage failed name=%s index=%d err=%v", name, i, err)
			return nil, &PresetError{Preset: name, Index: i, Applied: i, Err: err}
		}
	}

	out, err := chain.Finalize()
	if err != nil {
		return nil, &PresetError{Preset: name, Index: len(p.Stages), Applied: len(p.Stages), Err: err}
	}

	return out, nil
}

var defaultCatalog = sync.OnceValue(func() *Catalog {
	c := NewCatalog()
	registerDefaults(c)

	return c
})

// DefaultCatalog returns a new catalog holding the built-in presets.
func DefaultCatalog() *Catalog {
	c := NewCatalog()
	registerDefaults(c)

	return c
}

// Apply applies a built-in preset.
func Apply(ctx context.Context, name string, chain *Chain) (*media.Stream, error) {
	return defaultCatalog().Apply(ctx, name, chain)
}

func registerDefaults(c *Catalog) {
	c.MustRegister(Preset{
		Name: PresetGainBiquadDelay,
		Stages: []Config{
			GainConfig{Gain: Some(1.5)},
			BiquadFilterConfig{Type: Some("highpass"), Frequency: Some(1000.0)},
			DelayConfig{DelayTime: Some(0.3), MaxDelayTime: Some(1.0)},
		},
	})

	c.MustRegister(Preset{
		Name: PresetVoiceClarity,
		Stages: []Config{
			BiquadFilterConfig{Type: Some("highpass"), Frequency: Some(90.0)},
			BiquadFilterConfig{Type: Some("peaking"), Frequency: Some(3000.0), Q: Some(1.0), Gain: Some(4.0)},
			DynamicCompressorConfig{
				Threshold: Some(-24.0),
				Knee:      Some(30.0),
				Ratio:     Some(4.0),
				Attack:    Some(0.003),
				Release:   Some(0.25),
			},
			GainConfig{Gain: Some(1.2)},
		},
	})

	c.MustRegister(Preset{
		Name: PresetTelephone,
		Stages: []Config{
			BiquadFilterConfig{Type: Some("highpass"), Frequency: Some(300.0)},
			BiquadFilterConfig{Type: Some("lowpass"), Frequency: Some(3400.0)},
			WaveShaperConfig{Curve: Some(SoftClipCurve(256, 2)), Oversample: Some("2x")},
			GainConfig{Gain: Some(0.8)},
		},
	})

	c.MustRegister(Preset{
		Name: PresetSlapback,
		Stages: []Config{
			DelayConfig{DelayTime: Some(0.12), MaxDelayTime: Some(0.5)},
			GainConfig{Gain: Some(0.9)},
		},
	})
}

// SoftClipCurve returns n points of tanh(drive*x)/tanh(drive) over [-1, 1].
func SoftClipCurve(n int, drive float64) []float64 {
	if n < 2 {
		n = 2
	}

	norm := math.Tanh(drive)
	out := make([]float64, n)

	for i := range out {
		x := 2*float64(i)/float64(n-1) - 1
		out[i] = math.Tanh(drive*x) / norm
	}

	return out
}
