package fxchain

import (
	"context"
	"fmt"

	"github.com/cwbudde/algo-streamfx/dsp/audioctx"
	"github.com/cwbudde/algo-streamfx/dsp/decode"
	"github.com/cwbudde/algo-streamfx/dsp/worklet"
	"github.com/cwbudde/algo-streamfx/internal/fetch"
	"github.com/cwbudde/algo-streamfx/internal/logging"
)

// Fetcher retrieves the raw bytes behind a resource reference.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// BufferDecoder turns encoded audio into a buffer at the given sample rate.
type BufferDecoder interface {
	DecodeBuffer(data []byte, sampleRate float64) (*audioctx.Buffer, error)
}

// DecoderFunc adapts a function to BufferDecoder.
type DecoderFunc func(data []byte, sampleRate float64) (*audioctx.Buffer, error)

func (f DecoderFunc) DecodeBuffer(data []byte, sampleRate float64) (*audioctx.Buffer, error) {
	return f(data, sampleRate)
}

// ModuleRegistrar registers the processors of a script module with a
// context.
type ModuleRegistrar interface {
	AddModule(ctx context.Context, actx *audioctx.Context, location string) error
}

// Loader resolves the external resources of CONVOLVER and
// PROCESSING_SCRIPT configurations. Other configurations pass through.
type Loader struct {
	fetcher Fetcher
	decoder BufferDecoder
	modules ModuleRegistrar
}

// NewLoader returns a Loader. Nil collaborators are replaced by the file
// and HTTP fetcher, the container decoder and the script module loader.
func NewLoader(f Fetcher, d BufferDecoder, m ModuleRegistrar) *Loader {
	if f == nil {
		f = fetch.New()
	}

	if d == nil {
		d = DecoderFunc(decode.Decode)
	}

	if m == nil {
		m = worklet.NewLoader(f)
	}

	return &Loader{fetcher: f, decoder: d, modules: m}
}

// Load resolves the resources cfg refers to within actx. cfg must already
// be resolved by Resolve.
func (l *Loader) Load(ctx context.Context, actx *audioctx.Context, cfg Config) (Config, error) {
	switch c := cfg.(type) {
	case ConvolverConfig:
		ref := c.Buffer.Or("")

		data, err := l.fetcher.Fetch(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrResourceFetch, ref, err)
		}

		buf, err := l.decoder.DecodeBuffer(data, actx.SampleRate())
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrDecode, ref, err)
		}

		if buf == nil {
			return nil, fmt.Errorf("%w: %s: decoder returned no buffer", ErrDecode, ref)
		}

		logging.Debug(logging.CategoryLoader, "impulse response loaded ref=%s channels=%d frames=%d",
			ref, buf.NumberOfChannels(), buf.Length())

		c.impulse = buf

		return c, nil
	case ProcessingScriptConfig:
		location := c.ScriptLocation.Or("")

		if err := l.modules.AddModule(ctx, actx, location); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrModuleLoad, location, err)
		}

		logging.Debug(logging.CategoryLoader, "script module ready location=%s", location)

		return c, nil
	default:
		return cfg, nil
	}
}
