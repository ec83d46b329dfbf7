package fxchain

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-streamfx/dsp/audioctx"
	"github.com/cwbudde/algo-streamfx/internal/testutil"
)

const halfGainModule = `
class HalfGain extends AudioWorkletProcessor {
	constructor(options) {
		super(options);
		this.gain = options.processorOptions.gain;
	}
	process(inputs, outputs) {
		const input = inputs[0][0];
		const output = outputs[0][0];
		for (let i = 0; i < output.length; i++) {
			output[i] = input[i] * this.gain;
		}
		return true;
	}
}
registerProcessor("half-gain", HalfGain);
`

type mapFetcher struct {
	files map[string][]byte
	calls map[string]int
}

func newMapFetcher(files map[string][]byte) *mapFetcher {
	return &mapFetcher{files: files, calls: map[string]int{}}
}

func (f *mapFetcher) Fetch(_ context.Context, ref string) ([]byte, error) {
	f.calls[ref]++

	data, ok := f.files[ref]
	if !ok {
		return nil, os.ErrNotExist
	}

	return data, nil
}

func writeImpulseWAV(t *testing.T, sampleRate int, samples []int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "impulse.wav")

	f, err := os.Create(path)
	require.NoError(t, err)

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	require.NoError(t, enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	return path
}

func TestConvolverUnitImpulseReproducesInput(t *testing.T) {
	path := writeImpulseWAV(t, 8000, []int{32767, 0, 0, 0})
	input := testutil.Sine(300, 8000, 0.5, 500)

	c := newTestChain(t, 8000, input)

	stage, err := c.AppendSpec(context.Background(), "CONVOLVER", map[string]any{"buffer": path, "normalize": false})
	require.NoError(t, err)
	assert.Equal(t, 4, stage.node.(*audioctx.ConvolverNode).ImpulseLength())

	out, err := c.Finalize()
	require.NoError(t, err)

	rendered := testutil.ReadTrack(t, out.AudioTracks()[0])
	require.Len(t, rendered, len(input)+3)
	testutil.RequireSliceNearlyEqual(t, rendered[:len(input)], input, 1e-4)
	testutil.RequireSilent(t, rendered[len(input):], 1e-9)
}

func TestConvolverWithInjectedDecoder(t *testing.T) {
	fetcher := newMapFetcher(map[string][]byte{"ir://delay": []byte("raw")})
	decoder := DecoderFunc(func(data []byte, sampleRate float64) (*audioctx.Buffer, error) {
		if string(data) != "raw" {
			return nil, errors.New("unexpected data")
		}

		return audioctx.NewBuffer(sampleRate, [][]float64{{0, 1}})
	})

	input := testutil.Ramp(0.01, 50)
	c := newTestChain(t, 8000, input, WithFetcher(fetcher), WithDecoder(decoder))

	_, err := c.Append(context.Background(), ConvolverConfig{Buffer: Some("ir://delay"), Normalize: Some(false)})
	require.NoError(t, err)

	out, err := c.Finalize()
	require.NoError(t, err)

	rendered := testutil.ReadTrack(t, out.AudioTracks()[0])
	require.Len(t, rendered, len(input)+1)
	testutil.RequireSliceNearlyEqual(t, rendered[1:], input, 1e-9)
}

func TestConvolverLoadFailures(t *testing.T) {
	fetcher := newMapFetcher(map[string][]byte{"garbage.wav": []byte("definitely not audio")})

	tests := []struct {
		name string
		ref  string
		want error
	}{
		{"missing resource", "missing.wav", ErrResourceFetch},
		{"undecodable resource", "garbage.wav", ErrDecode},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestChain(t, 8000, testutil.DC(0.5, 16), WithFetcher(fetcher))

			_, err := c.Append(context.Background(), ConvolverConfig{Buffer: Some(tc.ref), Normalize: Some(true)})
			require.ErrorIs(t, err, tc.want)
			assert.Equal(t, 1, c.Len())
		})
	}
}

func TestConvolverDecoderReturningNoBuffer(t *testing.T) {
	fetcher := newMapFetcher(map[string][]byte{"ir://empty": []byte("raw")})
	decoder := DecoderFunc(func([]byte, float64) (*audioctx.Buffer, error) {
		return nil, nil
	})

	c := newTestChain(t, 8000, testutil.DC(0.5, 16), WithFetcher(fetcher), WithDecoder(decoder))

	_, err := c.Append(context.Background(), ConvolverConfig{Buffer: Some("ir://empty"), Normalize: Some(false)})
	require.ErrorIs(t, err, ErrDecode)
	assert.Equal(t, 1, c.Len())
}

func TestConvolverRequiresParameters(t *testing.T) {
	c := newTestChain(t, 8000, testutil.DC(0.5, 16))

	_, err := c.Append(context.Background(), ConvolverConfig{Normalize: Some(true)})
	require.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = c.Append(context.Background(), ConvolverConfig{Buffer: Some("ir.wav")})
	require.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestProcessingScriptStage(t *testing.T) {
	fetcher := newMapFetcher(map[string][]byte{"half.js": []byte(halfGainModule)})
	input := testutil.Sine(200, 8000, 0.5, 256)

	c := newTestChain(t, 8000, input, WithFetcher(fetcher))

	cfg := ProcessingScriptConfig{
		ScriptLocation: Some("half.js"),
		ProcessorName:  Some("half-gain"),
		Options:        map[string]any{"gain": 0.5},
	}

	_, err := c.Append(context.Background(), cfg)
	require.NoError(t, err)

	// The module is loaded once per context.
	_, err = c.Append(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.calls["half.js"])

	out, err := c.Finalize()
	require.NoError(t, err)

	want := make([]float64, len(input))
	for i, v := range input {
		want[i] = v / 4
	}

	testutil.RequireSliceNearlyEqual(t, testutil.ReadTrack(t, out.AudioTracks()[0]), want, 1e-6)
}

func TestProcessingScriptFailures(t *testing.T) {
	fetcher := newMapFetcher(map[string][]byte{
		"half.js":   []byte(halfGainModule),
		"broken.js": []byte("class Broken extends {"),
		"throws.js": []byte(`throw new Error("no");`),
	})

	tests := []struct {
		name      string
		location  string
		processor string
		want      error
		notWant   error
	}{
		{"syntax error", "broken.js", "x", ErrModuleLoad, ErrProcessorInstantiation},
		{"module throws", "throws.js", "x", ErrModuleLoad, ErrProcessorInstantiation},
		{"missing module", "nowhere.js", "x", ErrModuleLoad, ErrProcessorInstantiation},
		{"unknown processor", "half.js", "full-gain", ErrProcessorInstantiation, ErrModuleLoad},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestChain(t, 8000, testutil.DC(0.5, 16), WithFetcher(fetcher))

			_, err := c.AppendSpec(context.Background(), "PROCESSING_SCRIPT", map[string]any{
				"scriptLocation": tc.location,
				"processorName":  tc.processor,
			})
			require.ErrorIs(t, err, tc.want)
			assert.NotErrorIs(t, err, tc.notWant)
			assert.Equal(t, 1, c.Len())
			assert.Equal(t, KindSource, c.Tail().Kind())
		})
	}
}

type recordingRegistrar struct {
	locations []string
}

func (r *recordingRegistrar) AddModule(_ context.Context, actx *audioctx.Context, location string) error {
	r.locations = append(r.locations, location)

	return actx.RegisterProcessor("native", func(audioctx.ProcessorOptions) (audioctx.Processor, error) {
		return passThrough{}, nil
	})
}

type passThrough struct{}

func (passThrough) Process(in, out []float64) (bool, error) {
	copy(out, in)
	return true, nil
}

func TestLoaderUsesInjectedRegistrar(t *testing.T) {
	reg := &recordingRegistrar{}
	c := newTestChain(t, 8000, testutil.DC(0.5, 16), WithModuleRegistrar(reg))

	_, err := c.Append(context.Background(), ProcessingScriptConfig{
		ScriptLocation: Some("native://pass"),
		ProcessorName:  Some("native"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"native://pass"}, reg.locations)
}

func TestLoaderPassesThroughPlainKinds(t *testing.T) {
	actx, err := audioctx.New()
	require.NoError(t, err)

	l := NewLoader(nil, nil, nil)
	cfg := GainConfig{Gain: Some(0.5)}

	got, err := l.Load(context.Background(), actx, cfg)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestLoaderHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newTestChain(t, 8000, testutil.DC(0.5, 16))

	_, err := c.Append(ctx, ConvolverConfig{Buffer: Some("https://example.invalid/ir.wav"), Normalize: Some(true)})
	require.ErrorIs(t, err, ErrResourceFetch)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, c.Len())
}
