package worklet

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-streamfx/dsp/audioctx"
	"github.com/cwbudde/algo-streamfx/internal/testutil"
)

const gainModule = `
class GainProcessor extends AudioWorkletProcessor {
	constructor(options) {
		super(options);
		this.gain = options.processorOptions.gain || 0.5;
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
registerProcessor("gain-processor", GainProcessor);
`

type mapFetcher struct {
	files map[string]string
	calls int
}

func (f *mapFetcher) Fetch(_ context.Context, ref string) ([]byte, error) {
	f.calls++

	src, ok := f.files[ref]
	if !ok {
		return nil, errors.New("not found")
	}

	return []byte(src), nil
}

func newContext(t *testing.T) *audioctx.Context {
	t.Helper()

	c, err := audioctx.New(audioctx.WithSampleRate(8000), audioctx.WithBlockSize(16))
	require.NoError(t, err)

	return c
}

func render(t *testing.T, c *audioctx.Context, n audioctx.Node, in []float64) []float64 {
	t.Helper()

	src, err := c.NewSource(testutil.MonoStream(c.SampleRate(), in))
	require.NoError(t, err)

	dest := c.NewDestination()
	require.NoError(t, c.Connect(src, n))
	require.NoError(t, c.Connect(n, dest))

	return testutil.ReadTrack(t, dest.Track())
}

func TestModuleProcessorRendersAudio(t *testing.T) {
	c := newContext(t)
	f := &mapFetcher{files: map[string]string{"gain.js": gainModule}}
	l := NewLoader(f)

	require.NoError(t, l.AddModule(context.Background(), c, "gain.js"))
	require.NoError(t, l.AddModule(context.Background(), c, "gain.js"))
	assert.Equal(t, 1, f.calls, "second AddModule must not refetch")
	assert.True(t, c.HasProcessor("gain-processor"))

	n, err := c.NewScriptNode("gain-processor", map[string]any{"gain": 2.0})
	require.NoError(t, err)

	in := testutil.Ramp(0.01, 40)
	out := render(t, c, n, in)

	want := make([]float64, len(in))
	for i, v := range in {
		want[i] = float64(float32(float32(v) * 2))
	}

	testutil.RequireSliceNearlyEqual(t, out, want, 1e-6)
	assert.NoError(t, n.Err())
}

func TestModuleSeesGlobals(t *testing.T) {
	c := newContext(t)

	src := `
class Clock extends AudioWorkletProcessor {
	process(inputs, outputs) {
		outputs[0][0][0] = sampleRate;
		outputs[0][0][1] = currentFrame;
		return currentFrame < 16;
	}
}
registerProcessor("clock", Clock);
`
	require.NoError(t, Evaluate(context.Background(), c, "clock.js", src))

	n, err := c.NewScriptNode("clock", nil)
	require.NoError(t, err)

	out := render(t, c, n, testutil.DC(0, 48))
	assert.Equal(t, 8000.0, out[0])
	assert.Equal(t, 0.0, out[1])
	assert.Equal(t, 8000.0, out[16])
	assert.Equal(t, 16.0, out[17])
	assert.Equal(t, 0.0, out[32], "processor stopped after returning false")
}

func TestEvaluateErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax error", "class {"},
		{"uncaught exception", "throw new Error('boom')"},
		{"name not a string", "registerProcessor(42, class extends AudioWorkletProcessor {})"},
		{"class not a constructor", "registerProcessor('x', 42)"},
		{"duplicate in module", `
class A extends AudioWorkletProcessor { process() { return true; } }
registerProcessor('a', A);
registerProcessor('a', A);
`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newContext(t)

			err := Evaluate(context.Background(), c, "bad.js", tc.src)
			require.ErrorIs(t, err, ErrEvaluate)
			assert.False(t, c.ModuleLoaded("bad.js"))
			assert.False(t, c.HasProcessor("a"))
		})
	}
}

func TestEvaluateRejectsNameTakenByAnotherModule(t *testing.T) {
	c := newContext(t)

	require.NoError(t, Evaluate(context.Background(), c, "one.js", gainModule))
	err := Evaluate(context.Background(), c, "two.js", gainModule)
	require.ErrorIs(t, err, ErrEvaluate)
	assert.False(t, c.ModuleLoaded("two.js"))
}

func TestEvaluateHonoursContext(t *testing.T) {
	c := newContext(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := Evaluate(ctx, c, "loop.js", "for (;;) {}")
	require.ErrorIs(t, err, ErrEvaluate)
}

func TestLoaderFetchFailure(t *testing.T) {
	c := newContext(t)
	l := NewLoader(&mapFetcher{})

	err := l.AddModule(context.Background(), c, "missing.js")
	require.ErrorIs(t, err, ErrFetch)
	assert.False(t, c.ModuleLoaded("missing.js"))
}

func TestProcessorInstantiationFailures(t *testing.T) {
	c := newContext(t)

	src := `
class Throws extends AudioWorkletProcessor {
	constructor() { super(); throw new Error("no"); }
}
class NoProcess extends AudioWorkletProcessor {}
class FailsLater extends AudioWorkletProcessor {
	process() { throw new Error("late"); }
}
registerProcessor("throws", Throws);
registerProcessor("no-process", NoProcess);
registerProcessor("fails-later", FailsLater);
`
	require.NoError(t, Evaluate(context.Background(), c, "m.js", src))

	_, err := c.NewScriptNode("throws", nil)
	require.Error(t, err)

	_, err = c.NewScriptNode("no-process", nil)
	require.ErrorIs(t, err, ErrInvalidProcessor)

	n, err := c.NewScriptNode("fails-later", nil)
	require.NoError(t, err)

	out := render(t, c, n, testutil.DC(1, 32))
	testutil.RequireSilent(t, out, 0)
	assert.Error(t, n.Err())
}
