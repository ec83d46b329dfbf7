package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-streamfx/dsp/decode"
	"github.com/cwbudde/algo-streamfx/fxchain"
)

func writeInput(t *testing.T, dir string, rate int, samples []int) string {
	t.Helper()

	path := filepath.Join(dir, "in.wav")

	f, err := os.Create(path)
	require.NoError(t, err)

	enc := wav.NewEncoder(f, rate, 16, 1, 1)
	require.NoError(t, enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: rate},
		Data:           samples,
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	return path
}

func constant(v, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = v
	}

	return out
}

func readOutput(t *testing.T, path string) []float64 {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	buf, err := decode.DecodeNative(data)
	require.NoError(t, err)
	assert.InDelta(t, 8000, buf.SampleRate(), 0)

	return buf.Channel(0)
}

func TestRunPreset(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, 8000, constant(8192, 800))
	out := filepath.Join(dir, "out.wav")

	err := run(context.Background(), []string{
		"-in", in, "-out", out, "-preset", fxchain.PresetSlapback, "-log-level", "error",
	}, &bytes.Buffer{})
	require.NoError(t, err)

	samples := readOutput(t, out)

	// 0.5 s of delay line tail follows the input.
	require.Len(t, samples, 800+4000)
	assert.InDelta(t, 0, samples[0], 1e-4)
	assert.InDelta(t, 0.25*0.9, samples[960+100], 1e-3)
}

func TestRunStagesFile(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, 8000, constant(8192, 400))
	out := filepath.Join(dir, "out.wav")
	stages := filepath.Join(dir, "chain.json")

	require.NoError(t, os.WriteFile(stages, []byte(`[{"kind": "GAIN", "params": {"gain": 2}}]`), 0o600))

	err := run(context.Background(), []string{
		"-in", in, "-out", out, "-stages", stages, "-log-level", "error",
	}, &bytes.Buffer{})
	require.NoError(t, err)

	samples := readOutput(t, out)
	require.Len(t, samples, 400)
	assert.InDelta(t, 0.5, samples[200], 1e-3)
}

func TestRunPassThrough(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, 8000, constant(-4096, 300))
	out := filepath.Join(dir, "out.wav")

	require.NoError(t, run(context.Background(), []string{"-in", in, "-out", out, "-log-level", "error"}, &bytes.Buffer{}))

	samples := readOutput(t, out)
	require.Len(t, samples, 300)
	assert.InDelta(t, -0.125, samples[150], 1e-3)
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, 8000, constant(0, 100))
	out := filepath.Join(dir, "out.wav")

	err := run(context.Background(), []string{"-in", in, "-out", out, "-preset", "NOPE", "-log-level", "error"}, &bytes.Buffer{})
	require.ErrorIs(t, err, fxchain.ErrUnknownPreset)

	err = run(context.Background(), []string{"-in", filepath.Join(dir, "missing.wav"), "-log-level", "error"}, &bytes.Buffer{})
	require.ErrorIs(t, err, os.ErrNotExist)

	err = run(context.Background(), []string{"-out", out}, &bytes.Buffer{})
	require.ErrorContains(t, err, "input file is required")
}

func TestListPresets(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-list-presets", "-log-level", "error"}, &buf))

	for _, name := range fxchain.DefaultCatalog().Names() {
		assert.Contains(t, buf.String(), name)
	}

	assert.Contains(t, buf.String(), "GAIN -> BIQUAD_FILTER -> DELAY")
}

func TestDescribe(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-describe", "delay", "-log-level", "error"}, &buf))

	assert.Contains(t, buf.String(), "DELAY")
	assert.Contains(t, buf.String(), "maxDelayTime")
	assert.Contains(t, buf.String(), "required")

	err := run(context.Background(), []string{"-describe", "REVERB", "-log-level", "error"}, &bytes.Buffer{})
	require.ErrorIs(t, err, fxchain.ErrUnknownKind)
}
