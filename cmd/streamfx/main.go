// Command streamfx runs an audio file through a chain of effect stages and
// writes the processed audio as WAV.
//
// Usage:
//
//	streamfx -in voice.wav -out processed.wav -preset VOICE_CLARITY
//	streamfx -in voice.wav -stages chain.json
//	streamfx -list-presets
//	streamfx -describe BIQUAD_FILTER
//
// A stages file holds a JSON array of {"kind": ..., "params": {...}}
// objects. Resource references in it (impulse responses, script modules)
// resolve relative to the file's directory. Every flag can also be set
// through a STREAMFX_* environment variable or a .env file.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/cwbudde/algo-streamfx/dsp/audioctx"
	"github.com/cwbudde/algo-streamfx/dsp/decode"
	"github.com/cwbudde/algo-streamfx/fxchain"
	"github.com/cwbudde/algo-streamfx/internal/config"
	"github.com/cwbudde/algo-streamfx/internal/fetch"
	"github.com/cwbudde/algo-streamfx/internal/logging"
	"github.com/cwbudde/algo-streamfx/media"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "streamfx:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	cfg, err := config.Load(args)
	if err != nil {
		return err
	}

	if err := logging.Init(os.Stderr, cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}

	switch {
	case cfg.ListPresets:
		return listPresets(stdout)
	case cfg.Describe != "":
		return describe(stdout, cfg.Describe)
	default:
		return process(ctx, cfg)
	}
}

func listPresets(w io.Writer) error {
	cat := fxchain.DefaultCatalog()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "PRESET\tSTAGES")

	for _, name := range cat.Names() {
		p, _ := cat.Lookup(name)

		kinds := make([]string, len(p.Stages))
		for i, s := range p.Stages {
			kinds[i] = s.Kind().String()
		}

		fmt.Fprintf(tw, "%s\t%s\n", name, strings.Join(kinds, " -> "))
	}

	return tw.Flush()
}

func describe(w io.Writer, kind string) error {
	d, err := fxchain.DescribeName(kind)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "%s\n\n", d.Kind)
	fmt.Fprintln(tw, "PARAMETER\tTYPE\tDEFAULT\tCHOICES")

	for _, p := range d.Parameters {
		def := "-"

		switch {
		case p.Required:
			def = "required"
		case p.Default != nil:
			def = fmt.Sprint(p.Default)
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Name, p.Type, def, strings.Join(p.Choices, ", "))
	}

	return tw.Flush()
}

func process(ctx context.Context, cfg *config.Config) error {
	data, err := os.ReadFile(cfg.Input)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	var buf *audioctx.Buffer
	if cfg.SampleRate > 0 {
		buf, err = decode.Decode(data, cfg.SampleRate)
	} else {
		buf, err = decode.DecodeNative(data)
	}

	if err != nil {
		return fmt.Errorf("decode %s: %w", cfg.Input, err)
	}

	logging.Info(logging.CategoryCLI, "input decoded file=%s channels=%d frames=%d rate=%v",
		cfg.Input, buf.NumberOfChannels(), buf.Length(), buf.SampleRate())

	actx, err := audioctx.New(audioctx.WithSampleRate(buf.SampleRate()), audioctx.WithBlockSize(cfg.BlockSize))
	if err != nil {
		return err
	}

	baseDir := filepath.Dir(cfg.Input)
	if cfg.StagesFile != "" {
		baseDir = filepath.Dir(cfg.StagesFile)
	}

	fetcher := fetch.New(
		fetch.WithTimeout(cfg.FetchTimeout),
		fetch.WithMaxBytes(cfg.MaxResourceBytes),
		fetch.WithBaseDir(baseDir),
	)

	chain, err := fxchain.New(actx, inputStream(filepath.Base(cfg.Input), buf), fxchain.WithFetcher(fetcher))
	if err != nil {
		return err
	}

	out, err := buildOutput(ctx, cfg, chain)
	if err != nil {
		return err
	}

	tracks := out.AudioTracks()
	if len(tracks) == 0 {
		return errors.New("output stream has no audio track")
	}

	samples, err := media.ReadAll(tracks[0])
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	if err := writeWAV(cfg.Output, int(buf.SampleRate()), cfg.BitDepth, samples); err != nil {
		return err
	}

	logging.Info(logging.CategoryCLI, "output written file=%s frames=%d stages=%d",
		cfg.Output, len(samples), chain.Len())

	return nil
}

func buildOutput(ctx context.Context, cfg *config.Config, chain *fxchain.Chain) (*media.Stream, error) {
	switch {
	case cfg.Preset != "":
		return fxchain.Apply(ctx, cfg.Preset, chain)
	case cfg.StagesFile != "":
		data, err := os.ReadFile(cfg.StagesFile)
		if err != nil {
			return nil, fmt.Errorf("read stages: %w", err)
		}

		specs, err := fxchain.DecodeStageList(data)
		if err != nil {
			return nil, err
		}

		p, err := fxchain.PresetFromSpecs(filepath.Base(cfg.StagesFile), specs)
		if err != nil {
			return nil, err
		}

		cat := fxchain.NewCatalog()
		if err := cat.Register(p); err != nil {
			return nil, err
		}

		return cat.Apply(ctx, p.Name, chain)
	default:
		logging.Warning(logging.CategoryCLI, "no preset or stages given, passing audio through")
		return chain.Finalize()
	}
}

// inputStream interleaves buf into a single audio track.
func inputStream(label string, buf *audioctx.Buffer) *media.Stream {
	chans := buf.NumberOfChannels()
	frames := buf.Length()
	interleaved := make([]float64, frames*chans)

	for ch := range chans {
		for i, v := range buf.Channel(ch) {
			interleaved[i*chans+ch] = v
		}
	}

	return media.NewStream(media.NewSampleTrack(label, buf.SampleRate(), chans, interleaved))
}

func writeWAV(path string, sampleRate, bitDepth int, samples []float64) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
	}()

	full := float64(int64(1)<<(bitDepth-1)) - 1
	ints := make([]int, len(samples))

	for i, v := range samples {
		ints[i] = int(min(max(v, -1), 1) * full)
	}

	enc := wav.NewEncoder(f, sampleRate, bitDepth, 1, 1)

	if err := enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           ints,
		SourceBitDepth: bitDepth,
	}); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("finish output: %w", err)
	}

	return nil
}
