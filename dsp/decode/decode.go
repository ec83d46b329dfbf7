package decode

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"

	"github.com/cwbudde/algo-streamfx/dsp/audioctx"
	"github.com/cwbudde/algo-streamfx/dsp/resample"
)

// Format identifies an audio container.
type Format int

const (
	FormatUnknown Format = iota
	FormatWAV
	FormatAIFF
	FormatMP3
	FormatVorbis
)

func (f Format) String() string {
	switch f {
	case FormatWAV:
		return "wav"
	case FormatAIFF:
		return "aiff"
	case FormatMP3:
		return "mp3"
	case FormatVorbis:
		return "vorbis"
	default:
		return "unknown"
	}
}

// Detect inspects the leading bytes of data.
func Detect(data []byte) Format {
	switch {
	case len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WAVE":
		return FormatWAV
	case len(data) >= 12 && string(data[:4]) == "FORM" &&
		(string(data[8:12]) == "AIFF" || string(data[8:12]) == "AIFC"):
		return FormatAIFF
	case len(data) >= 4 && string(data[:4]) == "OggS":
		return FormatVorbis
	case len(data) >= 3 && string(data[:3]) == "ID3":
		return FormatMP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return FormatMP3
	default:
		return FormatUnknown
	}
}

// Decoder decodes encoded audio to buffers at a fixed sample rate.
type Decoder struct {
	SampleRate float64
}

// Decode decodes data at d.SampleRate.
func (d Decoder) Decode(data []byte) (*audioctx.Buffer, error) {
	return Decode(data, d.SampleRate)
}

// Decode decodes data and resamples every channel to targetRate.
func Decode(data []byte, targetRate float64) (*audioctx.Buffer, error) {
	if !(targetRate > 0) || math.IsInf(targetRate, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRate, targetRate)
	}

	format, rate, channels, err := decodeAny(data)
	if err != nil {
		return nil, err
	}

	if rate != targetRate {
		for i, ch := range channels {
			out, err := resample.Convert(ch, rate, targetRate)
			if err != nil {
				return nil, fmt.Errorf("%w: resample %v -> %v: %w", ErrMalformed, rate, targetRate, err)
			}

			channels[i] = out
		}
	}

	return newBuffer(format, targetRate, channels)
}

// DecodeNative decodes data at the sample rate it was encoded with.
func DecodeNative(data []byte) (*audioctx.Buffer, error) {
	format, rate, channels, err := decodeAny(data)
	if err != nil {
		return nil, err
	}

	return newBuffer(format, rate, channels)
}

func decodeAny(data []byte) (Format, float64, [][]float64, error) {
	format := Detect(data)

	var (
		rate     float64
		channels [][]float64
		err      error
	)

	switch format {
	case FormatWAV:
		rate, channels, err = decodeWAV(data)
	case FormatAIFF:
		rate, channels, err = decodeAIFF(data)
	case FormatMP3:
		rate, channels, err = decodeMP3(data)
	case FormatVorbis:
		rate, channels, err = decodeVorbis(data)
	default:
		return format, 0, nil, ErrUnknownFormat
	}

	if err != nil {
		return format, 0, nil, err
	}

	if len(channels) == 0 || len(channels[0]) == 0 {
		return format, 0, nil, fmt.Errorf("%w: %s: no samples", ErrMalformed, format)
	}

	if !(rate > 0) {
		return format, 0, nil, fmt.Errorf("%w: %s: sample rate %v", ErrMalformed, format, rate)
	}

	return format, rate, channels, nil
}

func newBuffer(format Format, rate float64, channels [][]float64) (*audioctx.Buffer, error) {
	buf, err := audioctx.NewBuffer(rate, channels)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformed, format, err)
	}

	return buf, nil
}

func decodeWAV(data []byte) (float64, [][]float64, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return 0, nil, fmt.Errorf("%w: wav: invalid header", ErrMalformed)
	}

	// 1 is integer PCM, 0xFFFE the extensible header around it.
	switch dec.WavAudioFormat {
	case 1, 0xFFFE:
	case 0:
		return 0, nil, fmt.Errorf("%w: wav: missing fmt chunk", ErrMalformed)
	default:
		return 0, nil, fmt.Errorf("%w: wav format tag %#x", ErrUnsupportedEncoding, dec.WavAudioFormat)
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return 0, nil, fmt.Errorf("%w: wav: %w", ErrMalformed, err)
	}

	chans := int(dec.NumChans)
	depth := int(dec.BitDepth)

	// 8-bit WAV samples are unsigned.
	offset := 0
	if depth == 8 {
		offset = 128
	}

	channels, err := deinterleaveInts(pcm, chans, depth, offset)
	if err != nil {
		return 0, nil, err
	}

	return float64(dec.SampleRate), channels, nil
}

func decodeAIFF(data []byte) (float64, [][]float64, error) {
	dec := aiff.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return 0, nil, fmt.Errorf("%w: aiff: invalid header", ErrMalformed)
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return 0, nil, fmt.Errorf("%w: aiff: %w", ErrMalformed, err)
	}

	channels, err := deinterleaveInts(pcm, int(dec.NumChans), int(dec.BitDepth), 0)
	if err != nil {
		return 0, nil, err
	}

	return float64(dec.SampleRate), channels, nil
}

func deinterleaveInts(pcm *goaudio.IntBuffer, chans, depth, offset int) ([][]float64, error) {
	if pcm == nil || chans < 1 {
		return nil, fmt.Errorf("%w: no channels", ErrMalformed)
	}

	if depth < 8 || depth > 32 {
		return nil, fmt.Errorf("%w: %d-bit samples", ErrUnsupportedEncoding, depth)
	}

	scale := 1 / float64(int64(1)<<(depth-1))
	frames := len(pcm.Data) / chans
	out := make([][]float64, chans)

	for ch := range out {
		out[ch] = make([]float64, frames)
		for f := range frames {
			out[ch][f] = float64(pcm.Data[f*chans+ch]-offset) * scale
		}
	}

	return out, nil
}

func decodeMP3(data []byte) (float64, [][]float64, error) {
	dec, err := gomp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return 0, nil, fmt.Errorf("%w: mp3: %w", ErrMalformed, err)
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: mp3: %w", ErrMalformed, err)
	}

	// go-mp3 always yields 16-bit little-endian stereo.
	frames := len(raw) / 4
	left := make([]float64, frames)
	right := make([]float64, frames)

	for f := range frames {
		b := raw[f*4:]
		left[f] = float64(int16(uint16(b[0])|uint16(b[1])<<8)) / 32768
		right[f] = float64(int16(uint16(b[2])|uint16(b[3])<<8)) / 32768
	}

	return float64(dec.SampleRate()), [][]float64{left, right}, nil
}

func decodeVorbis(data []byte) (float64, [][]float64, error) {
	samples, format, err := oggvorbis.ReadAll(bytes.NewReader(data))
	if err != nil {
		return 0, nil, fmt.Errorf("%w: vorbis: %w", ErrMalformed, err)
	}

	if format == nil || format.Channels < 1 {
		return 0, nil, fmt.Errorf("%w: vorbis: no channels", ErrMalformed)
	}

	chans := format.Channels
	frames := len(samples) / chans
	out := make([][]float64, chans)

	for ch := range out {
		out[ch] = make([]float64, frames)
		for f := range frames {
			out[ch][f] = float64(samples[f*chans+ch])
		}
	}

	return float64(format.SampleRate), out, nil
}
