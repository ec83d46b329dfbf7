package audioctx

import (
	"errors"
	"fmt"
	"io"

	"github.com/cwbudde/algo-streamfx/media"
)

// SourceNode feeds the audio tracks of a stream into the graph. All tracks
// and channels are mixed into the mono bus: channels are averaged, tracks are
// summed.
type SourceNode struct {
	nodeBase

	tracks  []media.AudioTrack
	scratch [][]float64
	done    []bool

	ended    bool
	endFrame int64
	err      error
}

// NewSource wraps the audio tracks of stream. Every audio track must run at
// the context's sample rate.
func (c *Context) NewSource(stream *media.Stream) (*SourceNode, error) {
	if stream == nil {
		return nil, ErrNoAudioTrack
	}

	tracks := stream.AudioTracks()
	if len(tracks) == 0 {
		return nil, ErrNoAudioTrack
	}

	scratch := make([][]float64, len(tracks))

	for i, tr := range tracks {
		if tr.SampleRate() != c.sampleRate {
			return nil, fmt.Errorf("%w: track %q runs at %v Hz, context at %v Hz",
				ErrSampleRateMismatch, tr.ID(), tr.SampleRate(), c.sampleRate)
		}

		scratch[i] = make([]float64, c.blockSize*max(tr.Channels(), 1))
	}

	s := &SourceNode{
		tracks:  tracks,
		scratch: scratch,
		done:    make([]bool, len(tracks)),
	}
	s.nodeBase = c.newBase(TypeSource, 0, 1, s)

	return s, nil
}

// Ended reports whether every track has been exhausted.
func (s *SourceNode) Ended() bool {
	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()

	return s.ended
}

// Err returns the first non-EOF read error of any track.
func (s *SourceNode) Err() error {
	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()

	return s.err
}

func (s *SourceNode) process(_, out []float64) {
	clear(out)

	if s.ended {
		return
	}

	longest := 0
	allDone := true

	for i, tr := range s.tracks {
		if s.done[i] {
			continue
		}

		channels := max(tr.Channels(), 1)
		buf := s.scratch[i][:len(out)*channels]

		n, err := readFull(tr, buf)
		frames := n / channels
		scale := 1 / float64(channels)

		for f := range frames {
			sum := 0.0
			for ch := range channels {
				sum += buf[f*channels+ch]
			}

			out[f] += sum * scale
		}

		longest = max(longest, frames)

		if err != nil {
			s.done[i] = true
			if !errors.Is(err, io.EOF) && s.err == nil {
				s.err = fmt.Errorf("audioctx: read track %q: %w", tr.ID(), err)
			}

			continue
		}

		allDone = false
	}

	if allDone {
		s.ended = true
		s.endFrame = s.ctx.frame + int64(longest)
	}
}

func readFull(tr media.AudioTrack, buf []float64) (int, error) {
	n := 0
	for n < len(buf) {
		k, err := tr.ReadSamples(buf[n:])
		n += k

		if err != nil {
			return n, err
		}

		if k == 0 {
			return n, io.ErrNoProgress
		}
	}

	return n, nil
}
