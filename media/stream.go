package media

import (
	"github.com/google/uuid"
)

// TrackKind tags a track as audio or one of the non-audio kinds.
type TrackKind int

const (
	KindAudio TrackKind = iota
	KindVideo
	KindData
)

func (k TrackKind) String() string {
	switch k {
	case KindAudio:
		return "audio"
	case KindVideo:
		return "video"
	case KindData:
		return "data"
	default:
		return "unknown"
	}
}

// Track is one element of a Stream. Tracks are identified by ID; the same
// Track value may appear in more than one Stream.
type Track interface {
	ID() string
	Kind() TrackKind
	Label() string
}

// AudioTrack is a Track that produces PCM samples.
type AudioTrack interface {
	Track

	// SampleRate of the track in Hz.
	SampleRate() float64
	// Channels is the number of interleaved channels returned by ReadSamples.
	Channels() int
	// ReadSamples fills dst with interleaved samples in [-1, 1] and returns the
	// number of values written. It returns 0, io.EOF once the track is exhausted.
	ReadSamples(dst []float64) (int, error)
}

// Stream is an ordered collection of tracks.
type Stream struct {
	id     string
	tracks []Track
}

// NewStream returns a stream holding tracks in the given order.
func NewStream(tracks ...Track) *Stream {
	s := &Stream{id: uuid.NewString()}
	for _, t := range tracks {
		s.AddTrack(t)
	}

	return s
}

// ID returns the stream identifier.
func (s *Stream) ID() string { return s.id }

// AddTrack appends t. Nil tracks and tracks whose ID is already present are
// ignored.
func (s *Stream) AddTrack(t Track) {
	if t == nil {
		return
	}

	id := t.ID()
	for _, existing := range s.tracks {
		if existing.ID() == id {
			return
		}
	}

	s.tracks = append(s.tracks, t)
}

// Tracks returns all tracks in insertion order.
func (s *Stream) Tracks() []Track {
	out := make([]Track, len(s.tracks))
	copy(out, s.tracks)

	return out
}

// AudioTracks returns the audio tracks in their original relative order.
func (s *Stream) AudioTracks() []AudioTrack {
	var out []AudioTrack

	for _, t := range s.tracks {
		if t.Kind() != KindAudio {
			continue
		}

		if at, ok := t.(AudioTrack); ok {
			out = append(out, at)
		}
	}

	return out
}

// NonAudioTracks returns every track that is not audio, in original relative order.
func (s *Stream) NonAudioTracks() []Track {
	var out []Track

	for _, t := range s.tracks {
		if t.Kind() != KindAudio {
			out = append(out, t)
		}
	}

	return out
}
