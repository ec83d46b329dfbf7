package fxchain

import "github.com/cwbudde/algo-streamfx/media"

// Compose returns a stream holding the audio tracks of processed followed by
// the non-audio tracks of input. Tracks are shared, not copied.
func Compose(processed, input *media.Stream) *media.Stream {
	out := media.NewStream()

	if processed != nil {
		for _, t := range processed.AudioTracks() {
			out.AddTrack(t)
		}
	}

	if input != nil {
		for _, t := range input.NonAudioTracks() {
			out.AddTrack(t)
		}
	}

	return out
}
