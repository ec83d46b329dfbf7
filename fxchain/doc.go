// Package fxchain builds linear chains of audio processing stages on top of
// an audioctx.Context.
//
// A Chain starts at a source stage wrapping the audio of an input stream.
// Stages are appended one at a time; each new stage is connected from the
// current tail and becomes the new tail. Connections are never removed and
// stages are never reordered. Finalize connects the tail to a sink and
// returns an output stream that carries the processed audio together with
// the input's untouched non-audio tracks.
//
// Stage configurations are typed (GainConfig, BiquadFilterConfig, ...) with
// every parameter an explicit Opt, so a default replaces only an absent
// value. CONVOLVER and PROCESSING_SCRIPT stages load external resources
// before construction through a Loader.
//
// Presets are named stage lists kept in a Catalog; applying one appends its
// stages in order and finalizes the chain.
package fxchain
