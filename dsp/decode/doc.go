// Package decode turns encoded audio files into audioctx buffers.
//
// Supported containers are WAV (PCM), AIFF, MP3 and Ogg Vorbis. The format
// is detected from the leading bytes. Decoded audio is resampled to the
// requested rate through the polyphase anti-aliasing resampler in
// dsp/resample so it can be used directly by a context running at that rate.
package decode
