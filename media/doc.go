// Package media models signal streams as ordered collections of tracks.
//
// A Stream carries audio tracks, which produce interleaved PCM samples, and
// non-audio tracks (video, data) that are only ever passed along by identity.
// The two subsets are disjoint and each keeps the insertion order of the
// stream.
package media
