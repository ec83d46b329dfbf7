// Package audioctx is a small block-based audio processing context.
//
// A Context owns a graph of nodes. Nodes are created through the context
// (gain, biquad filter, dynamics compressor, delay, convolver, wave shaper,
// script processors, stream sources and stream destinations) and wired with
// Connect. Rendering is pull-based: reading the audio track of a
// DestinationNode renders one quantum of BlockSize frames at a time through
// every upstream node. Each node is rendered at most once per quantum.
//
// Processing is mono: a SourceNode mixes all audio tracks and channels of
// its input stream into one signal bus.
//
// Included nodes:
//   - GainNode: k-rate gain with parameter automation.
//   - BiquadFilterNode: second-order IIR filters with the browser filter
//     type set (lowpass, highpass, bandpass, lowshelf, highshelf, peaking,
//     notch, allpass).
//   - DynamicsCompressorNode: soft-knee compressor with automatic makeup gain.
//   - DelayNode: fractional delay line bounded by a maximum delay time.
//   - ConvolverNode: uniformly partitioned FFT convolution.
//   - WaveShaperNode: curve-based waveshaper with optional oversampling.
//   - ScriptNode: user processors registered by name.
package audioctx
