// Package resample provides rational sample-rate conversion using polyphase FIR
// filtering with anti-aliasing defaults.
//
// Quality modes:
//
//	mode            taps/phase   nominal stopband
//	QualityFast     16           ~55 dB
//	QualityBalanced 32           ~75 dB
//	QualityBest     64           ~90 dB
//
// Common workflows:
//   - NewRational(up, down, opts...) for streaming conversion
//   - NewForRates(inRate, outRate, opts...)
//   - Convert(input, inRate, outRate, opts...) for a whole signal, with the
//     filter delay removed
package resample
