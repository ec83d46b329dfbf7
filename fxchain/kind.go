package fxchain

import (
	"fmt"
	"strings"
)

// Kind identifies a stage type.
type Kind int

const (
	KindGain Kind = iota + 1
	KindBiquadFilter
	KindDynamicCompressor
	KindDelay
	KindConvolver
	KindWaveShaper
	KindProcessingScript

	// KindSource and KindSink mark the structural first and last stages of a
	// chain. They cannot be appended.
	KindSource
	KindSink
)

var kindNames = map[Kind]string{
	KindGain:              "GAIN",
	KindBiquadFilter:      "BIQUAD_FILTER",
	KindDynamicCompressor: "DYNAMIC_COMPRESSOR",
	KindDelay:             "DELAY",
	KindConvolver:         "CONVOLVER",
	KindWaveShaper:        "WAVE_SHAPER",
	KindProcessingScript:  "PROCESSING_SCRIPT",
	KindSource:            "SOURCE",
	KindSink:              "SINK",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return fmt.Sprintf("Kind(%d)", int(k))
}

// Structural reports whether k is SOURCE or SINK.
func (k Kind) Structural() bool {
	return k == KindSource || k == KindSink
}

// ParseKind maps a kind name such as "BIQUAD_FILTER" to its Kind. Matching
// ignores case and surrounding space. Structural kinds are rejected.
func ParseKind(name string) (Kind, error) {
	norm := strings.ToUpper(strings.TrimSpace(name))

	for k, n := range kindNames {
		if n == norm && !k.Structural() {
			return k, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}
