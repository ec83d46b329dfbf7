package fxchain

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrUnknownKind            = errors.New("fxchain: unknown stage kind")
	ErrUnknownPreset          = errors.New("fxchain: unknown preset")
	ErrResourceFetch          = errors.New("fxchain: resource fetch failed")
	ErrDecode                 = errors.New("fxchain: audio decode failed")
	ErrModuleLoad             = errors.New("fxchain: module load failed")
	ErrProcessorInstantiation = errors.New("fxchain: processor instantiation failed")
	ErrInvalidConfiguration   = errors.New("fxchain: invalid configuration")
	ErrAlreadyFinalized       = errors.New("fxchain: chain already finalized")
	ErrNoAudioTrack           = errors.New("fxchain: input stream has no audio track")

	errDuplicatePreset = errors.New("fxchain: duplicate preset")
)

// StageError reports a failed chain operation on one stage. Position is the
// index the stage would have taken in the chain. Name carries the requested
// kind name when it did not parse to a Kind.
type StageError struct {
	Op       string
	Kind     Kind
	Name     string
	Position int
	Err      error
}

func (e *StageError) Error() string {
	kind := e.Kind.String()
	if e.Kind == 0 {
		kind = strconv.Quote(e.Name)
	}

	return fmt.Sprintf("fxchain: %s %s at position %d: %v", e.Op, kind, e.Position, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// PresetError reports a preset that failed part way. The first Applied
// stages of the preset remain connected in the chain.
type PresetError struct {
	Preset  string
	Index   int
	Applied int
	Err     error
}

func (e *PresetError) Error() string {
	return fmt.Sprintf("fxchain: preset %q: stage %d failed after %d applied: %v",
		e.Preset, e.Index, e.Applied, e.Err)
}

func (e *PresetError) Unwrap() error { return e.Err }

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfiguration}, args...)...)
}
