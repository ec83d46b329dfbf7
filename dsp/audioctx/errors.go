package audioctx

import "errors"

var (
	ErrInvalidSampleRate    = errors.New("audioctx: sample rate must be positive and finite")
	ErrInvalidBlockSize     = errors.New("audioctx: block size must be a power of two in [16, 16384]")
	ErrForeignNode          = errors.New("audioctx: node belongs to another context")
	ErrCycle                = errors.New("audioctx: connection would create a cycle")
	ErrNotConnectable       = errors.New("audioctx: node cannot take part in this connection")
	ErrNoAudioTrack         = errors.New("audioctx: stream has no audio track")
	ErrSampleRateMismatch   = errors.New("audioctx: sample rate does not match context")
	ErrEmptyBuffer          = errors.New("audioctx: empty audio buffer")
	ErrInvalidParameter     = errors.New("audioctx: invalid parameter")
	ErrInvalidProcessorName = errors.New("audioctx: invalid processor name")
	ErrDuplicateProcessor   = errors.New("audioctx: processor already registered")
	ErrProcessorNotFound    = errors.New("audioctx: processor not registered")
)
