package fxchain

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/cwbudde/algo-streamfx/dsp/audioctx"
)

// Stage is one processing unit of a Chain. Its node is created once and only
// the chain wires it.
type Stage struct {
	id       string
	kind     Kind
	position int
	config   Config
	node     audioctx.Node
}

func newStage(kind Kind, position int, cfg Config, node audioctx.Node) *Stage {
	return &Stage{
		id:       uuid.NewString(),
		kind:     kind,
		position: position,
		config:   cfg,
		node:     node,
	}
}

func (s *Stage) ID() string    { return s.id }
func (s *Stage) Kind() Kind    { return s.kind }
func (s *Stage) Position() int { return s.position }

// Config returns the resolved configuration the stage was built from. It is
// nil for the source and sink stages.
func (s *Stage) Config() Config { return s.config }

func (s *Stage) String() string {
	if s.config == nil {
		return fmt.Sprintf("%d:%s", s.position, s.kind)
	}

	return fmt.Sprintf("%d:%s%v", s.position, s.kind, s.config.Params())
}
