package fxchain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// StageSpec is the serializable form of a stage: a kind name plus generic
// parameters.
type StageSpec struct {
	Kind   string         `json:"kind"`
	Params map[string]any `json:"params,omitempty"`
}

// Config parses s into a typed configuration.
func (s StageSpec) Config() (Config, error) {
	return ParseSpec(s.Kind, s.Params)
}

// SpecOf returns the serializable form of cfg.
func SpecOf(cfg Config) StageSpec {
	return StageSpec{Kind: cfg.Kind().String(), Params: cfg.Params()}
}

// DecodeStageList reads a JSON array of stage specs.
func DecodeStageList(data []byte) ([]StageSpec, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var specs []StageSpec
	if err := dec.Decode(&specs); err != nil {
		return nil, fmt.Errorf("%w: stage list: %w", ErrInvalidConfiguration, err)
	}

	return specs, nil
}

// PresetFromSpecs parses specs into a preset called name.
func PresetFromSpecs(name string, specs []StageSpec) (Preset, error) {
	p := Preset{Name: name, Stages: make([]Config, 0, len(specs))}

	for i, s := range specs {
		cfg, err := s.Config()
		if err != nil {
			return Preset{}, fmt.Errorf("fxchain: stage %d: %w", i, err)
		}

		p.Stages = append(p.Stages, cfg)
	}

	return p, nil
}
