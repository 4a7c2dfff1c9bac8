package domain

import (
	"encoding/json"
	"fmt"
)

// ParseSpecification decodes a specification from its JSON mapping, as
// produced by the generator or human authoring.
func ParseSpecification(data []byte) (*StrategySpecification, error) {
	var spec StrategySpecification
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse strategy specification: %w", err)
	}
	return &spec, nil
}

// JSON encodes the specification as its canonical JSON mapping for
// persistence and cross-process transfer.
func (s *StrategySpecification) JSON() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode strategy specification: %w", err)
	}
	return data, nil
}
