package config

import (
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrInvalidSpec is wrapped by every validation error.
var ErrInvalidSpec = errors.New("invalid spec")

// ParseRunSpecYAML parses a RunSpec from YAML bytes, applies defaults and
// validates it. This is used for APIs where the spec is provided as payload
// (not via filesystem).
func ParseRunSpecYAML(data []byte) (*RunSpec, error) {
	var spec RunSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse run spec yaml: %w", err)
	}
	if err := spec.Prepare(); err != nil {
		return nil, err
	}
	return &spec, nil
}

// ParseRunSpecYAMLString parses a RunSpec from a YAML string.
func ParseRunSpecYAMLString(yamlText string) (*RunSpec, error) {
	return ParseRunSpecYAML([]byte(yamlText))
}

// ParseRunSpecJSON parses a RunSpec from a JSON document, applies defaults
// and validates it.
func ParseRunSpecJSON(data []byte) (*RunSpec, error) {
	var spec RunSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse run spec json: %w", err)
	}
	if err := spec.Prepare(); err != nil {
		return nil, err
	}
	return &spec, nil
}

// Prepare applies defaults and validates the spec. Specs decoded from other
// encodings (JSON request bodies) must be prepared before use.
func (s *RunSpec) Prepare() error {
	applyRunSpecDefaults(s)
	if err := validateRunSpec(s); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSpec, err)
	}
	return nil
}

// ParseDaemonConfigYAML parses a DaemonConfig from YAML bytes, applies
// defaults and validates it.
func ParseDaemonConfigYAML(data []byte) (*DaemonConfig, error) {
	cfg := DefaultDaemonConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse daemon config yaml: %w", err)
	}
	if err := validateDaemonConfig(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSpec, err)
	}
	return cfg, nil
}

// MarshalRunSpecYAML renders spec as YAML.
func MarshalRunSpecYAML(spec *RunSpec) ([]byte, error) {
	return yaml.Marshal(spec)
}
