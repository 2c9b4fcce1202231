package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// ParseConfig parses YAML data into a Config.
// It returns an error if the YAML is malformed, contains unknown fields,
// or has type mismatches. Fields missing from data keep the values from
// DefaultConfig. Empty input gives the defaults.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := strictUnmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// strictUnmarshal unmarshals YAML data into v, rejecting unknown fields.
// Empty input leaves v unchanged.
func strictUnmarshal(data []byte, v any) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	err := decoder.Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("decode YAML: %w", err)
	}
	return nil
}

// MarshalConfig marshals a Config to YAML.
func MarshalConfig(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}
