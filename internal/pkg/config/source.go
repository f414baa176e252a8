// Package config loads settings from environment variables and an optional
// YAML file, validating each value and falling back to its default when the
// configured value is unusable.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source resolves raw setting values. Environment variables take precedence
// over values read from the YAML file.
type Source struct {
	file   map[string]string
	lookup func(string) (string, bool)
}

// EnvSource reads only the process environment.
func EnvSource() *Source {
	return &Source{lookup: os.LookupEnv}
}

// NewSource reads the YAML file at path and layers the environment on top.
// An empty path yields an environment-only source.
//
// The file is a flat mapping whose keys are the environment variable names:
//
//	REFRESH_SCHEDULE: "*/10 * * * *"
//	REFRESH_CONCURRENCY: 8
func NewSource(path string) (*Source, error) {
	src := EnvSource()
	if path == "" {
		return src, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	values, err := parseFile(data)
	if err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	src.file = values
	return src, nil
}

func parseFile(data []byte) (map[string]string, error) {
	raw := make(map[string]interface{})
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	values := make(map[string]string, len(raw))
	for k, v := range raw {
		switch v.(type) {
		case map[string]interface{}, []interface{}:
			return nil, fmt.Errorf("key %s: nested values are not supported", k)
		case nil:
			continue
		}
		values[strings.ToUpper(k)] = fmt.Sprint(v)
	}
	return values, nil
}

// Get returns the raw value of key and whether it is set to a non-empty value.
func (s *Source) Get(key string) (string, bool) {
	if s.lookup != nil {
		if v, ok := s.lookup(key); ok && v != "" {
			return v, true
		}
	}
	v, ok := s.file[key]
	return v, ok && v != ""
}
