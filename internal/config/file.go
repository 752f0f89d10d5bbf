package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// parseFile decodes a YAML settings file. Unknown keys are rejected; an
// empty file yields empty settings.
func parseFile(path string) (*Settings, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error reading settings file: %w", err)
	}
	defer f.Close()

	s := &Settings{}
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("error decoding settings file %s: %w", path, err)
	}
	return s, nil
}
