package config

import (
	"errors"
	"fmt"

	"dario.cat/mergo"

	"github.com/dmora/agentenv"
)

// builder collects settings layers in increasing precedence.
type builder struct {
	layers []*Settings
	file   *Settings // merged between defaults and env once the path is known
	err    error
}

func newBuilder() *builder {
	return &builder{
		layers: make([]*Settings, 0, 4),
	}
}

func (b *builder) build() (*Settings, error) {
	if b.err != nil {
		return nil, fmt.Errorf("error occurred during building settings: %w", b.err)
	}

	layers := b.layers
	if b.file != nil && len(layers) > 0 {
		layers = append([]*Settings{layers[0], b.file}, layers[1:]...)
	}

	settings := new(Settings)
	for _, layer := range layers {
		if err := mergo.Merge(settings, layer, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("error merging settings: %w", err)
		}
	}

	if err := settings.validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

func (b *builder) withDefaults() *builder {
	b.layers = append(b.layers, Defaults())
	return b
}

func (b *builder) withEnv(ambient agentenv.Snapshot) *builder {
	envSettings, err := parseEnv(ambient)
	if err != nil {
		b.err = errors.Join(b.err, err)
		return b
	}
	b.layers = append(b.layers, envSettings)
	return b
}

func (b *builder) withFlags(flags *Settings) *builder {
	if flags != nil {
		b.layers = append(b.layers, flags)
	}
	return b
}

// withFile reads the settings file named by the highest-precedence layer
// that names one. The file ranks just above the defaults.
func (b *builder) withFile() *builder {
	var path string
	for _, layer := range b.layers {
		if layer.File != "" {
			path = layer.File
		}
	}
	if path == "" {
		return b
	}

	fileSettings, err := parseFile(path)
	if err != nil {
		b.err = errors.Join(b.err, err)
		return b
	}
	fileSettings.File = path
	b.file = fileSettings
	return b
}
