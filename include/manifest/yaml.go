package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

type yamlManifest struct {
	Package  string        `yaml:"package"`
	Output   string        `yaml:"output"`
	Bindings []yamlBinding `yaml:"bindings"`
}

type yamlBinding struct {
	Kind   Kind     `yaml:"kind"`
	Name   string   `yaml:"name"`
	Paths  []string `yaml:"paths"`
	Type   string   `yaml:"type"`
	Length int      `yaml:"length"`
	Doc    string   `yaml:"doc"`
}

// ParseYAML parses a manifest written in YAML. Unknown fields are rejected. The manifest isn't validated.
func ParseYAML(src []byte, filename string) (*Manifest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(src))
	dec.KnownFields(true)
	var parsed yamlManifest
	if err := dec.Decode(&parsed); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML manifest %s: %w", filename, err)
	}

	m := newManifest(filename)
	m.Package = parsed.Package
	if parsed.Output != "" {
		m.Output = parsed.Output
	}
	for _, b := range parsed.Bindings {
		m.Bindings = append(m.Bindings, Binding{
			Kind:     b.Kind,
			Name:     b.Name,
			Paths:    b.Paths,
			TypeName: b.Type,
			Length:   b.Length,
			Doc:      b.Doc,
		})
	}
	return m, nil
}
