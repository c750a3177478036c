package policy

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Set is the base Config plus per fleet-context overlays.
type Set struct {
	base     Config
	contexts map[string]Config
}

type document struct {
	Config   `yaml:",inline"`
	Contexts map[string]yaml.Node `yaml:"contexts"`
}

// DefaultSet returns a Set with the stock configuration and no overlays.
func DefaultSet() *Set {
	return &Set{base: Default(), contexts: map[string]Config{}}
}

// NewSet builds a Set from already-validated configs.
func NewSet(base Config, contexts map[string]Config) (*Set, error) {
	if err := base.Validate(); err != nil {
		return nil, err
	}
	copied := make(map[string]Config, len(contexts))
	for tag, cfg := range contexts {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("context %q: %w", tag, err)
		}
		copied[tag] = cfg
	}
	return &Set{base: base, contexts: copied}, nil
}

// LoadFile reads a YAML policy file. An empty path yields DefaultSet.
func LoadFile(path string) (*Set, error) {
	if path == "" {
		return DefaultSet(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file %s: %w", path, err)
	}
	set, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("policy file %s: %w", path, err)
	}
	return set, nil
}

// Parse decodes a YAML policy document. Keys left out keep their defaults;
// each entry under contexts is decoded over a copy of the resolved base.
func Parse(data []byte) (*Set, error) {
	doc := document{Config: Default()}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse policy yaml: %w", err)
	}

	contexts := make(map[string]Config, len(doc.Contexts))
	for tag, node := range doc.Contexts {
		cfg := doc.Config
		if err := node.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parse context %q: %w", tag, err)
		}
		contexts[tag] = cfg
	}

	return NewSet(doc.Config, contexts)
}

// For returns the config for a fleet context, falling back to the base.
func (s *Set) For(contextTag string) Config {
	if cfg, ok := s.contexts[contextTag]; ok {
		return cfg
	}
	return s.base
}

// Base returns the deployment-wide config.
func (s *Set) Base() Config {
	return s.base
}

// Contexts lists the overlay tags in sorted order.
func (s *Set) Contexts() []string {
	tags := make([]string, 0, len(s.contexts))
	for tag := range s.contexts {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
