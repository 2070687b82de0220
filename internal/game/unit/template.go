package unit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Template defines a reusable unit archetype loaded from YAML.
type Template struct {
	ID         string  `yaml:"id"`
	Name       string  `yaml:"name"`
	Kind       string  `yaml:"kind"` // "player" or "enemy"
	MaxHP      int     `yaml:"max_hp"`
	AP         float64 `yaml:"ap"`
	APRecovery float64 `yaml:"ap_recovery"`
	SightRange int     `yaml:"sight_range"`
	// NoiseLevel is the audible movement radius; omitted means the
	// planner's DefaultNoiseLevel applies at perception time.
	NoiseLevel *int `yaml:"noise_level"`
}

// UnitKind maps the template's kind string to a Kind tag.
//
// Precondition: the template must have passed Validate.
func (t *Template) UnitKind() Kind {
	if t.Kind == "player" {
		return KindPlayer
	}
	return KindEnemy
}

// Validate checks that the template satisfies basic invariants.
//
// Precondition: t must not be nil.
// Postcondition: returns nil iff ID and Name are non-empty, Kind is
// "player" or "enemy", MaxHP >= 1, AP > 0, APRecovery >= 0,
// SightRange >= 1, and NoiseLevel, when set, is >= 0; returns an error on
// the first violation otherwise.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("unit template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("unit template %q: name must not be empty", t.ID)
	}
	if t.Kind != "player" && t.Kind != "enemy" {
		return fmt.Errorf("unit template %q: kind must be \"player\" or \"enemy\", got %q", t.ID, t.Kind)
	}
	if t.MaxHP < 1 {
		return fmt.Errorf("unit template %q: max_hp must be >= 1", t.ID)
	}
	if t.AP <= 0 {
		return fmt.Errorf("unit template %q: ap must be > 0", t.ID)
	}
	if t.APRecovery < 0 {
		return fmt.Errorf("unit template %q: ap_recovery must be >= 0", t.ID)
	}
	if t.SightRange < 1 {
		return fmt.Errorf("unit template %q: sight_range must be >= 1", t.ID)
	}
	if t.NoiseLevel != nil && *t.NoiseLevel < 0 {
		return fmt.Errorf("unit template %q: noise_level must be >= 0", t.ID)
	}
	return nil
}

// LoadTemplateFromBytes parses a single unit template from raw YAML bytes.
//
// Precondition: data must be valid YAML for a single Template.
// Postcondition: returns a validated *Template, or an error.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var tmpl Template
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("parsing template YAML: %w", err)
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// LoadTemplates reads all *.yaml files in dir and returns the parsed
// templates.
//
// Precondition: dir must be a readable directory.
// Postcondition: returns all templates or an error on the first parse or
// validate failure; on error, the partial result is discarded.
func LoadTemplates(dir string) ([]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading unit dir %q: %w", dir, err)
	}

	var templates []*Template
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		tmpl, err := LoadTemplateFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		templates = append(templates, tmpl)
	}
	return templates, nil
}
