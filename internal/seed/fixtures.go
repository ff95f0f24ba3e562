// Package seed provides helpers to create demo data for the farm database.
// These helpers are intended for development and testing only.
package seed

import (
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed fixtures.yaml
var defaultFixtures []byte

// NamePlaceholder is replaced by the unicorn's name in message templates.
const NamePlaceholder = "[name]"

// Fixtures describes the demo farm.
type Fixtures struct {
	Unicorns        []string  `yaml:"unicorns"`
	Messages        []string  `yaml:"messages"`
	Authors         []string  `yaml:"authors"`
	PostsPerUnicorn CountSpan `yaml:"posts_per_unicorn"`
}

// CountSpan is an inclusive range.
type CountSpan struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// DefaultFixtures returns the built-in demo farm.
func DefaultFixtures() (*Fixtures, error) {
	return ParseFixtures(defaultFixtures)
}

// ParseFixtures decodes and validates a YAML fixtures document.
func ParseFixtures(data []byte) (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks that the fixtures can produce a farm.
func (f *Fixtures) Validate() error {
	if len(f.Unicorns) == 0 {
		return errors.New("fixtures: no unicorns")
	}
	if len(f.Messages) == 0 {
		return errors.New("fixtures: no message templates")
	}
	if f.PostsPerUnicorn.Min < 0 || f.PostsPerUnicorn.Max < f.PostsPerUnicorn.Min {
		return fmt.Errorf("fixtures: invalid posts_per_unicorn range %d..%d",
			f.PostsPerUnicorn.Min, f.PostsPerUnicorn.Max)
	}
	return nil
}
