package seed

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed fixtures.yml
var defaultFixtures []byte

// Fixtures is the demo catalog: companies and their starting inventory.
type Fixtures struct {
	Companies []CompanyFixture `yaml:"companies"`
}

type CompanyFixture struct {
	Name   string        `yaml:"name"`
	Domain string        `yaml:"domain"`
	Items  []ItemFixture `yaml:"items"`
}

type ItemFixture struct {
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
	Location string `yaml:"location"`
	Quantity int    `yaml:"quantity"`
	MinStock int    `yaml:"min_stock"`
}

// DefaultFixtures returns the embedded demo catalog.
func DefaultFixtures() (*Fixtures, error) {
	return ParseFixtures(defaultFixtures)
}

// ParseFixtures decodes a YAML catalog and checks that every company has a domain.
func ParseFixtures(data []byte) (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	seen := make(map[string]bool, len(f.Companies))
	for _, c := range f.Companies {
		if c.Domain == "" {
			return nil, fmt.Errorf("company %q has no domain", c.Name)
		}
		if seen[c.Domain] {
			return nil, fmt.Errorf("duplicate company domain %q", c.Domain)
		}
		seen[c.Domain] = true
		for _, it := range c.Items {
			if it.Quantity < 0 {
				return nil, fmt.Errorf("item %q of %s has negative quantity", it.Name, c.Domain)
			}
		}
	}
	return &f, nil
}
