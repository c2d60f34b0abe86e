// Package settings describes the runtime settings an administrator can edit.
package settings

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Setting keys
const (
	AppName           = "app_name"
	AppDescription    = "app_description"
	MaintenanceMode   = "maintenance_mode"
	AllowRegistration = "allow_registration"
	SessionTimeout    = "session_timeout"
	MaxLeaguesPerUser = "max_leagues_per_user"
	MaxTeamsPerLeague = "max_teams_per_league"
	MinTeamsPerLeague = "min_teams_per_league"
	AllowPublicLeague = "allow_public_leagues"
)

// Type is the value kind of a setting
type Type string

const (
	TypeString Type = "string"
	TypeBool   Type = "bool"
	TypeInt    Type = "int"
)

// Definition describes one setting
type Definition struct {
	Key         string `yaml:"key"`
	Category    string `yaml:"category"`
	Type        Type   `yaml:"type"`
	Default     string `yaml:"default"`
	Min         *int   `yaml:"min,omitempty"`
	Max         *int   `yaml:"max,omitempty"`
	Description string `yaml:"description"`
}

// Category groups settings on the admin page
type Category struct {
	Key   string `yaml:"key"`
	Label string `yaml:"label"`
}

// Catalogue is the full set of known settings
type Catalogue struct {
	Categories  []Category   `yaml:"categories"`
	Definitions []Definition `yaml:"settings"`

	byKey map[string]Definition
}

//go:embed catalogue.yaml
var catalogueYAML []byte

// Default returns the catalogue embedded in the binary. It panics if the
// embedded file is malformed.
func Default() *Catalogue {
	c, err := Parse(catalogueYAML)
	if err != nil {
		panic(err)
	}
	return c
}

// Parse decodes and checks a catalogue document
func Parse(data []byte) (*Catalogue, error) {
	var c Catalogue
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse settings catalogue: %w", err)
	}

	categories := make(map[string]bool, len(c.Categories))
	for _, cat := range c.Categories {
		categories[cat.Key] = true
	}

	c.byKey = make(map[string]Definition, len(c.Definitions))
	for _, d := range c.Definitions {
		if _, dup := c.byKey[d.Key]; dup {
			return nil, fmt.Errorf("duplicate setting %q", d.Key)
		}
		if !categories[d.Category] {
			return nil, fmt.Errorf("setting %q has unknown category %q", d.Key, d.Category)
		}
		if err := d.Validate(d.Default); err != nil {
			return nil, fmt.Errorf("invalid default: %w", err)
		}
		c.byKey[d.Key] = d
	}
	return &c, nil
}

// Lookup returns the definition for key
func (c *Catalogue) Lookup(key string) (Definition, bool) {
	d, ok := c.byKey[key]
	return d, ok
}

// InCategory returns the definitions of one category in catalogue order
func (c *Catalogue) InCategory(category string) []Definition {
	var defs []Definition
	for _, d := range c.Definitions {
		if d.Category == category {
			defs = append(defs, d)
		}
	}
	return defs
}

// HasCategory reports whether category exists
func (c *Catalogue) HasCategory(category string) bool {
	for _, cat := range c.Categories {
		if cat.Key == category {
			return true
		}
	}
	return false
}

// Validate checks that value is acceptable for the setting
func (d Definition) Validate(value string) error {
	switch d.Type {
	case TypeBool:
		if _, err := strconv.ParseBool(value); err != nil {
			return fmt.Errorf("%s must be true or false", d.Key)
		}
	case TypeInt:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%s must be a whole number", d.Key)
		}
		if d.Min != nil && n < *d.Min {
			return fmt.Errorf("%s must be at least %d", d.Key, *d.Min)
		}
		if d.Max != nil && n > *d.Max {
			return fmt.Errorf("%s must be at most %d", d.Key, *d.Max)
		}
	case TypeString:
	default:
		return fmt.Errorf("%s has unknown type %q", d.Key, d.Type)
	}
	return nil
}
