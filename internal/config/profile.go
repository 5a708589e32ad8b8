package config

import (
	"fmt"
)

// Profile is a named bundle of network parameters.
type Profile struct {
	Name      string         `yaml:"name"`      // e.g. "mainnet", "localhost"
	URL       string         `yaml:"url"`       // endpoint template, may embed ${SECRET} markers
	Accounts  []string       `yaml:"accounts"`  // opaque credential references, may be templates
	Overrides map[string]any `yaml:"overrides"` // numeric parameters, e.g. gasPrice
}

func (p Profile) clone() Profile {
	c := Profile{Name: p.Name, URL: p.URL}
	if p.Accounts != nil {
		c.Accounts = append([]string(nil), p.Accounts...)
	}
	if p.Overrides != nil {
		c.Overrides = make(map[string]any, len(p.Overrides))
		for k, v := range p.Overrides {
			c.Overrides[k] = v
		}
	}
	return c
}

// Table is an immutable, ordered set of profiles identified by name.
type Table struct {
	order    []string
	profiles map[string]Profile
}

// NewTable builds a table, preserving declaration order. Names must be unique and
// non-empty and every profile needs a url template.
func NewTable(profiles ...Profile) (*Table, error) {
	if len(profiles) == 0 {
		return nil, ErrNoProfiles
	}

	t := &Table{
		order:    make([]string, 0, len(profiles)),
		profiles: make(map[string]Profile, len(profiles)),
	}
	for i, p := range profiles {
		if p.Name == "" {
			return nil, fmt.Errorf("network #%d: name is required", i)
		}
		if _, exists := t.profiles[p.Name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateProfile, p.Name)
		}
		if p.URL == "" {
			return nil, fmt.Errorf("network %s: url is required", p.Name)
		}
		t.order = append(t.order, p.Name)
		t.profiles[p.Name] = p.clone()
	}
	return t, nil
}

// Get returns the profile registered under name.
func (t *Table) Get(name string) (Profile, bool) {
	p, ok := t.profiles[name]
	if !ok {
		return Profile{}, false
	}
	return p.clone(), true
}

// Names returns profile names in declaration order.
func (t *Table) Names() []string {
	return append([]string(nil), t.order...)
}

// Profiles returns copies of all profiles in declaration order.
func (t *Table) Profiles() []Profile {
	out := make([]Profile, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.profiles[name].clone())
	}
	return out
}

// Len reports the number of profiles.
func (t *Table) Len() int { return len(t.order) }
