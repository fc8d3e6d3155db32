// Package catalog holds the directory of officials documents can be
// assigned to. The default roster ships embedded; deployments override it
// with a YAML file.
package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed assignees.yaml
var defaultRoster []byte

type Assignee struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
	Area string `yaml:"area" json:"area"`
}

type Catalog struct {
	assignees []Assignee
	byID      map[string]Assignee
}

// Load builds the catalog from the YAML file at path, or from the embedded
// roster when path is empty.
func Load(path string) (*Catalog, error) {
	raw := defaultRoster
	if path != "" {
		var err error
		raw, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read assignee catalog: %w", err)
		}
	}

	var doc struct {
		Assignees []Assignee `yaml:"assignees"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse assignee catalog: %w", err)
	}
	if len(doc.Assignees) == 0 {
		return nil, fmt.Errorf("assignee catalog is empty")
	}

	byID := make(map[string]Assignee, len(doc.Assignees))
	for _, a := range doc.Assignees {
		if a.ID == "" || a.Name == "" || a.Area == "" {
			return nil, fmt.Errorf("assignee entry missing id, name or area: %+v", a)
		}
		if _, dup := byID[a.ID]; dup {
			return nil, fmt.Errorf("duplicate assignee id %q", a.ID)
		}
		byID[a.ID] = a
	}
	return &Catalog{assignees: doc.Assignees, byID: byID}, nil
}

// All returns the roster in file order.
func (c *Catalog) All() []Assignee {
	out := make([]Assignee, len(c.assignees))
	copy(out, c.assignees)
	return out
}

func (c *Catalog) Lookup(id string) (Assignee, bool) {
	a, ok := c.byID[id]
	return a, ok
}
