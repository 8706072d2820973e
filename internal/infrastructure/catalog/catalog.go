// Package catalog ships the default category set.
package catalog

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/place-archive/internal/core/domain"
)

//go:embed categories.yaml
var defaultCategoriesYAML []byte

type categoryEntry struct {
	Name  string `yaml:"name"`
	Icon  string `yaml:"icon"`
	Color string `yaml:"color"`
}

type document struct {
	Categories []categoryEntry `yaml:"categories"`
}

type Catalog struct {
	categories []domain.Category
}

// Default returns the embedded catalog. The embedded file is validated by tests.
func Default() *Catalog {
	c, err := Parse(defaultCategoriesYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded category catalog: %v", err))
	}
	return c
}

func Parse(raw []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode category catalog: %w", err)
	}
	if len(doc.Categories) == 0 {
		return nil, fmt.Errorf("category catalog is empty")
	}

	seen := make(map[string]struct{}, len(doc.Categories))
	out := make([]domain.Category, 0, len(doc.Categories))
	for i, entry := range doc.Categories {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			return nil, fmt.Errorf("category %d has no name", i)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("duplicate category %q", name)
		}
		seen[name] = struct{}{}
		out = append(out, domain.Category{
			Name:  name,
			Icon:  strings.TrimSpace(entry.Icon),
			Color: strings.TrimSpace(entry.Color),
		})
	}
	return &Catalog{categories: out}, nil
}

func (c *Catalog) DefaultCategories() []domain.Category {
	out := make([]domain.Category, len(c.categories))
	copy(out, c.categories)
	return out
}

// Names lists category names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.categories))
	for _, cat := range c.categories {
		names = append(names, cat.Name)
	}
	return names
}
