package kb

import (
	_ "embed"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/chronoqa/internal/errors"
)

//go:embed seed.yaml
var seedYAML []byte

// SeedCatalog returns the built-in curated catalog
func SeedCatalog() (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(seedYAML, &c); err != nil {
		return nil, errors.Wrap(err, "parse seed knowledge base")
	}
	return &c, nil
}

// Seed loads the built-in curated knowledge base
func Seed() (*KnowledgeBase, error) {
	c, err := SeedCatalog()
	if err != nil {
		return nil, err
	}
	entities, facts := c.Expand()
	return Load(entities, facts)
}
