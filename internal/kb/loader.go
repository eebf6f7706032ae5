package kb

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/chronoqa/internal/errors"
	"github.com/ppiankov/chronoqa/internal/model"
)

// Catalog is the on-disk knowledge base format: an entity catalog plus an
// ordered list of fact records. Entities may carry common attributes inline;
// they are expanded into facts on load.
type Catalog struct {
	Entities []EntityRecord `json:"entities" yaml:"entities"`
	Facts    []model.Fact   `json:"facts" yaml:"facts"`
}

// EntityRecord is one catalog entry
type EntityRecord struct {
	ID         string   `json:"id" yaml:"id"`
	Name       string   `json:"name" yaml:"name"`
	Type       string   `json:"type" yaml:"type"`
	Domain     string   `json:"domain,omitempty" yaml:"domain,omitempty"`
	Countries  []string `json:"countries,omitempty" yaml:"countries,omitempty"`
	Source     string   `json:"source,omitempty" yaml:"source,omitempty"`
	Confidence float64  `json:"confidence,omitempty" yaml:"confidence,omitempty"`

	// Inline attributes
	Began      string `json:"began,omitempty" yaml:"began,omitempty"`
	Ended      string `json:"ended,omitempty" yaml:"ended,omitempty"`
	Born       string `json:"born,omitempty" yaml:"born,omitempty"`
	Died       string `json:"died,omitempty" yaml:"died,omitempty"`
	Founded    string `json:"founded,omitempty" yaml:"founded,omitempty"`
	Dissolved  string `json:"dissolved,omitempty" yaml:"dissolved,omitempty"`
	Location   string `json:"location,omitempty" yaml:"location,omitempty"`
	Country    string `json:"country,omitempty" yaml:"country,omitempty"`
	Field      string `json:"field,omitempty" yaml:"field,omitempty"`
	Casualties string `json:"casualties,omitempty" yaml:"casualties,omitempty"`
}

// Expand splits the catalog into entities and facts for Load
func (c *Catalog) Expand() ([]model.Entity, []model.Fact) {
	entities := make([]model.Entity, 0, len(c.Entities))
	facts := make([]model.Fact, 0, len(c.Facts)+len(c.Entities)*3)

	for _, r := range c.Entities {
		entities = append(entities, model.Entity{
			ID:        r.ID,
			Name:      r.Name,
			Type:      model.EntityType(r.Type),
			Domain:    r.Domain,
			Countries: r.Countries,
		})

		inline := []struct {
			pred  string
			value string
			kind  model.ObjectKind
		}{
			{model.PredBegan, r.Began, model.ObjectDate},
			{model.PredEnded, r.Ended, model.ObjectDate},
			{model.PredBorn, r.Born, model.ObjectDate},
			{model.PredDied, r.Died, model.ObjectDate},
			{model.PredFounded, r.Founded, model.ObjectDate},
			{model.PredDissolved, r.Dissolved, model.ObjectDate},
			{model.PredLocatedIn, r.Location, model.ObjectText},
			{model.PredCountry, r.Country, model.ObjectText},
			{model.PredField, r.Field, model.ObjectText},
			{model.PredCasualties, r.Casualties, model.ObjectScalar},
		}
		for _, a := range inline {
			if a.value == "" {
				continue
			}
			facts = append(facts, model.Fact{
				Subject:    r.ID,
				Predicate:  a.pred,
				Object:     a.value,
				Kind:       a.kind,
				Domain:     r.Domain,
				Source:     r.Source,
				Confidence: r.Confidence,
			})
		}
	}

	facts = append(facts, c.Facts...)
	return entities, facts
}

// LoadFile reads a YAML or JSON catalog from fs. Format "auto" picks by extension.
func LoadFile(fs afero.Fs, path, format string) (*KnowledgeBase, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "read knowledge base %s", path)
	}

	if format == "" || format == "auto" {
		format = formatFromPath(path)
	}

	var c Catalog
	switch format {
	case "json":
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "parse knowledge base %s", path), errors.ErrConfig)
		}
	case "yaml":
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "parse knowledge base %s", path), errors.ErrConfig)
		}
	default:
		return nil, errors.Mark(errors.Newf("unsupported knowledge base format %q", format), errors.ErrConfig)
	}

	entities, facts := c.Expand()
	k, err := Load(entities, facts)
	if err != nil {
		return nil, errors.Wrapf(err, "load knowledge base %s", path)
	}
	return k, nil
}

// Open loads the knowledge base named by path: the built-in seed when path
// is empty, a SQLite database, or a YAML/JSON catalog read through fs.
func Open(ctx context.Context, fs afero.Fs, path, format string, logger *zap.SugaredLogger) (*KnowledgeBase, error) {
	if path == "" {
		if logger != nil {
			logger.Debugw("Loading built-in knowledge base")
		}
		return Seed()
	}
	if format == "" || format == "auto" {
		format = formatFromPath(path)
	}
	if format != "sqlite" {
		return LoadFile(fs, path, format)
	}

	db, err := OpenSQLite(path, logger)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return LoadSQL(ctx, db)
}

func formatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".db", ".sqlite", ".sqlite3":
		return "sqlite"
	default:
		return "yaml"
	}
}
