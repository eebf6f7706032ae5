// Package templates holds the question templates, keyed by question type and aspect.
package templates

import (
	"sort"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/chronoqa/internal/errors"
	"github.com/ppiankov/chronoqa/internal/model"
)

// Catalog maps (question type, aspect) to one or more surface variants.
// It is read-only once built.
type Catalog struct {
	entries map[model.QuestionType]map[string][]string
}

// Entry is one template variant, for listing
type Entry struct {
	Type    model.QuestionType `json:"question_type" yaml:"question_type"`
	Aspect  string             `json:"aspect" yaml:"aspect"`
	Variant int                `json:"variant" yaml:"variant"`
	Text    string             `json:"text" yaml:"text"`
	Slots   []string           `json:"slots" yaml:"slots"`
}

// Overrides is the YAML override format: type -> aspect -> variants.
// Listed aspects replace the built-in variants.
type Overrides map[string]map[string][]string

// New builds a catalog from a raw mapping, rejecting unknown types and
// malformed templates
func New(raw Overrides) (*Catalog, error) {
	c := &Catalog{entries: make(map[model.QuestionType]map[string][]string)}
	if err := c.merge(raw); err != nil {
		return nil, err
	}
	return c, nil
}

// Default returns the built-in catalog
func Default() *Catalog {
	c, err := New(defaults)
	if err != nil {
		panic(err)
	}
	return c
}

// Load returns the built-in catalog with the YAML overrides at path applied.
// An empty path returns the defaults.
func Load(fs afero.Fs, path string) (*Catalog, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "read templates %s", path), errors.ErrTemplate)
	}
	var raw Overrides
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "parse templates %s", path), errors.ErrTemplate)
	}
	if err := c.merge(raw); err != nil {
		return nil, errors.Wrapf(err, "templates %s", path)
	}
	return c, nil
}

func (c *Catalog) merge(raw Overrides) error {
	for typ, aspects := range raw {
		t, err := model.ParseQuestionType(typ)
		if err != nil {
			return errors.Mark(err, errors.ErrTemplate)
		}
		if c.entries[t] == nil {
			c.entries[t] = make(map[string][]string)
		}
		for aspect, variants := range aspects {
			if len(variants) == 0 {
				return errors.Mark(errors.Newf("%s/%s has no variants", t, aspect), errors.ErrTemplate)
			}
			for _, v := range variants {
				if _, err := Slots(v); err != nil {
					return errors.Wrapf(err, "%s/%s", t, aspect)
				}
			}
			c.entries[t][aspect] = append([]string(nil), variants...)
		}
	}
	return nil
}

// Variants returns the number of surface forms for (t, aspect)
func (c *Catalog) Variants(t model.QuestionType, aspect string) int {
	return len(c.entries[t][aspect])
}

// Render fills the chosen variant's slots. A missing slot or an unknown
// (type, aspect) gives ErrTemplate.
func (c *Catalog) Render(t model.QuestionType, aspect string, variant int, slots map[string]string) (string, error) {
	variants := c.entries[t][aspect]
	if len(variants) == 0 {
		return "", errors.Mark(errors.Newf("no template for %s/%s", t, aspect), errors.ErrTemplate)
	}
	if variant < 0 {
		variant = -variant
	}
	return Fill(variants[variant%len(variants)], slots)
}

// Check verifies that every (type, aspect) a generator can emit has at least
// one template
func (c *Catalog) Check(required map[model.QuestionType][]string) error {
	var missing []string
	for t, aspects := range required {
		for _, a := range aspects {
			if c.Variants(t, a) == 0 {
				missing = append(missing, string(t)+"/"+a)
			}
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return errors.Mark(errors.Newf("missing templates: %s", strings.Join(missing, ", ")), errors.ErrTemplate)
	}
	return nil
}

// List returns every variant in type, aspect, variant order
func (c *Catalog) List() []Entry {
	var out []Entry
	for _, t := range model.AllQuestionTypes() {
		aspects := make([]string, 0, len(c.entries[t]))
		for a := range c.entries[t] {
			aspects = append(aspects, a)
		}
		sort.Strings(aspects)
		for _, a := range aspects {
			for i, text := range c.entries[t][a] {
				slots, _ := Slots(text)
				out = append(out, Entry{Type: t, Aspect: a, Variant: i, Text: text, Slots: slots})
			}
		}
	}
	return out
}
