package validate

import (
	"strings"

	"github.com/ppiankov/chronoqa/internal/model"
)

// ProvenanceClassifier maps fact source labels to provenance tiers
type ProvenanceClassifier struct {
	curated   map[string]bool
	generated map[string]bool
}

// NewProvenanceClassifier creates a classifier from the configured label lists
func NewProvenanceClassifier(config *model.ProvenanceConfig) *ProvenanceClassifier {
	if config == nil {
		config = &model.DefaultConfig().Provenance
	}

	classifier := &ProvenanceClassifier{
		curated:   make(map[string]bool),
		generated: make(map[string]bool),
	}
	for _, label := range config.Curated {
		classifier.curated[strings.ToLower(label)] = true
	}
	for _, label := range config.Generated {
		classifier.generated[strings.ToLower(label)] = true
	}
	return classifier
}

// Classify returns the tier of a source label. Labels may carry a
// qualifier after a colon ("wikidata:Q362"); only the prefix is matched.
// Unknown labels are template tier.
func (p *ProvenanceClassifier) Classify(label string) model.SourceType {
	label = strings.ToLower(strings.TrimSpace(label))
	if i := strings.IndexByte(label, ':'); i > 0 {
		label = label[:i]
	}

	// Curated wins when a label is listed twice
	if p.curated[label] {
		return model.SourceCurated
	}
	if p.generated[label] {
		return model.SourceGenerated
	}
	return model.SourceTemplate
}
