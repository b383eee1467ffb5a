package ledger

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Vocabulary is the pair of lists offered for category and method fields.
type Vocabulary struct {
	Categories []string `yaml:"categories" json:"categories"`
	Methods    []string `yaml:"methods" json:"methods"`
}

// DefaultVocabulary returns the built-in lists.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{Categories: DefaultCategories, Methods: DefaultMethods}
}

// LoadVocabulary reads a YAML file of the form
//
//	categories: [Food, Rent]
//	methods: [Cash, Card]
//
// A list left out of the file keeps its default.
func LoadVocabulary(path string) (Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Vocabulary{}, fmt.Errorf("read vocabulary: %w", err)
	}
	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return Vocabulary{}, fmt.Errorf("parse vocabulary %s: %w", path, err)
	}
	def := DefaultVocabulary()
	if len(dedupe(v.Categories)) == 0 {
		v.Categories = def.Categories
	}
	if len(dedupe(v.Methods)) == 0 {
		v.Methods = def.Methods
	}
	return v, nil
}

// Ledger returns a fresh, empty ledger using this vocabulary.
func (v Vocabulary) Ledger() Ledger {
	return New(v.Categories, v.Methods, nil)
}

// VocabularyOf returns the lists of an existing ledger.
func VocabularyOf(l Ledger) Vocabulary {
	return Vocabulary{Categories: l.Categories, Methods: l.Methods}
}
