package nlp

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/signalwatch/propagraph/internal/domain"
)

// MarkerRule defines one manipulation technique to detect, with keyword
// lists per language.
type MarkerRule struct {
	Type     string                `yaml:"type"`
	Category string                `yaml:"category"`
	Severity domain.MarkerSeverity `yaml:"severity"`
	// Keywords maps a language code to its trigger phrases.
	Keywords map[string][]string `yaml:"keywords"`
}

// Corpus is the full manipulation-marker rule set loaded from YAML.
type Corpus struct {
	Version string       `yaml:"version"`
	Rules   []MarkerRule `yaml:"rules"`
}

// LoadCorpus reads and parses a marker corpus file.
func LoadCorpus(path string) (*Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read marker corpus %s: %w", path, err)
	}

	var corpus Corpus
	if err := yaml.Unmarshal(data, &corpus); err != nil {
		return nil, fmt.Errorf("parse marker corpus: %w", err)
	}

	for i := range corpus.Rules {
		if corpus.Rules[i].Severity == "" {
			corpus.Rules[i].Severity = domain.SeverityMedium
		}
	}

	return &corpus, nil
}

// RulesForLanguage returns the rules that carry keywords for lang.
func (c *Corpus) RulesForLanguage(lang string) []MarkerRule {
	var out []MarkerRule
	for _, rule := range c.Rules {
		if len(rule.Keywords[lang]) > 0 {
			out = append(out, rule)
		}
	}
	return out
}
