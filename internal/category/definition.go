// internal/category/definition.go
package category

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Uncategorized receives every repository that matches no other category.
const Uncategorized = "Uncategorized"

// Definition holds the matching rules for one category.
type Definition struct {
	Name string
	// Topics match exactly, ignoring case.
	Topics []string
	// Keywords match as substrings of the name or the description.
	Keywords []string
	// NamePatterns match as substrings of the name only.
	NamePatterns []string
	// Priority breaks ties between equally strong matches. Higher wins.
	Priority int
}

// rawDefinition is the YAML form. Rule lists accept a single string and
// a missing or unparsable priority reads as 0.
type rawDefinition struct {
	Name         string     `yaml:"name"`
	Topics       ruleList   `yaml:"topics"`
	Keywords     ruleList   `yaml:"keywords"`
	NamePatterns ruleList   `yaml:"namePatterns"`
	Priority     lenientInt `yaml:"priority"`
}

type ruleList []string

func (l *ruleList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*l = ruleList{value.Value}
	case yaml.SequenceNode:
		for _, n := range value.Content {
			if n.Kind == yaml.ScalarNode {
				*l = append(*l, n.Value)
			}
		}
	}
	return nil
}

type lenientInt int

func (p *lenientInt) UnmarshalYAML(value *yaml.Node) error {
	*p = 0
	if value.Kind != yaml.ScalarNode {
		return nil
	}
	if n, err := strconv.Atoi(strings.TrimSpace(value.Value)); err == nil {
		*p = lenientInt(n)
	}
	return nil
}

//go:embed categories.yaml
var embeddedDefinitions []byte

var (
	defaultOnce sync.Once
	defaultDefs []Definition
)

// DefaultDefinitions returns the built-in category table. It is parsed once.
func DefaultDefinitions() []Definition {
	defaultOnce.Do(func() {
		defs, err := LoadDefinitions(bytes.NewReader(embeddedDefinitions))
		if err != nil {
			panic(fmt.Sprintf("category: embedded table is invalid: %v", err))
		}
		defaultDefs = defs
	})
	return slices.Clone(defaultDefs)
}

// LoadDefinitions parses a YAML list of category definitions and
// normalizes it. Only syntax errors are reported; missing or odd fields
// fall back to defaults.
func LoadDefinitions(r io.Reader) ([]Definition, error) {
	var raw []rawDefinition
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decoding category definitions: %w", err)
	}

	defs := make([]Definition, 0, len(raw))
	for _, rd := range raw {
		defs = append(defs, Definition{
			Name:         rd.Name,
			Topics:       rd.Topics,
			Keywords:     rd.Keywords,
			NamePatterns: rd.NamePatterns,
			Priority:     int(rd.Priority),
		})
	}
	return Normalize(defs), nil
}

// Normalize lowercases and trims rule strings, drops blank rules, unnamed
// entries and repeated names (the first one wins), and makes sure the
// Uncategorized entry exists exactly once, last, with no rules.
func Normalize(defs []Definition) []Definition {
	out := make([]Definition, 0, len(defs)+1)
	seen := make(map[string]bool, len(defs))

	for _, d := range defs {
		name := strings.TrimSpace(d.Name)
		if name == "" || name == Uncategorized || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, Definition{
			Name:         name,
			Topics:       normalizeRules(d.Topics),
			Keywords:     normalizeRules(d.Keywords),
			NamePatterns: normalizeRules(d.NamePatterns),
			Priority:     d.Priority,
		})
	}

	return append(out, Definition{Name: Uncategorized})
}

func normalizeRules(rules []string) []string {
	out := make([]string, 0, len(rules))
	for _, r := range rules {
		r = strings.ToLower(strings.TrimSpace(r))
		if r != "" {
			out = append(out, r)
		}
	}
	return out
}
