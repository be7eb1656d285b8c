// internal/category/categorizer.go
package category

import (
	"slices"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"starcorn/internal/model"
)

// Category is a category name with the repositories assigned to it.
type Category struct {
	Name  string
	Repos []model.Repository
}

// Candidate is one category a repository matched, and how.
type Candidate struct {
	Category string
	Strength MatchStrength
	Priority int
	// Signal is the topic, keyword or name pattern that matched.
	Signal string
}

// Categorizer assigns repositories to categories from a fixed table.
// It never mutates the table and is safe for concurrent use.
type Categorizer struct {
	defs []Definition
}

// New creates a Categorizer over defs, normalized.
func New(defs []Definition) *Categorizer {
	return &Categorizer{defs: Normalize(defs)}
}

// NewDefault creates a Categorizer over the built-in table.
func NewDefault() *Categorizer {
	return &Categorizer{defs: DefaultDefinitions()}
}

// Definitions returns a copy of the table, Uncategorized last.
func (c *Categorizer) Definitions() []Definition {
	return slices.Clone(c.defs)
}

// Names returns the category names in table order.
func (c *Categorizer) Names() []string {
	names := make([]string, len(c.defs))
	for i, d := range c.defs {
		names[i] = d.Name
	}
	return names
}

// Candidates lists every category repo matches, best first. The order is
// match strength, then priority, then table order.
func (c *Categorizer) Candidates(repo model.Repository) []Candidate {
	name := strings.ToLower(repo.Name)
	description := strings.ToLower(repo.DescriptionOrEmpty())
	topics := make(map[string]bool, len(repo.Topics))
	for _, t := range repo.Topics {
		topics[strings.ToLower(t)] = true
	}

	var candidates []Candidate
	for _, d := range c.defs {
		if d.Name == Uncategorized {
			continue
		}
		strength, signal := match(d, name, description, topics)
		if strength == StrengthNone {
			continue
		}
		candidates = append(candidates, Candidate{
			Category: d.Name,
			Strength: strength,
			Priority: d.Priority,
			Signal:   signal,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Strength.Weight() != b.Strength.Weight() {
			return a.Strength.Weight() > b.Strength.Weight()
		}
		return a.Priority > b.Priority
	})
	return candidates
}

// match returns the strongest signal d finds, checking topics, then
// keywords, then name patterns.
func match(d Definition, name, description string, topics map[string]bool) (MatchStrength, string) {
	for _, t := range d.Topics {
		if topics[t] {
			return StrengthTopic, t
		}
	}
	for _, k := range d.Keywords {
		if strings.Contains(name, k) || strings.Contains(description, k) {
			return StrengthKeyword, k
		}
	}
	for _, p := range d.NamePatterns {
		if strings.Contains(name, p) {
			return StrengthNamePattern, p
		}
	}
	return StrengthNone, ""
}

// Assign returns the name of the single category repo belongs to.
func (c *Categorizer) Assign(repo model.Repository) string {
	candidates := c.Candidates(repo)
	if len(candidates) == 0 {
		return Uncategorized
	}
	return candidates[0].Category
}

// Categorize groups repos by category. Every category in the table is
// present, empty or not, sorted by name with Uncategorized last. Each
// repository appears exactly once; private ones are left out.
func (c *Categorizer) Categorize(repos []model.Repository) []Category {
	groups := make(map[string][]model.Repository, len(c.defs))
	for _, d := range c.defs {
		groups[d.Name] = []model.Repository{}
	}

	for _, repo := range repos {
		if repo.Private {
			continue
		}
		name := c.Assign(repo)
		groups[name] = append(groups[name], repo)
	}

	categories := make([]Category, 0, len(c.defs))
	for _, d := range c.defs {
		if d.Name != Uncategorized {
			categories = append(categories, Category{Name: d.Name, Repos: groups[d.Name]})
		}
	}

	col := newCollator()
	sort.SliceStable(categories, func(i, j int) bool {
		return compareNames(col, categories[i].Name, categories[j].Name) < 0
	})

	return append(categories, Category{Name: Uncategorized, Repos: groups[Uncategorized]})
}

// newCollator orders strings the way a reader expects, ignoring case at the
// first level. A Collator is not safe for concurrent use, so callers make
// their own.
func newCollator() *collate.Collator {
	return collate.New(language.English)
}

func compareNames(col *collate.Collator, a, b string) int {
	if n := col.CompareString(a, b); n != 0 {
		return n
	}
	return strings.Compare(a, b)
}
