// internal/category/categorizer_test.go
package category

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"starcorn/internal/model"
)

func repo(id int64, name, description string, topics ...string) model.Repository {
	r := model.Repository{
		ID:       id,
		Name:     name,
		FullName: "octo/" + name,
		Topics:   topics,
	}
	if description != "" {
		r.Description = &description
	}
	return r
}

func TestMatchStrength_Weight(t *testing.T) {
	assert.Equal(t, 100, StrengthTopic.Weight())
	assert.Equal(t, 50, StrengthKeyword.Weight())
	assert.Equal(t, 25, StrengthNamePattern.Weight())
	assert.Equal(t, 0, StrengthNone.Weight())
	assert.Greater(t, StrengthTopic.Weight(), StrengthKeyword.Weight())
	assert.Greater(t, StrengthKeyword.Weight(), StrengthNamePattern.Weight())
}

func TestCategorizer_Assign(t *testing.T) {
	c := NewDefault()

	tests := []struct {
		name string
		repo model.Repository
		want string
	}{
		{
			name: "topic beats a keyword of a higher priority category",
			repo: repo(1, "tool", "wraps the openai api", "cli"),
			want: "Developer Tools",
		},
		{
			name: "equal topic strength falls to priority",
			repo: repo(2, "thing", "", "ai", "cli"),
			want: "AI & Machine Learning",
		},
		{
			name: "topics match regardless of case",
			repo: repo(3, "thing", "", "Kubernetes"),
			want: "Infrastructure & DevOps",
		},
		{
			name: "keyword in the description",
			repo: repo(4, "thing", "A fast JavaScript BUNDLER"),
			want: "Runtime & Build Tools",
		},
		{
			name: "name pattern alone",
			repo: repo(5, "awesome-go", ""),
			want: "Documentation",
		},
		{
			name: "keyword in the name beats a name pattern",
			repo: repo(6, "vite-ui", ""),
			want: "Runtime & Build Tools",
		},
		{
			name: "nothing matches",
			repo: repo(7, "zzz", "qqq"),
			want: Uncategorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Assign(tt.repo))
		})
	}
}

func TestCategorizer_Laws(t *testing.T) {
	t.Run("precedence: topic beats keyword regardless of priority", func(t *testing.T) {
		c := New([]Definition{
			{Name: "Low", Topics: []string{"widgets"}, Priority: 1},
			{Name: "High", Keywords: []string{"gadget"}, Priority: 99},
		})

		got := c.Assign(repo(1, "x", "a gadget library", "widgets"))

		assert.Equal(t, "Low", got)
	})

	t.Run("tie-break: equal strength resolves to higher priority", func(t *testing.T) {
		c := New([]Definition{
			{Name: "Six", Keywords: []string{"shared"}, Priority: 6},
			{Name: "Ten", Keywords: []string{"shared"}, Priority: 10},
		})

		got := c.Assign(repo(1, "shared-thing", ""))

		assert.Equal(t, "Ten", got)
	})

	t.Run("tie-break: equal strength and priority resolves to table order", func(t *testing.T) {
		defs := []Definition{
			{Name: "Zeta", Keywords: []string{"same"}, Priority: 5},
			{Name: "Alpha", Keywords: []string{"same"}, Priority: 5},
		}
		for i := 0; i < 20; i++ {
			assert.Equal(t, "Zeta", New(defs).Assign(repo(1, "same", "")))
		}
	})

	t.Run("fallback: no signal lands in Uncategorized", func(t *testing.T) {
		c := New([]Definition{{Name: "A", Topics: []string{"a"}, Keywords: []string{"aaa"}, NamePatterns: []string{"-a"}}})

		assert.Equal(t, Uncategorized, c.Assign(repo(1, "b", "bbb", "b")))
	})
}

func TestCategorizer_Candidates(t *testing.T) {
	c := NewDefault()

	candidates := c.Candidates(repo(1, "agent-cli", "an openai powered terminal helper", "cli"))

	require.NotEmpty(t, candidates)
	assert.Equal(t, Candidate{Category: "Developer Tools", Strength: StrengthTopic, Priority: 6, Signal: "cli"}, candidates[0])
	assert.Equal(t, Candidate{Category: "AI & Machine Learning", Strength: StrengthKeyword, Priority: 10, Signal: "openai"}, candidates[1])
	for i := 1; i < len(candidates); i++ {
		prev, cur := candidates[i-1], candidates[i]
		assert.GreaterOrEqual(t, prev.Strength.Weight(), cur.Strength.Weight())
		if prev.Strength == cur.Strength {
			assert.GreaterOrEqual(t, prev.Priority, cur.Priority)
		}
	}
}

func TestCategorizer_Categorize(t *testing.T) {
	c := NewDefault()
	repos := []model.Repository{
		repo(1, "llama-runner", "run an LLM locally"),
		repo(2, "zzz", ""),
		repo(3, "my-icons", ""),
		repo(4, "awesome-go", ""),
		repo(5, "vite", ""),
		repo(6, "qqq", "nothing to see"),
	}

	categories := c.Categorize(repos)

	t.Run("every table category is present, sorted, Uncategorized last", func(t *testing.T) {
		names := make([]string, len(categories))
		for i, cat := range categories {
			names[i] = cat.Name
		}
		assert.Equal(t, []string{
			"AI & Machine Learning",
			"Analytics & Monitoring",
			"APIs & Backend",
			"Data & Visualization",
			"Design Resources",
			"Developer Tools",
			"Documentation",
			"Infrastructure & DevOps",
			"Mobile",
			"Presentations",
			"Productivity",
			"Runtime & Build Tools",
			"Security",
			"UI Components",
			"Utilities",
			Uncategorized,
		}, names)
	})

	t.Run("partition is total and disjoint", func(t *testing.T) {
		seen := map[int64]int{}
		total := 0
		for _, cat := range categories {
			total += len(cat.Repos)
			for _, r := range cat.Repos {
				seen[r.ID]++
			}
		}
		assert.Equal(t, len(repos), total)
		for _, r := range repos {
			assert.Equal(t, 1, seen[r.ID], "repo %d", r.ID)
		}
	})

	t.Run("groups keep input order", func(t *testing.T) {
		byName := map[string][]int64{}
		for _, cat := range categories {
			for _, r := range cat.Repos {
				byName[cat.Name] = append(byName[cat.Name], r.ID)
			}
		}
		assert.Equal(t, []int64{2, 6}, byName[Uncategorized])
		assert.Equal(t, []int64{1}, byName["AI & Machine Learning"])
		assert.Equal(t, []int64{3}, byName["Design Resources"])
		assert.Equal(t, []int64{4}, byName["Documentation"])
		assert.Equal(t, []int64{5}, byName["Runtime & Build Tools"])
	})

	t.Run("empty categories are kept with non-nil slices", func(t *testing.T) {
		for _, cat := range categories {
			assert.NotNil(t, cat.Repos, cat.Name)
		}
	})
}

func TestCategorizer_UncategorizedLastEvenWhenItSortsFirst(t *testing.T) {
	c := New([]Definition{
		{Name: "Zebra", Topics: []string{"z"}},
		{Name: "Aardvark", Topics: []string{"a"}},
		{Name: "Vault", Topics: []string{"v"}},
	})

	categories := c.Categorize(nil)

	require.Len(t, categories, 4)
	assert.Equal(t, "Aardvark", categories[0].Name)
	assert.Equal(t, "Vault", categories[1].Name)
	assert.Equal(t, "Zebra", categories[2].Name)
	assert.Equal(t, Uncategorized, categories[3].Name)
	assert.Empty(t, categories[3].Repos)
}

func TestCategorizer_PrivateRepositoriesNeverAppear(t *testing.T) {
	hidden := repo(9, "secret-cli", "", "cli")
	hidden.Private = true

	categories := NewDefault().Categorize([]model.Repository{repo(1, "x", ""), hidden})

	for _, cat := range categories {
		for _, r := range cat.Repos {
			assert.NotEqual(t, int64(9), r.ID)
		}
	}
}

func TestCategorizer_Deterministic(t *testing.T) {
	c := NewDefault()
	var repos []model.Repository
	for i := 0; i < 200; i++ {
		repos = append(repos, repo(int64(i), fmt.Sprintf("proj-%d-cli", i), "metrics and slides", "ui", "security"))
	}

	first := c.Categorize(repos)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, first, c.Categorize(repos))
		}()
	}
	wg.Wait()
}
