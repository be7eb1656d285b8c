// internal/category/browse.go
package category

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"starcorn/internal/model"
)

// SortOption selects how a repository list is ordered.
type SortOption string

const (
	SortNameAsc     SortOption = "name-asc"
	SortNameDesc    SortOption = "name-desc"
	SortStarsDesc   SortOption = "stars-desc"
	SortStarsAsc    SortOption = "stars-asc"
	SortUpdatedDesc SortOption = "updated-desc"
	SortUpdatedAsc  SortOption = "updated-asc"
	SortLanguage    SortOption = "language"
)

// SortOptions lists every supported option, default first.
var SortOptions = []SortOption{
	SortStarsDesc, SortStarsAsc, SortNameAsc, SortNameDesc, SortUpdatedDesc, SortUpdatedAsc, SortLanguage,
}

// ParseSortOption validates s as a SortOption.
func ParseSortOption(s string) (SortOption, error) {
	opt := SortOption(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(SortOptions, opt) {
		return opt, nil
	}
	return "", fmt.Errorf("unknown sort option %q", s)
}

// Filter keeps repositories whose full name or description contains query,
// ignoring case. A blank query keeps everything.
func Filter(repos []model.Repository, query string) []model.Repository {
	if strings.TrimSpace(query) == "" {
		return repos
	}

	q := strings.ToLower(query)
	out := make([]model.Repository, 0, len(repos))
	for _, r := range repos {
		if strings.Contains(strings.ToLower(r.FullName), q) ||
			strings.Contains(strings.ToLower(r.DescriptionOrEmpty()), q) {
			out = append(out, r)
		}
	}
	return out
}

// Sort returns a sorted copy of repos. Equal elements keep their order.
func Sort(repos []model.Repository, opt SortOption) []model.Repository {
	sorted := slices.Clone(repos)
	col := newCollator()

	var less func(a, b model.Repository) bool
	switch opt {
	case SortNameAsc:
		less = func(a, b model.Repository) bool { return compareNames(col, a.FullName, b.FullName) < 0 }
	case SortNameDesc:
		less = func(a, b model.Repository) bool { return compareNames(col, b.FullName, a.FullName) < 0 }
	case SortStarsDesc:
		less = func(a, b model.Repository) bool { return a.StarsCount > b.StarsCount }
	case SortStarsAsc:
		less = func(a, b model.Repository) bool { return a.StarsCount < b.StarsCount }
	case SortUpdatedDesc:
		less = func(a, b model.Repository) bool { return a.UpdatedAt.After(b.UpdatedAt) }
	case SortUpdatedAsc:
		less = func(a, b model.Repository) bool { return a.UpdatedAt.Before(b.UpdatedAt) }
	case SortLanguage:
		less = func(a, b model.Repository) bool {
			la, lb := a.LanguageOrEmpty(), b.LanguageOrEmpty()
			if la != lb {
				// Repositories without a language go last.
				if la == "" || lb == "" {
					return lb == ""
				}
				return compareNames(col, la, lb) < 0
			}
			return a.StarsCount > b.StarsCount
		}
	default:
		return sorted
	}

	sort.SliceStable(sorted, func(i, j int) bool { return less(sorted[i], sorted[j]) })
	return sorted
}
