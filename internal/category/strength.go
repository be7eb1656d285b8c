// internal/category/strength.go
package category

// MatchStrength is the kind of signal that tied a repository to a category.
// Stronger kinds always win over weaker ones, whatever the priorities.
type MatchStrength int

const (
	StrengthNone MatchStrength = iota
	StrengthNamePattern
	StrengthKeyword
	StrengthTopic
)

// Weight is the score used to rank candidates.
func (s MatchStrength) Weight() int {
	switch s {
	case StrengthTopic:
		return 100
	case StrengthKeyword:
		return 50
	case StrengthNamePattern:
		return 25
	default:
		return 0
	}
}

func (s MatchStrength) String() string {
	switch s {
	case StrengthTopic:
		return "topic"
	case StrengthKeyword:
		return "keyword"
	case StrengthNamePattern:
		return "namePattern"
	default:
		return "none"
	}
}
