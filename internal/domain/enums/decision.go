package enums

import "strings"

type Decision string

const (
	DecisionLike      Decision = "like"
	DecisionPass      Decision = "pass"
	DecisionSuperLike Decision = "superlike"
)

// ParseDecision accepts the three wire values case-insensitively and never
// coerces anything else.
func ParseDecision(raw string) (Decision, bool) {
	value := Decision(strings.ToLower(strings.TrimSpace(raw)))
	switch value {
	case DecisionLike, DecisionPass, DecisionSuperLike:
		return value, true
	default:
		return "", false
	}
}

func (d Decision) IsPositive() bool {
	return d == DecisionLike || d == DecisionSuperLike
}
