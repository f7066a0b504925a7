package rules

import (
	"strings"
	"time"

	"github.com/neopath7/pethoria-matchpage-server/internal/domain/enums"
)

// StaleAfter is how long a profile stays discoverable without activity.
const StaleAfter = 30 * 24 * time.Hour

type AgeRange struct {
	MinYears int
	MaxYears int
}

var ageBrackets = map[enums.AgeBracket]AgeRange{
	enums.AgeBracketPuppy:  {MinYears: 0, MaxYears: 1},
	enums.AgeBracketYoung:  {MinYears: 1, MaxYears: 3},
	enums.AgeBracketAdult:  {MinYears: 3, MaxYears: 7},
	enums.AgeBracketSenior: {MinYears: 7, MaxYears: 100},
}

func ParseAgeBracket(raw string) (enums.AgeBracket, bool) {
	value := enums.AgeBracket(strings.ToLower(strings.TrimSpace(raw)))
	_, ok := ageBrackets[value]
	return value, ok
}

// BirthDateWindow translates an age bracket into [minBirthDate, maxBirthDate]:
// maxBirthDate = now - minAge years, minBirthDate = now - maxAge years.
func BirthDateWindow(bracket enums.AgeBracket, now time.Time) (time.Time, time.Time, bool) {
	r, ok := ageBrackets[bracket]
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	now = now.UTC()
	maxBirth := now.AddDate(-r.MinYears, 0, 0)
	minBirth := now.AddDate(-r.MaxYears, 0, 0)
	return minBirth, maxBirth, true
}

func InBirthDateWindow(birth time.Time, bracket enums.AgeBracket, now time.Time) bool {
	minBirth, maxBirth, ok := BirthDateWindow(bracket, now)
	if !ok {
		return false
	}
	birth = birth.UTC()
	return !birth.Before(minBirth) && !birth.After(maxBirth)
}

// InAgeYears is used for pets that only carry an age in years.
func InAgeYears(years int, bracket enums.AgeBracket) bool {
	r, ok := ageBrackets[bracket]
	if !ok {
		return false
	}
	return years >= r.MinYears && years < r.MaxYears
}

func ActiveSince(now time.Time) time.Time {
	return now.UTC().Add(-StaleAfter)
}
