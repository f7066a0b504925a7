package rules

import (
	"testing"
	"time"

	"github.com/neopath7/pethoria-matchpage-server/internal/domain/enums"
)

func TestBirthDateWindowSenior(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		birth time.Time
		want  bool
	}{
		{name: "eight_years_ago", birth: now.AddDate(-8, 0, 0), want: true},
		{name: "two_years_ago", birth: now.AddDate(-2, 0, 0), want: false},
		{name: "exactly_seven", birth: now.AddDate(-7, 0, 0), want: true},
		{name: "hundred_years_ago", birth: now.AddDate(-100, 0, 0), want: true},
		{name: "older_than_hundred", birth: now.AddDate(-101, 0, 0), want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := InBirthDateWindow(tc.birth, enums.AgeBracketSenior, now)
			if got != tc.want {
				t.Fatalf("unexpected senior membership: got %v want %v", got, tc.want)
			}
		})
	}
}

func TestBirthDateWindowBounds(t *testing.T) {
	now := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	minBirth, maxBirth, ok := BirthDateWindow(enums.AgeBracketYoung, now)
	if !ok {
		t.Fatalf("young bracket must resolve")
	}
	if !maxBirth.Equal(time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected max birth date: %v", maxBirth)
	}
	if !minBirth.Equal(time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected min birth date: %v", minBirth)
	}
}

func TestParseAgeBracket(t *testing.T) {
	for _, raw := range []string{"puppy", "Young", " adult ", "SENIOR"} {
		if _, ok := ParseAgeBracket(raw); !ok {
			t.Fatalf("expected %q to parse", raw)
		}
	}
	if _, ok := ParseAgeBracket("kitten"); ok {
		t.Fatalf("unknown bracket must be rejected")
	}
}

func TestInAgeYears(t *testing.T) {
	if !InAgeYears(0, enums.AgeBracketPuppy) {
		t.Fatalf("0 years is a puppy")
	}
	if InAgeYears(1, enums.AgeBracketPuppy) {
		t.Fatalf("1 year is not a puppy")
	}
	if !InAgeYears(6, enums.AgeBracketAdult) {
		t.Fatalf("6 years is adult")
	}
}
