package model

import "time"

type Pet struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Type        string     `json:"type"`
	Breed       string     `json:"breed"`
	BirthDate   *time.Time `json:"birth_date,omitempty"`
	AgeYears    *int       `json:"age_years,omitempty"`
	Description string     `json:"description"`
	Images      []string   `json:"images"`
	Active      bool       `json:"active"`
}

// AgeAt prefers the birth date and falls back to the stored age in years.
func (p Pet) AgeAt(now time.Time) (int, bool) {
	if p.BirthDate != nil && !p.BirthDate.IsZero() {
		return fullYears(*p.BirthDate, now), true
	}
	if p.AgeYears != nil {
		return *p.AgeYears, true
	}
	return 0, false
}

func fullYears(birth, now time.Time) int {
	birth = birth.UTC()
	now = now.UTC()
	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}
