package search

import (
	"math"
	"strings"
	"time"

	"github.com/neopath7/pethoria-matchpage-server/internal/domain/enums"
	"github.com/neopath7/pethoria-matchpage-server/internal/domain/errs"
	"github.com/neopath7/pethoria-matchpage-server/internal/domain/model"
	"github.com/neopath7/pethoria-matchpage-server/internal/domain/rules"
	"github.com/neopath7/pethoria-matchpage-server/internal/services/geo"
)

type Filters struct {
	RadiusMiles   *float64 `json:"radius_miles,omitempty"`
	City          string   `json:"city,omitempty"`
	State         string   `json:"state,omitempty"`
	PetType       string   `json:"pet_type,omitempty"`
	Breed         string   `json:"breed,omitempty"`
	AgeBracket    string   `json:"age_bracket,omitempty"`
	RecencyDays   int      `json:"recency_days,omitempty"`
	VerifiedFirst bool     `json:"verified_first,omitempty"`
	Kind          string   `json:"kind,omitempty"`
	Limit         int      `json:"limit,omitempty"`
}

type normalized struct {
	Filters
	kind    enums.CandidateKind
	bracket enums.AgeBracket
}

func normalizeFilters(f Filters, point *model.Point, cfg Config) (normalized, error) {
	n := normalized{Filters: f}
	n.City = strings.TrimSpace(f.City)
	n.State = strings.TrimSpace(f.State)
	n.PetType = strings.ToLower(strings.TrimSpace(f.PetType))
	n.Breed = strings.TrimSpace(f.Breed)
	n.AgeBracket = strings.ToLower(strings.TrimSpace(f.AgeBracket))

	if point != nil {
		if err := geo.ValidateCoordinates(point.Lat, point.Lon); err != nil {
			return normalized{}, err
		}
		if f.RadiusMiles == nil {
			return normalized{}, errs.Invalid("radius_miles", "is required when a point is given")
		}
	}
	if f.RadiusMiles != nil {
		r := *f.RadiusMiles
		if math.IsNaN(r) || math.IsInf(r, 0) || r <= 0 {
			return normalized{}, errs.Invalid("radius_miles", "must be greater than 0")
		}
	}

	if n.AgeBracket != "" {
		bracket, ok := rules.ParseAgeBracket(n.AgeBracket)
		if !ok {
			return normalized{}, errs.Invalid("age_bracket", "must be one of puppy, young, adult, senior")
		}
		n.bracket = bracket
	}

	switch {
	case f.RecencyDays < 0:
		return normalized{}, errs.Invalid("recency_days", "must not be negative")
	case f.RecencyDays == 0:
		n.RecencyDays = cfg.DefaultRecencyDays
	}

	kind, ok := enums.ParseCandidateKind(f.Kind)
	if !ok {
		return normalized{}, errs.Invalid("kind", "must be pet or owner")
	}
	n.kind = kind
	n.Kind = string(kind)

	switch {
	case f.Limit < 0:
		return normalized{}, errs.Invalid("limit", "must not be negative")
	case f.Limit == 0 || f.Limit > cfg.MaxResults:
		n.Limit = cfg.MaxResults
	}

	return n, nil
}

func (n normalized) hasPetPredicate() bool {
	return n.PetType != "" || n.Breed != "" || n.bracket != ""
}

// matchingPets returns the active pets that satisfy the pet-level predicates,
// including the age bracket the store could not evaluate.
func (n normalized) matchingPets(p model.Profile, now time.Time) []model.Pet {
	breed := strings.ToLower(n.Breed)
	out := make([]model.Pet, 0, len(p.Pets))
	for _, pet := range p.ActivePets() {
		if n.PetType != "" && !strings.EqualFold(pet.Type, n.PetType) {
			continue
		}
		if breed != "" && !strings.Contains(strings.ToLower(pet.Breed), breed) {
			continue
		}
		if n.bracket != "" && !inBracket(pet, n.bracket, now) {
			continue
		}
		out = append(out, pet)
	}
	return out
}

func inBracket(pet model.Pet, bracket enums.AgeBracket, now time.Time) bool {
	if pet.BirthDate != nil && !pet.BirthDate.IsZero() {
		return rules.InBirthDateWindow(*pet.BirthDate, bracket, now)
	}
	if pet.AgeYears != nil {
		return rules.InAgeYears(*pet.AgeYears, bracket)
	}
	return false
}
