package discovery

import (
	"context"
	"time"

	"github.com/neopath7/pethoria-matchpage-server/internal/domain/enums"
	"github.com/neopath7/pethoria-matchpage-server/internal/domain/model"
	"github.com/neopath7/pethoria-matchpage-server/internal/services/geo"
)

type ImageResolver interface {
	Resolve(ctx context.Context, ref string) string
}

// Shaper turns stored profiles into candidate records. Input order is kept.
type Shaper struct {
	images ImageResolver
}

func NewShaper(images ImageResolver) *Shaper {
	return &Shaper{images: images}
}

func (s *Shaper) Shape(ctx context.Context, profiles []model.Profile, origin *model.Point, kind enums.CandidateKind, now time.Time) []model.Candidate {
	out := make([]model.Candidate, 0, len(profiles))
	for _, p := range profiles {
		distance, text := displayDistance(origin, p)

		if kind == enums.CandidateKindOwner {
			c := baseCandidate(p, distance, text)
			c.Ref = model.CandidateRef{ProfileID: p.ID}
			active := p.ActivePets()
			c.PetCount = len(active)
			if len(active) > 0 {
				c.PetName = active[0].Name
				c.PetType = active[0].Type
			}
			c.Image = s.resolve(ctx, p.PrimaryImage())
			out = append(out, c)
			continue
		}

		for _, pet := range p.ActivePets() {
			c := baseCandidate(p, distance, text)
			c.Ref = model.CandidateRef{ProfileID: p.ID, PetID: pet.ID}
			c.PetID = pet.ID
			c.PetName = pet.Name
			c.PetType = pet.Type
			c.Breed = pet.Breed
			c.Description = pet.Description
			c.PetCount = 1
			if age, ok := pet.AgeAt(now); ok {
				c.AgeYears = &age
			}
			if len(pet.Images) > 0 {
				c.Image = s.resolve(ctx, pet.Images[0])
			}
			out = append(out, c)
		}
	}
	return out
}

func (s *Shaper) resolve(ctx context.Context, ref string) string {
	if ref == "" {
		return ""
	}
	if s == nil || s.images == nil {
		return ref
	}
	return s.images.Resolve(ctx, ref)
}

func baseCandidate(p model.Profile, distance *float64, text string) model.Candidate {
	c := model.Candidate{
		ProfileID:     p.ID,
		OwnerName:     p.OwnerName,
		Verified:      p.Verified,
		DistanceMiles: distance,
		DistanceText:  text,
	}
	if p.Location != nil {
		c.City = p.Location.City
		c.State = p.Location.State
	}
	return c
}

func displayDistance(origin *model.Point, p model.Profile) (*float64, string) {
	if origin == nil || !p.HasLocation() {
		return nil, ""
	}
	miles, err := geo.DistanceMiles(origin.Lat, origin.Lon, p.Location.Lat, p.Location.Lon)
	if err != nil {
		return nil, ""
	}
	return &miles, geo.FormatMiles(miles)
}
