package mongo

import (
	"time"

	"github.com/neopath7/pethoria-matchpage-server/internal/domain/enums"
	"github.com/neopath7/pethoria-matchpage-server/internal/domain/model"
)

type profileDoc struct {
	ID           string          `bson:"_id"`
	OwnerName    string          `bson:"owner_name"`
	Verified     bool            `bson:"verified"`
	Location     *locationDoc    `bson:"location,omitempty"`
	Pets         []petDoc        `bson:"pets"`
	SwipeHistory []swipeEntryDoc `bson:"swipe_history"`
	Matches      []matchEntryDoc `bson:"matches"`
	LastActiveAt time.Time       `bson:"last_active_at"`
	CreatedAt    time.Time       `bson:"created_at"`
}

type locationDoc struct {
	Point   geoPoint `bson:"point"`
	City    string   `bson:"city"`
	State   string   `bson:"state"`
	Address string   `bson:"address"`
}

// geoPoint is a GeoJSON point; coordinates are [lon, lat].
type geoPoint struct {
	Type        string    `bson:"type"`
	Coordinates []float64 `bson:"coordinates"`
}

type petDoc struct {
	ID          string     `bson:"id"`
	Name        string     `bson:"name"`
	Type        string     `bson:"type"`
	Breed       string     `bson:"breed"`
	BirthDate   *time.Time `bson:"birth_date,omitempty"`
	AgeYears    *int       `bson:"age_years,omitempty"`
	Description string     `bson:"description"`
	Images      []string   `bson:"images"`
	Active      bool       `bson:"active"`
}

type swipeEntryDoc struct {
	TargetID  string    `bson:"target_id"`
	PetID     string    `bson:"pet_id,omitempty"`
	Decision  string    `bson:"decision"`
	Timestamp time.Time `bson:"timestamp"`
}

type matchEntryDoc struct {
	MatchedProfileID string    `bson:"matched_profile_id"`
	Timestamp        time.Time `bson:"timestamp"`
	Active           bool      `bson:"active"`
}

func newPoint(lat, lon float64) geoPoint {
	return geoPoint{Type: "Point", Coordinates: []float64{lon, lat}}
}

func toProfileDoc(p model.Profile) profileDoc {
	doc := profileDoc{
		ID:           p.ID,
		OwnerName:    p.OwnerName,
		Verified:     p.Verified,
		Pets:         make([]petDoc, 0, len(p.Pets)),
		SwipeHistory: make([]swipeEntryDoc, 0, len(p.SwipeHistory)),
		Matches:      make([]matchEntryDoc, 0, len(p.Matches)),
		LastActiveAt: p.LastActiveAt.UTC(),
		CreatedAt:    p.CreatedAt.UTC(),
	}
	if p.Location != nil {
		loc := toLocationDoc(*p.Location)
		doc.Location = &loc
	}
	for _, pet := range p.Pets {
		doc.Pets = append(doc.Pets, petDoc{
			ID:          pet.ID,
			Name:        pet.Name,
			Type:        pet.Type,
			Breed:       pet.Breed,
			BirthDate:   pet.BirthDate,
			AgeYears:    pet.AgeYears,
			Description: pet.Description,
			Images:      pet.Images,
			Active:      pet.Active,
		})
	}
	for _, s := range p.SwipeHistory {
		doc.SwipeHistory = append(doc.SwipeHistory, toSwipeDoc(s))
	}
	for _, m := range p.Matches {
		doc.Matches = append(doc.Matches, toMatchDoc(m))
	}
	return doc
}

func toLocationDoc(loc model.Location) locationDoc {
	return locationDoc{
		Point:   newPoint(loc.Lat, loc.Lon),
		City:    loc.City,
		State:   loc.State,
		Address: loc.Address,
	}
}

func toSwipeDoc(s model.SwipeEntry) swipeEntryDoc {
	return swipeEntryDoc{
		TargetID:  s.TargetID,
		PetID:     s.PetID,
		Decision:  string(s.Decision),
		Timestamp: s.Timestamp.UTC(),
	}
}

func toMatchDoc(m model.MatchEntry) matchEntryDoc {
	return matchEntryDoc{
		MatchedProfileID: m.MatchedProfileID,
		Timestamp:        m.Timestamp.UTC(),
		Active:           m.Active,
	}
}

func (d profileDoc) toModel() model.Profile {
	p := model.Profile{
		ID:           d.ID,
		OwnerName:    d.OwnerName,
		Verified:     d.Verified,
		Pets:         make([]model.Pet, 0, len(d.Pets)),
		SwipeHistory: make([]model.SwipeEntry, 0, len(d.SwipeHistory)),
		Matches:      make([]model.MatchEntry, 0, len(d.Matches)),
		LastActiveAt: d.LastActiveAt.UTC(),
		CreatedAt:    d.CreatedAt.UTC(),
	}
	if d.Location != nil && len(d.Location.Point.Coordinates) == 2 {
		p.Location = &model.Location{
			Lat:     d.Location.Point.Coordinates[1],
			Lon:     d.Location.Point.Coordinates[0],
			City:    d.Location.City,
			State:   d.Location.State,
			Address: d.Location.Address,
		}
	}
	for _, pet := range d.Pets {
		p.Pets = append(p.Pets, model.Pet{
			ID:          pet.ID,
			Name:        pet.Name,
			Type:        pet.Type,
			Breed:       pet.Breed,
			BirthDate:   pet.BirthDate,
			AgeYears:    pet.AgeYears,
			Description: pet.Description,
			Images:      pet.Images,
			Active:      pet.Active,
		})
	}
	for _, s := range d.SwipeHistory {
		p.SwipeHistory = append(p.SwipeHistory, model.SwipeEntry{
			TargetID:  s.TargetID,
			PetID:     s.PetID,
			Decision:  enums.Decision(s.Decision),
			Timestamp: s.Timestamp.UTC(),
		})
	}
	for _, m := range d.Matches {
		p.Matches = append(p.Matches, model.MatchEntry{
			MatchedProfileID: m.MatchedProfileID,
			Timestamp:        m.Timestamp.UTC(),
			Active:           m.Active,
		})
	}
	return p
}
