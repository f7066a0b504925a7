package geo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/neopath7/pethoria-matchpage-server/internal/config"
	"github.com/neopath7/pethoria-matchpage-server/internal/domain/errs"
	"github.com/neopath7/pethoria-matchpage-server/internal/domain/model"
)

var ErrNoCities = errors.New("no cities configured")

type ProfileLocationSaver interface {
	SaveLocation(ctx context.Context, profileID string, loc model.Location, at time.Time) error
}

type City struct {
	ID    string
	Name  string
	State string
	Lat   float64
	Lon   float64
}

type Service struct {
	cities []City
	saver  ProfileLocationSaver
	now    func() time.Time
}

func NewService(cities []config.CityConfig, saver ProfileLocationSaver) *Service {
	mapped := make([]City, 0, len(cities))
	for _, city := range cities {
		if strings.TrimSpace(city.ID) == "" || strings.TrimSpace(city.Name) == "" {
			continue
		}
		mapped = append(mapped, City{ID: city.ID, Name: city.Name, State: city.State, Lat: city.Lat, Lon: city.Lon})
	}

	return &Service{
		cities: mapped,
		saver:  saver,
		now:    time.Now,
	}
}

// UpdateProfileLocation stores the exact point and denormalizes the nearest
// configured city/state onto the profile.
func (s *Service) UpdateProfileLocation(ctx context.Context, profileID string, lat, lon float64) (model.Location, error) {
	if strings.TrimSpace(profileID) == "" {
		return model.Location{}, errs.Invalid("profile_id", "required")
	}
	if err := ValidateCoordinates(lat, lon); err != nil {
		return model.Location{}, err
	}

	loc := model.Location{Lat: lat, Lon: lon}
	if city, err := s.ResolveNearestCity(lat, lon); err == nil {
		loc.City = city.Name
		loc.State = city.State
	} else if !errors.Is(err, ErrNoCities) {
		return model.Location{}, err
	}

	if s.saver != nil {
		if err := s.saver.SaveLocation(ctx, profileID, loc, s.now().UTC()); err != nil {
			return model.Location{}, fmt.Errorf("save profile location: %w", err)
		}
	}

	return loc, nil
}

func (s *Service) ResolveNearestCity(lat, lon float64) (City, error) {
	if err := ValidateCoordinates(lat, lon); err != nil {
		return City{}, err
	}
	if len(s.cities) == 0 {
		return City{}, ErrNoCities
	}

	nearest := s.cities[0]
	bestDistance := haversine(lat, lon, nearest.Lat, nearest.Lon, earthRadiusKM)
	for _, city := range s.cities[1:] {
		distance := haversine(lat, lon, city.Lat, city.Lon, earthRadiusKM)
		if distance < bestDistance {
			bestDistance = distance
			nearest = city
		}
	}

	return nearest, nil
}
