package geo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/neopath7/pethoria-matchpage-server/internal/config"
	"github.com/neopath7/pethoria-matchpage-server/internal/domain/errs"
	"github.com/neopath7/pethoria-matchpage-server/internal/domain/model"
)

func TestResolveNearestCity(t *testing.T) {
	svc := NewService(config.Default().Remote.Cities, nil)

	tests := []struct {
		name   string
		lat    float64
		lon    float64
		cityID string
	}{
		{name: "seattle", lat: 47.61, lon: -122.33, cityID: "seattle"},
		{name: "tacoma", lat: 47.25, lon: -122.44, cityID: "tacoma"},
		{name: "portland", lat: 45.52, lon: -122.68, cityID: "portland"},
		{name: "spokane", lat: 47.66, lon: -117.42, cityID: "spokane"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			city, err := svc.ResolveNearestCity(tt.lat, tt.lon)
			if err != nil {
				t.Fatalf("resolve nearest city: %v", err)
			}
			if city.ID != tt.cityID {
				t.Fatalf("unexpected city id: got %s want %s", city.ID, tt.cityID)
			}
		})
	}
}

func TestUpdateProfileLocationDenormalizesCity(t *testing.T) {
	saver := &locationSaverStub{}
	svc := NewService(config.Default().Remote.Cities, saver)
	svc.now = func() time.Time { return time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC) }

	loc, err := svc.UpdateProfileLocation(context.Background(), "p1", 47.6062, -122.3321)
	if err != nil {
		t.Fatalf("update location: %v", err)
	}
	if loc.City != "Seattle" || loc.State != "WA" {
		t.Fatalf("unexpected denormalized address: %+v", loc)
	}
	if saver.profileID != "p1" || saver.loc.Lat != 47.6062 {
		t.Fatalf("unexpected saved location: %s %+v", saver.profileID, saver.loc)
	}
}

func TestUpdateProfileLocationRejectsOutOfRange(t *testing.T) {
	saver := &locationSaverStub{}
	svc := NewService(config.Default().Remote.Cities, saver)

	_, err := svc.UpdateProfileLocation(context.Background(), "p1", 91, 10)
	if !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if saver.calls != 0 {
		t.Fatalf("saver must not be called for invalid coordinates")
	}
}

type locationSaverStub struct {
	calls     int
	profileID string
	loc       model.Location
}

func (s *locationSaverStub) SaveLocation(_ context.Context, profileID string, loc model.Location, _ time.Time) error {
	s.calls++
	s.profileID = profileID
	s.loc = loc
	return nil
}
