package mongo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/neopath7/pethoria-matchpage-server/internal/domain/enums"
	"github.com/neopath7/pethoria-matchpage-server/internal/domain/errs"
	"github.com/neopath7/pethoria-matchpage-server/internal/domain/model"
	"github.com/neopath7/pethoria-matchpage-server/internal/services/geo"
)

func TestProfileDocRoundTripKeepsLonLatOrder(t *testing.T) {
	birth := time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC)
	in := model.Profile{
		ID:        "p1",
		OwnerName: "Dana",
		Location:  &model.Location{Lat: 47.6062, Lon: -122.3321, City: "Seattle", State: "WA"},
		Pets:      []model.Pet{{ID: "pet1", Name: "Rex", BirthDate: &birth, Active: true}},
		SwipeHistory: []model.SwipeEntry{
			{TargetID: "p2", Decision: enums.DecisionLike, Timestamp: birth},
		},
	}

	doc := toProfileDoc(in)
	if doc.Location.Point.Coordinates[0] != -122.3321 || doc.Location.Point.Coordinates[1] != 47.6062 {
		t.Fatalf("expected [lon, lat], got %v", doc.Location.Point.Coordinates)
	}

	out := doc.toModel()
	if out.Location.Lat != 47.6062 || out.Location.Lon != -122.3321 {
		t.Fatalf("unexpected location: %+v", out.Location)
	}
	if out.SwipeHistory[0].Decision != enums.DecisionLike {
		t.Fatalf("unexpected decision: %s", out.SwipeHistory[0].Decision)
	}
}

func TestPredicateFilterBuildsPetElemMatch(t *testing.T) {
	center := model.Point{Lat: 47.6, Lon: -122.3}
	filter := predicateFilter(model.PredicateQuery{
		Center:     &center,
		MaxMeters:  1609.34,
		City:       "Seattle",
		PetType:    "dog",
		Breed:      "lab.",
		ExcludeIDs: []string{"me"},
	})

	if _, ok := filter["location.point"]; !ok {
		t.Fatalf("expected geo predicate")
	}
	pets, ok := filter["pets"].(bson.M)
	if !ok {
		t.Fatalf("expected pets elemMatch, got %#v", filter["pets"])
	}
	elem := pets["$elemMatch"].(bson.M)
	breed := elem["breed"].(bson.M)
	if breed["$regex"] != `lab\.` {
		t.Fatalf("breed must be quoted, got %v", breed["$regex"])
	}
	if _, ok := filter["_id"]; !ok {
		t.Fatalf("expected exclusion predicate")
	}
}

func TestNearSphereCapsAtDisplayAngle(t *testing.T) {
	center := model.Point{Lat: 47.6, Lon: -122.3}
	near := nearSphere(center, geo.MilesToMeters(10))["$nearSphere"].(bson.M)

	maxDistance := near["$maxDistance"].(float64)
	got := maxDistance / mongoSphereMeters
	want := 10 / 3959.0
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("radius must span the same angle as 10 displayed miles: got %.12f want %.12f", got, want)
	}
}

func TestPredicateFilterSkipsGeoWithoutRadius(t *testing.T) {
	center := model.Point{Lat: 47.6, Lon: -122.3}
	filter := predicateFilter(model.PredicateQuery{Center: &center})
	if _, ok := filter["location.point"]; ok {
		t.Fatalf("geo predicate requires a radius")
	}
}

func TestWrapErrMapsTimeoutToUnavailable(t *testing.T) {
	err := wrapErr("find near", fmt.Errorf("op: %w", context.DeadlineExceeded))
	if !errors.Is(err, errs.ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}

	err = wrapErr("find near", errors.New("boom"))
	if errors.Is(err, errs.ErrUnavailable) {
		t.Fatalf("plain errors must not be retryable: %v", err)
	}
}
