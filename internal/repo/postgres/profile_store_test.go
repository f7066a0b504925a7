package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/neopath7/pethoria-matchpage-server/internal/domain/enums"
	"github.com/neopath7/pethoria-matchpage-server/internal/domain/errs"
	"github.com/neopath7/pethoria-matchpage-server/internal/domain/model"
	"github.com/neopath7/pethoria-matchpage-server/internal/services/geo"
)

func TestPredicateSQLNumbersArgsInOrder(t *testing.T) {
	center := model.Point{Lat: 47.6, Lon: -122.3}
	query, args := predicateSQL(model.PredicateQuery{
		Center:     &center,
		MaxMeters:  16093.4,
		City:       "Seattle",
		PetType:    "dog",
		Breed:      "lab_",
		ExcludeIDs: []string{"me"},
		Limit:      50,
	})

	if !strings.Contains(query, "ORDER BY $1::float8 * ACOS") {
		t.Fatalf("expected distance ordering, got %s", query)
	}
	if !strings.HasSuffix(query, fmt.Sprintf("LIMIT $%d", len(args))) {
		t.Fatalf("limit must be the last arg: %s", query)
	}
	found := false
	for _, a := range args {
		if a == `lab\_` {
			found = true
		}
	}
	if !found {
		t.Fatalf("breed must be LIKE-escaped, args=%v", args)
	}
}

func TestPredicateSQLFiltersOnDisplaySphere(t *testing.T) {
	center := model.Point{Lat: 40.7128, Lon: -74.0060}
	radius := geo.MilesToMeters(10)
	_, args := predicateSQL(model.PredicateQuery{Center: &center, MaxMeters: radius})

	sphere, ok := args[0].(float64)
	if !ok || sphere != geo.EarthRadiusMeters {
		t.Fatalf("expected display sphere radius as first arg, got %v", args[0])
	}

	// A point just inside 10 miles on screen must pass the SQL cut.
	lat := center.Lat + 0.1446
	miles, err := geo.DistanceMiles(center.Lat, center.Lon, lat, center.Lon)
	if err != nil {
		t.Fatalf("distance: %v", err)
	}
	if miles >= 10 || miles < 9.9 {
		t.Fatalf("fixture must sit just inside 10 miles, got %.4f", miles)
	}
	if d := sqlDistance(sphere, center.Lat, center.Lon, lat, center.Lon); d > radius {
		t.Fatalf("candidate shown at %.3f miles is outside the SQL radius: %.1f > %.1f", miles, d, radius)
	}
}

// sqlDistance mirrors the spherical law of cosines used in predicateSQL.
func sqlDistance(radius, lat1, lon1, lat2, lon2 float64) float64 {
	rad := func(v float64) float64 { return v * math.Pi / 180 }
	c := math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Cos(rad(lon2)-rad(lon1)) +
		math.Sin(rad(lat1))*math.Sin(rad(lat2))
	return radius * math.Acos(math.Min(1, math.Max(-1, c)))
}

func TestPredicateSQLWithoutGeoOrdersByRecency(t *testing.T) {
	query, args := predicateSQL(model.PredicateQuery{State: "WA"})
	if !strings.Contains(query, "ORDER BY p.last_active_at DESC") {
		t.Fatalf("unexpected order: %s", query)
	}
	if len(args) != 1 {
		t.Fatalf("expected one arg, got %v", args)
	}
}

func TestProfileWriteBatchReplacesOwnedRows(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	profile := model.Profile{
		ID:   "p1",
		Pets: []model.Pet{{ID: "pet1"}, {ID: "pet2"}},
		SwipeHistory: []model.SwipeEntry{
			{TargetID: "p2", Decision: enums.DecisionLike, Timestamp: now},
			{TargetID: "p3", Decision: enums.DecisionPass, Timestamp: now},
		},
		Matches: []model.MatchEntry{{MatchedProfileID: "p2", Timestamp: now, Active: false}},
	}

	batch := profileWriteBatch(profile, now)

	cleared := map[string]int{}
	inserted := map[string]int{}
	for i, st := range batch {
		sql := strings.TrimSpace(st.sql)
		for _, table := range []string{"pets", "swipes", "matches"} {
			if strings.HasPrefix(sql, "DELETE FROM "+table+" ") {
				cleared[table] = i
				if st.args[0] != "p1" {
					t.Fatalf("%s delete must be scoped to the profile, got %v", table, st.args)
				}
			}
			if strings.HasPrefix(sql, "INSERT INTO "+table+" ") {
				inserted[table]++
				if at, ok := cleared[table]; !ok || at > i {
					t.Fatalf("%s rows inserted before being cleared (statement %d)", table, i)
				}
			}
		}
	}
	if inserted["pets"] != 2 || inserted["swipes"] != 2 || inserted["matches"] != 1 {
		t.Fatalf("unexpected inserts: %v", inserted)
	}
	if len(profileWriteBatch(profile, now)) != len(batch) {
		t.Fatalf("rewriting the same profile must issue the same statements")
	}
}

func TestWrapErrMapsDeadlineToUnavailable(t *testing.T) {
	if err := wrapErr("get profile", context.DeadlineExceeded); !errors.Is(err, errs.ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
	if err := wrapErr("get profile", errors.New("syntax")); errors.Is(err, errs.ErrUnavailable) {
		t.Fatalf("unexpected unavailable: %v", err)
	}
}
