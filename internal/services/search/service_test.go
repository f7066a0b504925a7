package search

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/neopath7/pethoria-matchpage-server/internal/domain/enums"
	"github.com/neopath7/pethoria-matchpage-server/internal/domain/errs"
	"github.com/neopath7/pethoria-matchpage-server/internal/domain/model"
	memrepo "github.com/neopath7/pethoria-matchpage-server/internal/repo/memory"
)

var testNow = time.Date(2026, 4, 10, 15, 0, 0, 0, time.UTC)

func TestFilteredSearchSeniorBracket(t *testing.T) {
	store := memrepo.NewStore()
	eightYearsAgo := testNow.AddDate(-8, 0, 0)
	twoYearsAgo := testNow.AddDate(-2, 0, 0)

	old := profile("old", 47.61, -122.33)
	old.Pets = []model.Pet{{ID: "old-pet", Name: "Gramps", Type: "dog", BirthDate: &eightYearsAgo, Active: true}}
	young := profile("young", 47.61, -122.33)
	young.Pets = []model.Pet{{ID: "young-pet", Name: "Zip", Type: "dog", BirthDate: &twoYearsAgo, Active: true}}
	seed(t, store, profile("me", 47.6062, -122.3321), old, young)

	res, err := newTestService(store).FilteredSearch(context.Background(), Request{
		RequesterID: "me",
		Filters:     Filters{AgeBracket: "senior"},
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if res.Count != 1 || res.Matches[0].ProfileID != "old" {
		t.Fatalf("expected only the senior pet, got %+v", res.Matches)
	}
	if res.FiltersEcho.AgeBracket != "senior" {
		t.Fatalf("unexpected filters echo: %+v", res.FiltersEcho)
	}
}

func TestFilteredSearchAgeYearsFallback(t *testing.T) {
	store := memrepo.NewStore()
	five := 5
	p := profile("adult", 47.61, -122.33)
	p.Pets = []model.Pet{{ID: "x", Type: "cat", AgeYears: &five, Active: true}}
	seed(t, store, profile("me", 47.6062, -122.3321), p)

	res, err := newTestService(store).FilteredSearch(context.Background(), Request{
		RequesterID: "me",
		Filters:     Filters{AgeBracket: "adult"},
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if res.Count != 1 {
		t.Fatalf("expected the adult cat, got %+v", res.Matches)
	}
}

func TestFilteredSearchVerifiedFirstIsStablePartition(t *testing.T) {
	store := memrepo.NewStore()
	plain1 := profile("plain1", 47.61, -122.33)
	trusted1 := profile("trusted1", 47.61, -122.33)
	trusted1.Verified = true
	trusted1.Pets[0].Images = []string{"https://img/1.jpg"}
	noImage := profile("verified-no-image", 47.61, -122.33)
	noImage.Verified = true
	plain2 := profile("plain2", 47.61, -122.33)
	trusted2 := profile("trusted2", 47.61, -122.33)
	trusted2.Verified = true
	trusted2.Pets[0].Images = []string{"https://img/2.jpg"}

	seed(t, store, profile("me", 47.6062, -122.3321), plain1, trusted1, noImage, plain2, trusted2)

	res, err := newTestService(store).FilteredSearch(context.Background(), Request{
		RequesterID: "me",
		Filters:     Filters{VerifiedFirst: true, Kind: "owner"},
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	want := []string{"trusted1", "trusted2", "plain1", "verified-no-image", "plain2"}
	if len(res.Matches) != len(want) {
		t.Fatalf("unexpected results: %+v", res.Matches)
	}
	for i, id := range want {
		if res.Matches[i].ProfileID != id {
			t.Fatalf("position %d: want %s, got %s", i, id, res.Matches[i].ProfileID)
		}
	}
}

func TestFilteredSearchHardCap(t *testing.T) {
	store := memrepo.NewStore()
	profiles := []model.Profile{profile("me", 47.6062, -122.3321)}
	for i := 0; i < 70; i++ {
		profiles = append(profiles, profile("p"+strconv.Itoa(i), 47.61, -122.33))
	}
	seed(t, store, profiles...)

	res, err := newTestService(store).FilteredSearch(context.Background(), Request{
		RequesterID: "me",
		Filters:     Filters{Limit: 1000},
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if res.Count != 50 {
		t.Fatalf("expected hard cap of 50, got %d", res.Count)
	}
}

func TestFilteredSearchExcludesRequesterAndSwiped(t *testing.T) {
	store := memrepo.NewStore()
	me := profile("me", 47.6062, -122.3321)
	me.SwipeHistory = []model.SwipeEntry{{TargetID: "seen", Decision: enums.DecisionPass, Timestamp: testNow}}
	seed(t, store, me, profile("seen", 47.61, -122.33), profile("new", 47.61, -122.33))

	res, err := newTestService(store).FilteredSearch(context.Background(), Request{RequesterID: "me"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if res.Count != 1 || res.Matches[0].ProfileID != "new" {
		t.Fatalf("unexpected results: %+v", res.Matches)
	}
}

func TestFilteredSearchGeoAndBreed(t *testing.T) {
	store := memrepo.NewStore()
	lab := profile("lab", 47.61, -122.33)
	lab.Pets[0].Breed = "Labrador Retriever"
	farLab := profile("far-lab", 45.52, -122.68)
	farLab.Pets[0].Breed = "labrador"
	poodle := profile("poodle", 47.61, -122.33)
	poodle.Pets[0].Breed = "Poodle"
	seed(t, store, profile("me", 47.6062, -122.3321), lab, farLab, poodle)

	radius := 25.0
	res, err := newTestService(store).FilteredSearch(context.Background(), Request{
		RequesterID: "me",
		Point:       &model.Point{Lat: 47.6062, Lon: -122.3321},
		Filters:     Filters{RadiusMiles: &radius, Breed: "LABRA"},
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if res.Count != 1 || res.Matches[0].ProfileID != "lab" {
		t.Fatalf("unexpected results: %+v", res.Matches)
	}
	if res.Matches[0].DistanceText == "" {
		t.Fatalf("expected display distance")
	}
}

func TestFilteredSearchRejectsMalformedFiltersWithoutStoreAccess(t *testing.T) {
	store := memrepo.NewStore()
	seed(t, store, profile("me", 47.6062, -122.3321))
	svc := newTestService(store)

	zero := 0.0
	ten := 10.0
	cases := []Request{
		{RequesterID: "me", Filters: Filters{AgeBracket: "ancient"}},
		{RequesterID: "me", Filters: Filters{RadiusMiles: &zero}},
		{RequesterID: "me", Point: &model.Point{Lat: 47.6, Lon: -122.3}},
		{RequesterID: "me", Point: &model.Point{Lat: 91, Lon: 0}, Filters: Filters{RadiusMiles: &ten}},
		{RequesterID: "me", Filters: Filters{RecencyDays: -1}},
		{RequesterID: "me", Filters: Filters{Kind: "fish"}},
	}
	for _, req := range cases {
		if _, err := svc.FilteredSearch(context.Background(), req); !errors.Is(err, errs.ErrValidation) {
			t.Fatalf("expected validation error for %+v, got %v", req.Filters, err)
		}
	}
	if store.Calls("GetProfile") != 0 || store.Calls("FindByPredicate") != 0 {
		t.Fatalf("malformed filters must not reach the store")
	}
}

func TestFilteredSearchRadiusWithoutAnyLocation(t *testing.T) {
	store := memrepo.NewStore()
	seed(t, store, model.Profile{ID: "me", LastActiveAt: testNow})

	radius := 5.0
	_, err := newTestService(store).FilteredSearch(context.Background(), Request{
		RequesterID: "me",
		Filters:     Filters{RadiusMiles: &radius},
	})
	if !errors.Is(err, errs.ErrLocationNotSet) {
		t.Fatalf("expected location not set, got %v", err)
	}
}

func newTestService(store *memrepo.Store) *Service {
	svc := NewService(Dependencies{Store: store}, Config{})
	svc.now = func() time.Time { return testNow }
	return svc
}

func profile(id string, lat, lon float64) model.Profile {
	return model.Profile{
		ID:           id,
		OwnerName:    "Owner " + id,
		Location:     &model.Location{Lat: lat, Lon: lon, City: "Seattle", State: "WA"},
		LastActiveAt: testNow.Add(-time.Hour),
		Pets:         []model.Pet{{ID: id + "-pet", Name: "Pet " + id, Type: "dog", Active: true}},
	}
}

func seed(t *testing.T, store *memrepo.Store, profiles ...model.Profile) {
	t.Helper()
	for _, p := range profiles {
		if err := store.UpsertProfile(context.Background(), p); err != nil {
			t.Fatalf("seed %s: %v", p.ID, err)
		}
	}
}
