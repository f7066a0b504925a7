package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/neopath7/pethoria-matchpage-server/internal/domain/enums"
	"github.com/neopath7/pethoria-matchpage-server/internal/domain/errs"
	"github.com/neopath7/pethoria-matchpage-server/internal/domain/model"
)

func TestFindNearOrdersByDistanceAndExcludes(t *testing.T) {
	store := NewStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seed(t, store,
		profileAt("far", 47.70, -122.33, now),
		profileAt("near", 47.61, -122.33, now),
		profileAt("excluded", 47.607, -122.332, now),
		profileAt("stale", 47.608, -122.332, now.Add(-40*24*time.Hour)),
	)

	got, err := store.FindNear(context.Background(), model.NearQuery{
		Center:      model.Point{Lat: 47.6062, Lon: -122.3321},
		MaxMeters:   16093.4,
		ExcludeIDs:  []string{"excluded"},
		ActiveSince: now.Add(-30 * 24 * time.Hour),
		Limit:       10,
	})
	if err != nil {
		t.Fatalf("find near: %v", err)
	}
	if len(got) != 2 || got[0].ID != "near" || got[1].ID != "far" {
		t.Fatalf("unexpected order: %+v", ids(got))
	}
}

func TestAppendMatchIsConditional(t *testing.T) {
	store := NewStore()
	seed(t, store, model.Profile{ID: "a"})

	entry := model.MatchEntry{MatchedProfileID: "b", Timestamp: time.Now().UTC()}
	appended, err := store.AppendMatch(context.Background(), "a", entry)
	if err != nil || !appended {
		t.Fatalf("expected first append, got %v %v", appended, err)
	}
	appended, err = store.AppendMatch(context.Background(), "a", entry)
	if err != nil || appended {
		t.Fatalf("expected second append to be a no-op, got %v %v", appended, err)
	}

	p, _ := store.GetProfile(context.Background(), "a")
	if len(p.Matches) != 1 {
		t.Fatalf("expected one match entry, got %d", len(p.Matches))
	}

	changed, err := store.DeactivateMatch(context.Background(), "a", "b")
	if err != nil || !changed {
		t.Fatalf("expected deactivation, got %v %v", changed, err)
	}
	appended, err = store.AppendMatch(context.Background(), "a", entry)
	if err != nil || !appended {
		t.Fatalf("expected append after deactivation, got %v %v", appended, err)
	}
}

func TestHasSwipedFiltersByDecision(t *testing.T) {
	store := NewStore()
	seed(t, store, model.Profile{ID: "a"})
	ctx := context.Background()

	if err := store.AppendSwipe(ctx, "a", model.SwipeEntry{TargetID: "b", Decision: enums.DecisionPass, Timestamp: time.Now()}); err != nil {
		t.Fatalf("append swipe: %v", err)
	}

	liked, err := store.HasSwiped(ctx, "a", "b", []enums.Decision{enums.DecisionLike, enums.DecisionSuperLike})
	if err != nil || liked {
		t.Fatalf("pass must not count as like: %v %v", liked, err)
	}
	passed, err := store.HasSwiped(ctx, "a", "b", []enums.Decision{enums.DecisionPass})
	if err != nil || !passed {
		t.Fatalf("expected pass to be found: %v %v", passed, err)
	}
}

func TestFailOnInjectsErrors(t *testing.T) {
	store := NewStore()
	seed(t, store, model.Profile{ID: "a"}, model.Profile{ID: "b"})
	store.FailOn("AppendMatch", "b", errs.Unavailable(context.DeadlineExceeded))

	if _, err := store.AppendMatch(context.Background(), "a", model.MatchEntry{MatchedProfileID: "b"}); err != nil {
		t.Fatalf("unexpected error for a: %v", err)
	}
	_, err := store.AppendMatch(context.Background(), "b", model.MatchEntry{MatchedProfileID: "a"})
	if !errors.Is(err, errs.ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestFindByPredicateBreedSubstringCaseInsensitive(t *testing.T) {
	store := NewStore()
	now := time.Now().UTC()
	lab := profileAt("lab", 47.6, -122.3, now)
	lab.Pets = []model.Pet{{ID: "p1", Type: "dog", Breed: "Labrador Retriever", Active: true}}
	cat := profileAt("cat", 47.6, -122.3, now)
	cat.Pets = []model.Pet{{ID: "p2", Type: "cat", Breed: "Siamese", Active: true}}
	seed(t, store, lab, cat)

	got, err := store.FindByPredicate(context.Background(), model.PredicateQuery{Breed: "labra", PetType: "DOG"})
	if err != nil {
		t.Fatalf("find by predicate: %v", err)
	}
	if len(got) != 1 || got[0].ID != "lab" {
		t.Fatalf("unexpected results: %v", ids(got))
	}
}

func seed(t *testing.T, store *Store, profiles ...model.Profile) {
	t.Helper()
	for _, p := range profiles {
		if err := store.UpsertProfile(context.Background(), p); err != nil {
			t.Fatalf("seed %s: %v", p.ID, err)
		}
	}
}

func profileAt(id string, lat, lon float64, lastActive time.Time) model.Profile {
	return model.Profile{
		ID:           id,
		OwnerName:    id,
		Location:     &model.Location{Lat: lat, Lon: lon},
		LastActiveAt: lastActive,
		Pets:         []model.Pet{{ID: id + "-pet", Name: "Rex", Active: true}},
	}
}

func ids(profiles []model.Profile) []string {
	out := make([]string, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, p.ID)
	}
	return out
}
