package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/neopath7/pethoria-matchpage-server/internal/domain/enums"
	"github.com/neopath7/pethoria-matchpage-server/internal/domain/errs"
	"github.com/neopath7/pethoria-matchpage-server/internal/domain/model"
	"github.com/neopath7/pethoria-matchpage-server/internal/services/geo"
)

// Store is an in-process Profile Store used by tests and the memory driver.
// A single mutex serializes every read-modify-write, which gives the same
// per-document atomicity the persistent drivers get from the database.
type Store struct {
	mu       sync.Mutex
	profiles map[string]*model.Profile
	order    []string

	calls    map[string]int
	failures map[string]error
}

func NewStore() *Store {
	return &Store{
		profiles: make(map[string]*model.Profile),
		calls:    make(map[string]int),
		failures: make(map[string]error),
	}
}

// FailOn makes the named operation return err for the given profile id.
// An empty profile id matches every call of that operation.
func (s *Store) FailOn(op, profileID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[failureKey(op, profileID)] = err
}

func (s *Store) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[string]error)
}

// Calls returns how many times op was invoked.
func (s *Store) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *Store) UpsertProfile(_ context.Context, profile model.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["UpsertProfile"]++

	if profile.ID == "" {
		return errs.Invalid("id", "profile id is required")
	}
	if _, ok := s.profiles[profile.ID]; !ok {
		s.order = append(s.order, profile.ID)
	}
	cp := cloneProfile(profile)
	s.profiles[profile.ID] = &cp
	return nil
}

func (s *Store) GetProfile(_ context.Context, id string) (model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["GetProfile"]++

	if err := s.failure("GetProfile", id); err != nil {
		return model.Profile{}, err
	}
	p, ok := s.profiles[id]
	if !ok {
		return model.Profile{}, errs.ErrNotFound
	}
	return cloneProfile(*p), nil
}

func (s *Store) GetProfiles(_ context.Context, ids []string) (map[string]model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["GetProfiles"]++

	if err := s.failure("GetProfiles", ""); err != nil {
		return nil, err
	}
	out := make(map[string]model.Profile, len(ids))
	for _, id := range ids {
		if p, ok := s.profiles[id]; ok {
			out[id] = cloneProfile(*p)
		}
	}
	return out, nil
}

func (s *Store) FindNear(_ context.Context, q model.NearQuery) ([]model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["FindNear"]++

	if err := s.failure("FindNear", ""); err != nil {
		return nil, err
	}

	exclude := toSet(q.ExcludeIDs)
	type hit struct {
		profile  model.Profile
		distance float64
	}
	hits := make([]hit, 0)
	for _, id := range s.order {
		p := s.profiles[id]
		if _, skip := exclude[id]; skip {
			continue
		}
		if !p.HasLocation() || p.LastActiveAt.Before(q.ActiveSince) {
			continue
		}
		miles, err := geo.DistanceMiles(q.Center.Lat, q.Center.Lon, p.Location.Lat, p.Location.Lon)
		if err != nil {
			continue
		}
		if geo.MilesToMeters(miles) > q.MaxMeters {
			continue
		}
		hits = append(hits, hit{profile: cloneProfile(*p), distance: miles})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].distance < hits[j].distance })
	if q.Limit > 0 && len(hits) > q.Limit {
		hits = hits[:q.Limit]
	}

	out := make([]model.Profile, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.profile)
	}
	return out, nil
}

func (s *Store) FindByPredicate(_ context.Context, q model.PredicateQuery) ([]model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["FindByPredicate"]++

	if err := s.failure("FindByPredicate", ""); err != nil {
		return nil, err
	}

	exclude := toSet(q.ExcludeIDs)
	type hit struct {
		profile  model.Profile
		distance float64
	}
	hits := make([]hit, 0)
	for _, id := range s.order {
		p := s.profiles[id]
		if _, skip := exclude[id]; skip {
			continue
		}
		if !q.ActiveSince.IsZero() && p.LastActiveAt.Before(q.ActiveSince) {
			continue
		}
		if !matchesLocation(*p, q) || !matchesPets(*p, q) {
			continue
		}
		var distance float64
		if q.HasGeo() {
			if !p.HasLocation() {
				continue
			}
			miles, err := geo.DistanceMiles(q.Center.Lat, q.Center.Lon, p.Location.Lat, p.Location.Lon)
			if err != nil || geo.MilesToMeters(miles) > q.MaxMeters {
				continue
			}
			distance = miles
		}
		hits = append(hits, hit{profile: cloneProfile(*p), distance: distance})
	}

	if q.HasGeo() {
		sort.SliceStable(hits, func(i, j int) bool { return hits[i].distance < hits[j].distance })
	}
	if q.Limit > 0 && len(hits) > q.Limit {
		hits = hits[:q.Limit]
	}

	out := make([]model.Profile, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.profile)
	}
	return out, nil
}

func (s *Store) AppendSwipe(_ context.Context, profileID string, entry model.SwipeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["AppendSwipe"]++

	if err := s.failure("AppendSwipe", profileID); err != nil {
		return err
	}
	p, ok := s.profiles[profileID]
	if !ok {
		return errs.ErrNotFound
	}
	p.SwipeHistory = append(p.SwipeHistory, entry)
	if entry.Timestamp.After(p.LastActiveAt) {
		p.LastActiveAt = entry.Timestamp
	}
	return nil
}

func (s *Store) HasSwiped(_ context.Context, ownerID, targetID string, decisions []enums.Decision) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["HasSwiped"]++

	if err := s.failure("HasSwiped", ownerID); err != nil {
		return false, err
	}
	p, ok := s.profiles[ownerID]
	if !ok {
		return false, nil
	}
	for _, entry := range p.SwipeHistory {
		if entry.TargetID != targetID {
			continue
		}
		for _, d := range decisions {
			if entry.Decision == d {
				return true, nil
			}
		}
	}
	return false, nil
}

// AppendMatch appends only when no active match to the same counterpart exists.
func (s *Store) AppendMatch(_ context.Context, profileID string, entry model.MatchEntry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["AppendMatch"]++

	if err := s.failure("AppendMatch", profileID); err != nil {
		return false, err
	}
	p, ok := s.profiles[profileID]
	if !ok {
		return false, errs.ErrNotFound
	}
	if _, exists := p.ActiveMatchTo(entry.MatchedProfileID); exists {
		return false, nil
	}
	entry.Active = true
	p.Matches = append(p.Matches, entry)
	return true, nil
}

func (s *Store) DeactivateMatch(_ context.Context, profileID, targetID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["DeactivateMatch"]++

	if err := s.failure("DeactivateMatch", profileID); err != nil {
		return false, err
	}
	p, ok := s.profiles[profileID]
	if !ok {
		return false, errs.ErrNotFound
	}
	changed := false
	for i := range p.Matches {
		if p.Matches[i].Active && p.Matches[i].MatchedProfileID == targetID {
			p.Matches[i].Active = false
			changed = true
		}
	}
	return changed, nil
}

func (s *Store) FindMatchedBy(_ context.Context, profileID string) ([]model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["FindMatchedBy"]++

	if err := s.failure("FindMatchedBy", profileID); err != nil {
		return nil, err
	}
	out := make([]model.Profile, 0)
	for _, id := range s.order {
		p := s.profiles[id]
		if _, ok := p.ActiveMatchTo(profileID); ok {
			out = append(out, cloneProfile(*p))
		}
	}
	return out, nil
}

func (s *Store) SaveLocation(_ context.Context, profileID string, loc model.Location, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["SaveLocation"]++

	if err := s.failure("SaveLocation", profileID); err != nil {
		return err
	}
	p, ok := s.profiles[profileID]
	if !ok {
		return errs.ErrNotFound
	}
	l := loc
	p.Location = &l
	if at.After(p.LastActiveAt) {
		p.LastActiveAt = at
	}
	return nil
}

func (s *Store) Ping(context.Context) error {
	return nil
}

func (s *Store) failure(op, profileID string) error {
	if err, ok := s.failures[failureKey(op, profileID)]; ok {
		return err
	}
	if err, ok := s.failures[failureKey(op, "")]; ok {
		return err
	}
	return nil
}

func failureKey(op, profileID string) string {
	return op + "|" + profileID
}

func matchesLocation(p model.Profile, q model.PredicateQuery) bool {
	if q.City == "" && q.State == "" {
		return true
	}
	if p.Location == nil {
		return false
	}
	if q.City != "" && !strings.EqualFold(p.Location.City, q.City) {
		return false
	}
	if q.State != "" && !strings.EqualFold(p.Location.State, q.State) {
		return false
	}
	return true
}

// matchesPets requires a single active pet to satisfy both type and breed.
func matchesPets(p model.Profile, q model.PredicateQuery) bool {
	if q.PetType == "" && q.Breed == "" {
		return true
	}
	breed := strings.ToLower(q.Breed)
	for _, pet := range p.Pets {
		if !pet.Active {
			continue
		}
		if q.PetType != "" && !strings.EqualFold(pet.Type, q.PetType) {
			continue
		}
		if breed != "" && !strings.Contains(strings.ToLower(pet.Breed), breed) {
			continue
		}
		return true
	}
	return false
}

func toSet(ids []string) map[string]struct{} {
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

func cloneProfile(p model.Profile) model.Profile {
	out := p
	if p.Location != nil {
		loc := *p.Location
		out.Location = &loc
	}
	out.Pets = make([]model.Pet, len(p.Pets))
	for i, pet := range p.Pets {
		cp := pet
		cp.Images = append([]string(nil), pet.Images...)
		if pet.BirthDate != nil {
			bd := *pet.BirthDate
			cp.BirthDate = &bd
		}
		if pet.AgeYears != nil {
			age := *pet.AgeYears
			cp.AgeYears = &age
		}
		out.Pets[i] = cp
	}
	out.SwipeHistory = append([]model.SwipeEntry(nil), p.SwipeHistory...)
	out.Matches = append([]model.MatchEntry(nil), p.Matches...)
	return out
}
