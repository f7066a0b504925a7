package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/neopath7/pethoria-matchpage-server/internal/domain/enums"
	"github.com/neopath7/pethoria-matchpage-server/internal/domain/errs"
	"github.com/neopath7/pethoria-matchpage-server/internal/domain/model"
	"github.com/neopath7/pethoria-matchpage-server/internal/services/discovery"
	"github.com/neopath7/pethoria-matchpage-server/internal/services/geo"
)

const (
	maxResults         = 50
	defaultRecencyDays = 30
	// overfetch leaves room for rows the age post-filter drops.
	overfetch = 4
)

type ProfileStore interface {
	GetProfile(ctx context.Context, id string) (model.Profile, error)
	FindByPredicate(ctx context.Context, q model.PredicateQuery) ([]model.Profile, error)
}

type Config struct {
	MaxResults         int
	DefaultRecencyDays int
}

type Request struct {
	RequesterID string
	Point       *model.Point
	Filters     Filters
}

type Result struct {
	Matches     []model.Candidate
	Count       int
	FiltersEcho Filters
}

type Service struct {
	store  ProfileStore
	shaper *discovery.Shaper
	logger *zap.Logger
	cfg    Config
	now    func() time.Time
}

type Dependencies struct {
	Store  ProfileStore
	Images discovery.ImageResolver
	Logger *zap.Logger
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.MaxResults <= 0 || cfg.MaxResults > maxResults {
		cfg.MaxResults = maxResults
	}
	if cfg.DefaultRecencyDays <= 0 {
		cfg.DefaultRecencyDays = defaultRecencyDays
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  deps.Store,
		shaper: discovery.NewShaper(deps.Images),
		logger: logger,
		cfg:    cfg,
		now:    time.Now,
	}
}

func (s *Service) FilteredSearch(ctx context.Context, req Request) (Result, error) {
	requesterID := strings.TrimSpace(req.RequesterID)
	if requesterID == "" {
		return Result{}, errs.Invalid("requester_id", "is required")
	}

	filters, err := normalizeFilters(req.Filters, req.Point, s.cfg)
	if err != nil {
		return Result{}, err
	}

	if s.store == nil {
		return Result{}, fmt.Errorf("search store is not configured")
	}

	requester, err := s.store.GetProfile(ctx, requesterID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return Result{}, fmt.Errorf("requester %s: %w", requesterID, errs.ErrNotFound)
		}
		return Result{}, err
	}

	origin := req.Point
	if origin == nil && requester.HasLocation() {
		origin = &model.Point{Lat: requester.Location.Lat, Lon: requester.Location.Lon}
	}
	if filters.RadiusMiles != nil && origin == nil {
		return Result{}, errs.LocationNotSetError{ProfileID: requesterID}
	}

	now := s.now().UTC()
	query := model.PredicateQuery{
		City:        filters.City,
		State:       filters.State,
		PetType:     filters.PetType,
		Breed:       filters.Breed,
		ActiveSince: now.AddDate(0, 0, -filters.RecencyDays),
		ExcludeIDs:  discovery.ExclusionSet(requester),
		Limit:       filters.Limit,
	}
	if filters.RadiusMiles != nil {
		query.Center = origin
		query.MaxMeters = geo.MilesToMeters(*filters.RadiusMiles)
	}
	if filters.bracket != "" {
		query.Limit = filters.Limit * overfetch
	}

	profiles, err := s.store.FindByPredicate(ctx, query)
	if err != nil {
		return Result{}, err
	}

	kept := make([]model.Profile, 0, len(profiles))
	for _, p := range profiles {
		if !filters.hasPetPredicate() {
			kept = append(kept, p)
			continue
		}
		pets := filters.matchingPets(p, now)
		if len(pets) == 0 {
			continue
		}
		if filters.kind == enums.CandidateKindPet {
			p.Pets = pets
		}
		kept = append(kept, p)
	}

	if filters.VerifiedFirst {
		prioritizeVerified(kept)
	}

	candidates := s.shaper.Shape(ctx, kept, origin, filters.kind, now)
	if len(candidates) > filters.Limit {
		candidates = candidates[:filters.Limit]
	}

	s.logger.Debug("filtered search",
		zap.String("requester_id", requesterID),
		zap.Int("fetched", len(profiles)),
		zap.Int("returned", len(candidates)),
	)

	return Result{
		Matches:     candidates,
		Count:       len(candidates),
		FiltersEcho: filters.Filters,
	}, nil
}

// prioritizeVerified moves verified profiles with at least one image ahead of
// the rest, keeping relative order inside both groups.
func prioritizeVerified(profiles []model.Profile) {
	sort.SliceStable(profiles, func(i, j int) bool {
		return isTrusted(profiles[i]) && !isTrusted(profiles[j])
	})
}

func isTrusted(p model.Profile) bool {
	return p.Verified && p.HasImage()
}
