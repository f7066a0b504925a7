package discovery

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/neopath7/pethoria-matchpage-server/internal/domain/enums"
	"github.com/neopath7/pethoria-matchpage-server/internal/domain/errs"
	"github.com/neopath7/pethoria-matchpage-server/internal/domain/model"
	"github.com/neopath7/pethoria-matchpage-server/internal/domain/rules"
	"github.com/neopath7/pethoria-matchpage-server/internal/services/geo"
)

const (
	defaultRadiusMiles = 10
	defaultLimit       = 20
	maxLimit           = 50
)

type ProfileStore interface {
	GetProfile(ctx context.Context, id string) (model.Profile, error)
	FindNear(ctx context.Context, q model.NearQuery) ([]model.Profile, error)
}

type Metrics interface {
	ObserveCandidates(kind string, n int)
}

type Config struct {
	DefaultRadiusMiles float64
	DefaultLimit       int
	MaxLimit           int
}

type Request struct {
	RequesterID string
	// RadiusMiles is nil when the caller did not send one.
	RadiusMiles *float64
	Limit       int
	Kind        string
}

type Result struct {
	Candidates []model.Candidate
	Total      int
}

type Service struct {
	store   ProfileStore
	shaper  *Shaper
	metrics Metrics
	logger  *zap.Logger
	cfg     Config
	now     func() time.Time
}

type Dependencies struct {
	Store   ProfileStore
	Images  ImageResolver
	Metrics Metrics
	Logger  *zap.Logger
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.DefaultRadiusMiles <= 0 {
		cfg.DefaultRadiusMiles = defaultRadiusMiles
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = maxLimit
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = defaultLimit
	}
	if cfg.DefaultLimit > cfg.MaxLimit {
		cfg.DefaultLimit = cfg.MaxLimit
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		store:   deps.Store,
		shaper:  NewShaper(deps.Images),
		metrics: deps.Metrics,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}
}

func (s *Service) DiscoverNearby(ctx context.Context, req Request) (Result, error) {
	requesterID := strings.TrimSpace(req.RequesterID)
	if requesterID == "" {
		return Result{}, errs.Invalid("requester_id", "is required")
	}

	radius := s.cfg.DefaultRadiusMiles
	if req.RadiusMiles != nil {
		radius = *req.RadiusMiles
		if math.IsNaN(radius) || math.IsInf(radius, 0) || radius <= 0 {
			return Result{}, errs.Invalid("radius", "must be greater than 0")
		}
	}

	limit, err := s.normalizeLimit(req.Limit)
	if err != nil {
		return Result{}, err
	}

	kind, ok := enums.ParseCandidateKind(req.Kind)
	if !ok {
		return Result{}, errs.Invalid("kind", "must be pet or owner")
	}

	if s.store == nil {
		return Result{}, fmt.Errorf("discovery store is not configured")
	}

	requester, err := s.store.GetProfile(ctx, requesterID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return Result{}, fmt.Errorf("requester %s: %w", requesterID, errs.ErrNotFound)
		}
		return Result{}, err
	}
	if !requester.HasLocation() {
		return Result{}, errs.LocationNotSetError{ProfileID: requesterID}
	}

	now := s.now().UTC()
	origin := model.Point{Lat: requester.Location.Lat, Lon: requester.Location.Lon}

	profiles, err := s.store.FindNear(ctx, model.NearQuery{
		Center:      origin,
		MaxMeters:   geo.MilesToMeters(radius),
		ExcludeIDs:  ExclusionSet(requester),
		ActiveSince: rules.ActiveSince(now),
		Limit:       limit,
	})
	if err != nil {
		return Result{}, err
	}

	candidates := s.shaper.Shape(ctx, profiles, &origin, kind, now)
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	if s.metrics != nil {
		s.metrics.ObserveCandidates(string(kind), len(candidates))
	}
	s.logger.Debug("discover nearby",
		zap.String("requester_id", requesterID),
		zap.Float64("radius_miles", radius),
		zap.String("kind", string(kind)),
		zap.Int("profiles", len(profiles)),
		zap.Int("candidates", len(candidates)),
	)

	return Result{Candidates: candidates, Total: len(candidates)}, nil
}

func (s *Service) normalizeLimit(limit int) (int, error) {
	switch {
	case limit < 0:
		return 0, errs.Invalid("limit", "must not be negative")
	case limit == 0:
		return s.cfg.DefaultLimit, nil
	case limit > s.cfg.MaxLimit:
		return s.cfg.MaxLimit, nil
	default:
		return limit, nil
	}
}

// ExclusionSet is the requester plus every profile it has swiped on,
// whatever the decision.
func ExclusionSet(requester model.Profile) []string {
	swiped := requester.SwipedIDs()
	out := make([]string, 0, len(swiped)+1)
	out = append(out, requester.ID)
	for _, id := range swiped {
		if id != requester.ID {
			out = append(out, id)
		}
	}
	return out
}
