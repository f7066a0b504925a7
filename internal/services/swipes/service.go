package swipes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/neopath7/pethoria-matchpage-server/internal/domain/enums"
	"github.com/neopath7/pethoria-matchpage-server/internal/domain/errs"
	"github.com/neopath7/pethoria-matchpage-server/internal/domain/model"
)

type TooFastError struct {
	RetryAfterSec int64
}

func (e TooFastError) Error() string {
	return "too fast"
}

func (e TooFastError) RetryAfter() int64 {
	if e.RetryAfterSec <= 0 {
		return 1
	}
	return e.RetryAfterSec
}

func IsTooFast(err error) (*TooFastError, bool) {
	var tf TooFastError
	if errors.As(err, &tf) {
		return &tf, true
	}
	return nil, false
}

type ProfileStore interface {
	GetProfile(ctx context.Context, id string) (model.Profile, error)
	AppendSwipe(ctx context.Context, profileID string, entry model.SwipeEntry) error
}

type MatchDetector interface {
	Detect(ctx context.Context, actorID, targetID string) (bool, error)
}

type RateLimiter interface {
	AllowSwipe(ctx context.Context, profileID string) (int64, bool, error)
	RetryAfterSwipe(ctx context.Context, profileID string) (int64, error)
}

type Metrics interface {
	ObserveSwipe(decision string)
}

type SwipeResult struct {
	IsMatch  bool
	Decision enums.Decision
}

type LimitState struct {
	CanSwipe      bool
	RetryAfterSec int64
}

type Service struct {
	store       ProfileStore
	detector    MatchDetector
	rateLimiter RateLimiter
	metrics     Metrics
	logger      *zap.Logger
	now         func() time.Time
}

type Dependencies struct {
	Store       ProfileStore
	Detector    MatchDetector
	RateLimiter RateLimiter
	Metrics     Metrics
	Logger      *zap.Logger
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:       deps.Store,
		detector:    deps.Detector,
		rateLimiter: deps.RateLimiter,
		metrics:     deps.Metrics,
		logger:      logger,
		now:         time.Now,
	}
}

// RecordSwipe appends the decision to the actor's history and, for likes and
// superlikes, runs match detection. Repeated swipes on the same target are
// recorded again; match creation stays idempotent.
func (s *Service) RecordSwipe(ctx context.Context, actorID string, target model.CandidateRef, rawDecision string) (SwipeResult, error) {
	actorID = strings.TrimSpace(actorID)
	target.ProfileID = strings.TrimSpace(target.ProfileID)
	target.PetID = strings.TrimSpace(target.PetID)

	decision, ok := enums.ParseDecision(rawDecision)
	if !ok {
		return SwipeResult{}, errs.Invalid("decision", "must be one of like, pass, superlike")
	}
	if actorID == "" {
		return SwipeResult{}, errs.Invalid("actor_id", "is required")
	}
	if target.ProfileID == "" {
		return SwipeResult{}, errs.Invalid("target_id", "is required")
	}
	if actorID == target.ProfileID {
		return SwipeResult{}, errs.Invalid("target_id", "cannot swipe on yourself")
	}

	if s.store == nil || s.detector == nil {
		return SwipeResult{}, fmt.Errorf("swipe dependencies are not configured")
	}

	if s.rateLimiter != nil {
		retryAfter, allowed, err := s.rateLimiter.AllowSwipe(ctx, actorID)
		switch {
		case err != nil:
			// Rate windows are best effort; a Redis outage must not block swiping.
			s.logger.Warn("swipe rate limiter unavailable, allowing swipe",
				zap.String("actor_id", actorID),
				zap.Error(err),
			)
		case !allowed:
			return SwipeResult{}, TooFastError{RetryAfterSec: retryAfter}
		}
	}

	if _, err := s.store.GetProfile(ctx, actorID); err != nil {
		return SwipeResult{}, notFoundAs(err, "actor", actorID)
	}
	targetProfile, err := s.store.GetProfile(ctx, target.ProfileID)
	if err != nil {
		return SwipeResult{}, notFoundAs(err, "target", target.ProfileID)
	}
	if target.PetID != "" && !hasPet(targetProfile, target.PetID) {
		return SwipeResult{}, fmt.Errorf("pet %s of %s: %w", target.PetID, target.ProfileID, errs.ErrNotFound)
	}

	entry := model.SwipeEntry{
		TargetID:  target.ProfileID,
		PetID:     target.PetID,
		Decision:  decision,
		Timestamp: s.now().UTC(),
	}
	if err := s.store.AppendSwipe(ctx, actorID, entry); err != nil {
		return SwipeResult{}, notFoundAs(err, "actor", actorID)
	}
	if s.metrics != nil {
		s.metrics.ObserveSwipe(string(decision))
	}

	result := SwipeResult{Decision: decision}
	if !decision.IsPositive() {
		return result, nil
	}

	matched, err := s.detector.Detect(ctx, actorID, target.ProfileID)
	if err != nil {
		s.logger.Warn("match detection failed after swipe was recorded",
			zap.String("actor_id", actorID),
			zap.String("target_id", target.ProfileID),
			zap.Error(err),
		)
		return SwipeResult{}, err
	}
	result.IsMatch = matched
	return result, nil
}

// LimitState reports whether profileID may swipe right now without being
// throttled. With no limiter configured every swipe is allowed.
func (s *Service) LimitState(ctx context.Context, profileID string) (LimitState, error) {
	profileID = strings.TrimSpace(profileID)
	if profileID == "" {
		return LimitState{}, errs.Invalid("profile_id", "is required")
	}
	if s.rateLimiter == nil {
		return LimitState{CanSwipe: true}, nil
	}

	retryAfter, err := s.rateLimiter.RetryAfterSwipe(ctx, profileID)
	if err != nil {
		return LimitState{}, errs.Unavailable(fmt.Errorf("read swipe rate windows: %w", err))
	}
	return LimitState{CanSwipe: retryAfter == 0, RetryAfterSec: retryAfter}, nil
}

func hasPet(p model.Profile, petID string) bool {
	for _, pet := range p.Pets {
		if pet.ID == petID {
			return true
		}
	}
	return false
}

func notFoundAs(err error, what, id string) error {
	if errors.Is(err, errs.ErrNotFound) {
		return fmt.Errorf("%s %s: %w", what, id, errs.ErrNotFound)
	}
	return err
}
