package matches

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
)

const defaultWriteTimeout = 5 * time.Second

var positiveDecisions = []enums.Decision{enums.DecisionLike, enums.DecisionSuperLike}

type ProfileStore interface {
	GetProfile(ctx context.Context, id string) (model.Profile, error)
	GetProfiles(ctx context.Context, ids []string) (map[string]model.Profile, error)
	HasSwiped(ctx context.Context, ownerID, targetID string, decisions []enums.Decision) (bool, error)
	AppendMatch(ctx context.Context, profileID string, entry model.MatchEntry) (bool, error)
	DeactivateMatch(ctx context.Context, profileID, targetID string) (bool, error)
	FindMatchedBy(ctx context.Context, profileID string) ([]model.Profile, error)
}

type RepairQueue interface {
	Enqueue(ctx context.Context, pair model.MatchPair) error
}

type ImageResolver interface {
	Resolve(ctx context.Context, ref string) string
}

type Metrics interface {
	ObserveMatchFormed()
	ObserveRepair(outcome string)
}

type Config struct {
	// WriteTimeout bounds the two-sided match write, which is detached from
	// the caller's cancellation.
	WriteTimeout time.Duration
}

type MatchItem struct {
	ID        string
	Name      string
	Image     string
	Timestamp time.Time
}

type Service struct {
	store   ProfileStore
	repairs RepairQueue
	images  ImageResolver
	metrics Metrics
	logger  *zap.Logger
	cfg     Config
	now     func() time.Time
}

type Dependencies struct {
	Store   ProfileStore
	Repairs RepairQueue
	Images  ImageResolver
	Metrics Metrics
	Logger  *zap.Logger
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:   deps.Store,
		repairs: deps.Repairs,
		images:  deps.Images,
		metrics: deps.Metrics,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}
}

// ListMatches returns the active matches of profileID, newest first. Any
// one-sided match involving the profile is healed before the list is built.
func (s *Service) ListMatches(ctx context.Context, profileID string) ([]MatchItem, error) {
	profileID = strings.TrimSpace(profileID)
	if profileID == "" {
		return nil, errs.Invalid("profile_id", "is required")
	}
	if s.store == nil {
		return nil, fmt.Errorf("match store is not configured")
	}

	profile, err := s.store.GetProfile(ctx, profileID)
	if err != nil {
		return nil, notFoundAs(err, "profile", profileID)
	}

	matchedBy, err := s.store.FindMatchedBy(ctx, profileID)
	if err != nil {
		return nil, err
	}

	counterpartIDs := make([]string, 0, len(profile.Matches)+len(matchedBy))
	seen := make(map[string]struct{})
	for _, m := range profile.ActiveMatches() {
		if _, ok := seen[m.MatchedProfileID]; !ok {
			seen[m.MatchedProfileID] = struct{}{}
			counterpartIDs = append(counterpartIDs, m.MatchedProfileID)
		}
	}
	counterparts := make(map[string]model.Profile, len(counterpartIDs)+len(matchedBy))
	for _, c := range matchedBy {
		counterparts[c.ID] = c
		delete(seen, c.ID)
	}

	missing := make([]string, 0, len(seen))
	for _, id := range counterpartIDs {
		if _, ok := seen[id]; ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		loaded, err := s.store.GetProfiles(ctx, missing)
		if err != nil {
			return nil, err
		}
		for id, c := range loaded {
			counterparts[id] = c
		}
	}

	for _, c := range counterparts {
		profile, c = s.healPair(ctx, profile, c)
		counterparts[c.ID] = c
	}

	items := make([]MatchItem, 0, len(profile.Matches))
	for _, m := range profile.ActiveMatches() {
		c, ok := counterparts[m.MatchedProfileID]
		if !ok {
			continue
		}
		items = append(items, MatchItem{
			ID:        c.ID,
			Name:      c.OwnerName,
			Image:     s.resolveImage(ctx, c.PrimaryImage()),
			Timestamp: m.Timestamp,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Timestamp.Equal(items[j].Timestamp) {
			return items[i].ID < items[j].ID
		}
		return items[i].Timestamp.After(items[j].Timestamp)
	})
	return items, nil
}

// Unmatch deactivates the match on both sides. The counterpart side is
// written on a detached context; if it fails the pair is queued for repair.
func (s *Service) Unmatch(ctx context.Context, profileID, targetID string) (bool, error) {
	profileID = strings.TrimSpace(profileID)
	targetID = strings.TrimSpace(targetID)
	if profileID == "" || targetID == "" {
		return false, errs.Invalid("target_id", "is required")
	}
	if profileID == targetID {
		return false, errs.Invalid("target_id", "cannot unmatch yourself")
	}
	if s.store == nil {
		return false, fmt.Errorf("match store is not configured")
	}

	if _, err := s.store.GetProfile(ctx, profileID); err != nil {
		return false, notFoundAs(err, "profile", profileID)
	}

	writeCtx, cancel := s.detached(ctx)
	defer cancel()

	changed, err := s.store.DeactivateMatch(writeCtx, profileID, targetID)
	if err != nil {
		return false, err
	}

	if _, err := s.store.DeactivateMatch(writeCtx, targetID, profileID); err != nil && !errors.Is(err, errs.ErrNotFound) {
		s.logger.Warn("unmatch counterpart side failed",
			zap.String("profile_id", profileID),
			zap.String("target_id", targetID),
			zap.Error(err),
		)
		s.enqueueRepair(writeCtx, model.MatchPair{ProfileID: targetID, CounterpartID: profileID})
	}

	return changed, nil
}

func (s *Service) resolveImage(ctx context.Context, ref string) string {
	if ref == "" || s.images == nil {
		return ref
	}
	return s.images.Resolve(ctx, ref)
}

func (s *Service) detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.cfg.WriteTimeout)
}

func (s *Service) enqueueRepair(ctx context.Context, pair model.MatchPair) {
	if s.repairs == nil {
		return
	}
	if err := s.repairs.Enqueue(ctx, pair); err != nil {
		s.logger.Error("enqueue match repair failed",
			zap.String("profile_id", pair.ProfileID),
			zap.String("counterpart_id", pair.CounterpartID),
			zap.Error(err),
		)
		return
	}
	s.observeRepair("queued")
}

func (s *Service) observeRepair(outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveRepair(outcome)
	}
}

func notFoundAs(err error, what, id string) error {
	if errors.Is(err, errs.ErrNotFound) {
		return fmt.Errorf("%s %s: %w", what, id, errs.ErrNotFound)
	}
	return err
}
