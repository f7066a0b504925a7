package matches

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/neopath7/pethoria-matchpage-server/internal/domain/enums"
	"github.com/neopath7/pethoria-matchpage-server/internal/domain/errs"
	"github.com/neopath7/pethoria-matchpage-server/internal/domain/model"
)

// Detect reports whether a match between actorID and targetID was newly
// formed by this call. It is safe to call repeatedly for the same pair.
func (s *Service) Detect(ctx context.Context, actorID, targetID string) (bool, error) {
	actorID = strings.TrimSpace(actorID)
	targetID = strings.TrimSpace(targetID)
	if actorID == "" || targetID == "" || actorID == targetID {
		return false, errs.Invalid("target_id", "invalid match pair")
	}
	if s.store == nil {
		return false, fmt.Errorf("match store is not configured")
	}

	actor, err := s.store.GetProfile(ctx, actorID)
	if err != nil {
		return false, notFoundAs(err, "actor", actorID)
	}

	if _, ok := actor.ActiveMatchTo(targetID); ok {
		healCtx, cancel := s.detached(ctx)
		defer cancel()
		s.ensureCounterpart(healCtx, actorID, targetID)
		return false, nil
	}

	mutual, err := s.store.HasSwiped(ctx, targetID, actorID, positiveDecisions)
	if err != nil {
		return false, err
	}
	if !mutual {
		return false, nil
	}

	vetoed, err := s.passedEitherWay(ctx, actorID, targetID)
	if err != nil {
		return false, err
	}
	if vetoed {
		return false, nil
	}

	entry := model.MatchEntry{Timestamp: s.now().UTC(), Active: true}

	writeCtx, cancel := s.detached(ctx)
	defer cancel()

	actorEntry := entry
	actorEntry.MatchedProfileID = targetID
	created, err := s.store.AppendMatch(writeCtx, actorID, actorEntry)
	if err != nil {
		return false, err
	}
	if !created {
		// A concurrent detection for the same pair got there first.
		s.ensureCounterpart(writeCtx, actorID, targetID)
		return false, nil
	}

	targetEntry := entry
	targetEntry.MatchedProfileID = actorID
	if _, err := s.store.AppendMatch(writeCtx, targetID, targetEntry); err != nil {
		s.logger.Warn("match target side write failed",
			zap.String("actor_id", actorID),
			zap.String("target_id", targetID),
			zap.Error(err),
		)
		s.enqueueRepair(writeCtx, model.MatchPair{ProfileID: targetID, CounterpartID: actorID})
	}

	if s.metrics != nil {
		s.metrics.ObserveMatchFormed()
	}
	s.logger.Info("match formed",
		zap.String("actor_id", actorID),
		zap.String("target_id", targetID),
		zap.Time("at", entry.Timestamp),
	)
	return true, nil
}

func (s *Service) passedEitherWay(ctx context.Context, a, b string) (bool, error) {
	pass := []enums.Decision{enums.DecisionPass}
	passed, err := s.store.HasSwiped(ctx, a, b, pass)
	if err != nil || passed {
		return passed, err
	}
	return s.store.HasSwiped(ctx, b, a, pass)
}

// ensureCounterpart brings target's side in line with actor's active match.
// A deactivation on target's side wins and is propagated back to actor.
// Failures are queued rather than returned.
func (s *Service) ensureCounterpart(ctx context.Context, actorID, targetID string) {
	profiles, err := s.store.GetProfiles(ctx, []string{actorID, targetID})
	if err == nil {
		actor, okA := profiles[actorID]
		target, okT := profiles[targetID]
		if !okA || !okT {
			return
		}
		_, _, err = s.healSide(ctx, target, actor)
	}
	if err != nil {
		s.logger.Warn("match side heal failed",
			zap.String("profile_id", targetID),
			zap.String("counterpart_id", actorID),
			zap.Error(err),
		)
		s.enqueueRepair(ctx, model.MatchPair{ProfileID: targetID, CounterpartID: actorID})
	}
}
