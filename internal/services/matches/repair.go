package matches

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/neopath7/pethoria-matchpage-server/internal/domain/errs"
	"github.com/neopath7/pethoria-matchpage-server/internal/domain/model"
)

// Reconcile makes the match state between the two profiles of pair
// symmetric. It returns an error only when a store call failed, so callers
// can keep the pair queued.
func (s *Service) Reconcile(ctx context.Context, pair model.MatchPair) error {
	a := strings.TrimSpace(pair.ProfileID)
	b := strings.TrimSpace(pair.CounterpartID)
	if a == "" || b == "" || a == b {
		return errs.Invalid("pair", "invalid match pair")
	}
	if s.store == nil {
		return fmt.Errorf("match store is not configured")
	}

	profiles, err := s.store.GetProfiles(ctx, []string{a, b})
	if err != nil {
		return err
	}
	pa, okA := profiles[a]
	pb, okB := profiles[b]
	if !okA || !okB {
		// Nothing left to heal once either side is gone.
		return nil
	}

	if _, _, err := s.heal(ctx, pa, pb); err != nil {
		return err
	}
	return nil
}

// healPair is the listing variant of Reconcile: failures are logged and
// queued, and the updated copies are returned for rendering.
func (s *Service) healPair(ctx context.Context, p, c model.Profile) (model.Profile, model.Profile) {
	p2, c2, err := s.heal(ctx, p, c)
	if err != nil {
		s.logger.Warn("lazy match repair failed",
			zap.String("profile_id", p.ID),
			zap.String("counterpart_id", c.ID),
			zap.Error(err),
		)
		s.enqueueRepair(context.WithoutCancel(ctx), model.MatchPair{ProfileID: p.ID, CounterpartID: c.ID})
		return p, c
	}
	return p2, c2
}

func (s *Service) heal(ctx context.Context, p, c model.Profile) (model.Profile, model.Profile, error) {
	p, c, err := s.healSide(ctx, p, c)
	if err != nil {
		return p, c, err
	}
	c, p, err = s.healSide(ctx, c, p)
	return p, c, err
}

// healSide fixes the case where other holds an active match to holder and
// holder does not. If holder already deactivated that same match, the
// deactivation is propagated to other; otherwise holder's entry is appended
// with other's timestamp.
func (s *Service) healSide(ctx context.Context, holder, other model.Profile) (model.Profile, model.Profile, error) {
	theirs, ok := other.ActiveMatchTo(holder.ID)
	if !ok {
		return holder, other, nil
	}
	if _, ok := holder.ActiveMatchTo(other.ID); ok {
		return holder, other, nil
	}

	if unmatchedSince(holder, other.ID, theirs) {
		if _, err := s.store.DeactivateMatch(ctx, other.ID, holder.ID); err != nil && !errors.Is(err, errs.ErrNotFound) {
			return holder, other, err
		}
		for i := range other.Matches {
			if other.Matches[i].Active && other.Matches[i].MatchedProfileID == holder.ID {
				other.Matches[i].Active = false
			}
		}
		s.observeRepair("unmatch_propagated")
		return holder, other, nil
	}

	entry := model.MatchEntry{MatchedProfileID: other.ID, Timestamp: theirs.Timestamp, Active: true}
	created, err := s.store.AppendMatch(ctx, holder.ID, entry)
	if err != nil {
		return holder, other, err
	}
	if created {
		holder.Matches = append(holder.Matches, entry)
		s.observeRepair("healed")
		s.logger.Info("healed one-sided match",
			zap.String("profile_id", holder.ID),
			zap.String("counterpart_id", other.ID),
		)
	}
	return holder, other, nil
}

// unmatchedSince reports whether holder carries a deactivated entry for the
// same match instance (same or later timestamp) as theirs.
func unmatchedSince(holder model.Profile, otherID string, theirs model.MatchEntry) bool {
	for _, m := range holder.Matches {
		if !m.Active && m.MatchedProfileID == otherID && !m.Timestamp.Before(theirs.Timestamp) {
			return true
		}
	}
	return false
}
