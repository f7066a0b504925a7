package dto

import "github.com/neopath7/pethoria-matchpage-server/internal/domain/model"

// SwipeRequest accepts either a structured target or the legacy compound
// target_id ("profileId_petId").
type SwipeRequest struct {
	Target   *model.CandidateRef `json:"target,omitempty"`
	TargetID string              `json:"target_id,omitempty"`
	Decision string              `json:"decision"`
}

type SwipeResponse struct {
	IsMatch  bool   `json:"is_match"`
	Decision string `json:"decision"`
}

type SwipeLimitResponse struct {
	CanSwipe      bool  `json:"can_swipe"`
	RetryAfterSec int64 `json:"retry_after_sec"`
}
