package model

import (
	"strings"
	"time"

	"github.com/neopath7/pethoria-matchpage-server/internal/domain/enums"
)

type SwipeEntry struct {
	TargetID  string         `json:"target_id"`
	PetID     string         `json:"pet_id,omitempty"`
	Decision  enums.Decision `json:"decision"`
	Timestamp time.Time      `json:"timestamp"`
}

// CandidateRef addresses a swipe target: the owning profile and, for
// pet-level candidates, the pet that was shown.
type CandidateRef struct {
	ProfileID string `json:"profile_id"`
	PetID     string `json:"pet_id,omitempty"`
}

// ParseCandidateRef accepts the legacy compound form "profileId_petId". The
// profile id is everything before the first separator.
func ParseCandidateRef(raw string) CandidateRef {
	raw = strings.TrimSpace(raw)
	profileID, petID, found := strings.Cut(raw, "_")
	if !found {
		return CandidateRef{ProfileID: raw}
	}
	return CandidateRef{ProfileID: profileID, PetID: petID}
}
