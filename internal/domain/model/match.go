package model

import "time"

type MatchEntry struct {
	MatchedProfileID string    `json:"matched_profile_id"`
	Timestamp        time.Time `json:"timestamp"`
	Active           bool      `json:"active"`
}

// MatchPair names a possibly one-sided match: ProfileID is the side that is
// missing the entry pointing at CounterpartID.
type MatchPair struct {
	ProfileID     string `json:"profile_id"`
	CounterpartID string `json:"counterpart_id"`
}
