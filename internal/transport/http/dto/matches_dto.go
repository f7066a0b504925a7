package dto

import "time"

type MatchItemResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Image     string    `json:"image"`
	Timestamp time.Time `json:"timestamp"`
}

type MatchesResponse struct {
	Matches []MatchItemResponse `json:"matches"`
}

type UnmatchRequest struct {
	TargetID string `json:"target_id"`
}

type UnmatchResponse struct {
	OK          bool `json:"ok"`
	Deactivated bool `json:"deactivated"`
}
