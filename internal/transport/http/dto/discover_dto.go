package dto

import "github.com/neopath7/pethoria-matchpage-server/internal/domain/model"

type DiscoverResponse struct {
	Candidates []model.Candidate `json:"candidates"`
	Total      int               `json:"total"`
}
