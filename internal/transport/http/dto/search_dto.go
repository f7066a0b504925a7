package dto

import (
	"github.com/neopath7/pethoria-matchpage-server/internal/domain/model"
	searchsvc "github.com/neopath7/pethoria-matchpage-server/internal/services/search"
)

type SearchRequest struct {
	Lat     *float64          `json:"lat,omitempty"`
	Lon     *float64          `json:"lon,omitempty"`
	Filters searchsvc.Filters `json:"filters"`
}

type SearchResponse struct {
	Matches []model.Candidate `json:"matches"`
	Count   int               `json:"count"`
	Filters searchsvc.Filters `json:"filters"`
}
