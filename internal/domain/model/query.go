package model

import "time"

// NearQuery is the geo read used by discovery. Results are nearest-first.
type NearQuery struct {
	Center      Point
	MaxMeters   float64
	ExcludeIDs  []string
	ActiveSince time.Time
	Limit       int
}

// PredicateQuery carries the predicates a Profile Store can evaluate natively.
// Age brackets are not part of it; they are applied after the read.
type PredicateQuery struct {
	Center      *Point
	MaxMeters   float64
	City        string
	State       string
	PetType     string
	Breed       string
	ActiveSince time.Time
	ExcludeIDs  []string
	Limit       int
}

func (q PredicateQuery) HasGeo() bool {
	return q.Center != nil && q.MaxMeters > 0
}
