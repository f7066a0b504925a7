package model

type Candidate struct {
	Ref           CandidateRef `json:"ref"`
	ProfileID     string       `json:"profile_id"`
	PetID         string       `json:"pet_id,omitempty"`
	OwnerName     string       `json:"owner_name"`
	PetName       string       `json:"pet_name,omitempty"`
	PetType       string       `json:"pet_type,omitempty"`
	Breed         string       `json:"breed,omitempty"`
	AgeYears      *int         `json:"age_years,omitempty"`
	Description   string       `json:"description,omitempty"`
	Image         string       `json:"image,omitempty"`
	PetCount      int          `json:"pet_count,omitempty"`
	City          string       `json:"city,omitempty"`
	State         string       `json:"state,omitempty"`
	Verified      bool         `json:"verified"`
	DistanceMiles *float64     `json:"distance_miles,omitempty"`
	DistanceText  string       `json:"distance_text,omitempty"`
}
