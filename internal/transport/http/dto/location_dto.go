package dto

type ProfileLocationRequest struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

type ProfileLocationResponse struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	City  string  `json:"city,omitempty"`
	State string  `json:"state,omitempty"`
}
