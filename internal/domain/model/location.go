package model

import "math"

type Location struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	City    string  `json:"city"`
	State   string  `json:"state"`
	Address string  `json:"address"`
}

func (l Location) Valid() bool {
	if math.IsNaN(l.Lat) || math.IsNaN(l.Lon) {
		return false
	}
	return l.Lat >= -90 && l.Lat <= 90 && l.Lon >= -180 && l.Lon <= 180
}

type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}
