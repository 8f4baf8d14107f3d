package models

import "subwaydash.nyc/internal/mta"

// Station is a station platform as reported to API clients.
type Station struct {
	StopID    string  `json:"stop_id"`
	CoreID    string  `json:"core_id"`
	Name      string  `json:"name"`
	Direction string  `json:"direction"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
}

// NewStations converts directory results for transport.
func NewStations(stations []mta.Station) []Station {
	out := make([]Station, 0, len(stations))
	for _, station := range stations {
		out = append(out, Station{
			StopID:    station.StopID,
			CoreID:    station.CoreID,
			Name:      station.CleanName,
			Direction: station.Direction.Label(),
			Lat:       station.Lat,
			Lon:       station.Lon,
		})
	}
	return out
}
