package models

import (
	"time"

	"subwaydash.nyc/internal/mta"
)

// Arrival is one upcoming train as reported to API clients.
type Arrival struct {
	Route       string    `json:"route"`
	TripID      string    `json:"trip_id"`
	StopID      string    `json:"stop_id"`
	Direction   string    `json:"direction"`
	ArrivalTime time.Time `json:"arrival_time"`
	MinutesAway int       `json:"minutes_away"`
}

// DegradedLine reports a line that failed during multi-line aggregation.
type DegradedLine struct {
	Line  string `json:"line"`
	Error string `json:"error"`
}

// ArrivalsData is the payload of the arrivals endpoint. Degraded is only
// populated for multi-line requests where some lines failed; partial results
// are never silently presented as complete.
type ArrivalsData struct {
	Arrivals []Arrival      `json:"arrivals"`
	Degraded []DegradedLine `json:"degraded,omitempty"`
}

// NewArrival converts a core trip update for transport.
func NewArrival(update mta.TripUpdate, now time.Time) Arrival {
	return Arrival{
		Route:       update.RouteID,
		TripID:      update.TripID,
		StopID:      update.StopID,
		Direction:   mta.DirectionFromStopID(update.StopID).Label(),
		ArrivalTime: update.ArrivalTime,
		MinutesAway: int(update.ArrivalTime.Sub(now).Minutes()),
	}
}

// NewArrivalsData converts resolver output for transport.
func NewArrivalsData(updates []mta.TripUpdate, failures []mta.LineFailure) ArrivalsData {
	now := time.Now()
	data := ArrivalsData{Arrivals: make([]Arrival, 0, len(updates))}
	for _, update := range updates {
		data.Arrivals = append(data.Arrivals, NewArrival(update, now))
	}
	for _, failure := range failures {
		data.Degraded = append(data.Degraded, DegradedLine{
			Line:  failure.Line,
			Error: failure.Err.Error(),
		})
	}
	return data
}
