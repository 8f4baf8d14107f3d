package mta

import (
	"regexp"
	"strings"
)

// Direction is the platform direction encoded in the trailing character of an
// MTA stop ID: "127N" is the northbound platform of station "127".
type Direction string

const (
	Northbound       Direction = "N"
	Southbound       Direction = "S"
	DirectionUnknown Direction = ""
)

// Label returns the human-readable form used in station listings.
func (d Direction) Label() string {
	switch d {
	case Northbound:
		return "Northbound"
	case Southbound:
		return "Southbound"
	default:
		return "Unknown"
	}
}

// ParseDirection maps user input ("N", "S", "north", "southbound", ...) to a
// Direction. Anything unrecognized is DirectionUnknown.
func ParseDirection(s string) Direction {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "N", "NORTH", "NORTHBOUND", "UPTOWN":
		return Northbound
	case "S", "SOUTH", "SOUTHBOUND", "DOWNTOWN":
		return Southbound
	default:
		return DirectionUnknown
	}
}

// Station is one row of the static stops table, enriched with the derived
// core ID, cleaned display name, and platform direction.
type Station struct {
	StopID    string    `json:"stop_id"`
	CoreID    string    `json:"core_id"`
	RawName   string    `json:"raw_name"`
	CleanName string    `json:"clean_name"`
	Direction Direction `json:"direction"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
}

// Route is one row of the static routes table.
type Route struct {
	ID       string `json:"route_id"`
	LongName string `json:"route_long_name"`
	Color    string `json:"route_color"`
}

var (
	lineIndicatorPattern = regexp.MustCompile(`\([1-7ACBDEFGJLMNQRWZ]+\)`)
	directionWordPattern = regexp.MustCompile(`(Bound|bound|Uptown|Downtown|Express)`)
	whitespacePattern    = regexp.MustCompile(`\s+`)
)

// CleanName normalizes a raw stop name for display: line-indicator
// parentheticals and direction words are removed and whitespace is collapsed.
// Pure and idempotent.
func CleanName(raw string) string {
	name := lineIndicatorPattern.ReplaceAllString(raw, "")
	name = directionWordPattern.ReplaceAllString(name, "")
	name = whitespacePattern.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// DirectionFromStopID derives the platform direction from a stop ID suffix.
func DirectionFromStopID(stopID string) Direction {
	switch {
	case strings.HasSuffix(stopID, "N"):
		return Northbound
	case strings.HasSuffix(stopID, "S"):
		return Southbound
	default:
		return DirectionUnknown
	}
}

// CoreStationID strips the directional suffix from a stop ID, grouping the
// N/S platform pair under one identifier.
func CoreStationID(stopID string) string {
	if DirectionFromStopID(stopID) != DirectionUnknown {
		return stopID[:len(stopID)-1]
	}
	return stopID
}

func newStation(stopID, rawName string, lat, lon float64) Station {
	return Station{
		StopID:    stopID,
		CoreID:    CoreStationID(stopID),
		RawName:   rawName,
		CleanName: CleanName(rawName),
		Direction: DirectionFromStopID(stopID),
		Lat:       lat,
		Lon:       lon,
	}
}
