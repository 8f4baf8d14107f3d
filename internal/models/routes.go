package models

import "subwaydash.nyc/internal/mta"

// Route is a subway line as reported to API clients.
type Route struct {
	ID       string `json:"route_id"`
	LongName string `json:"route_long_name"`
	Color    string `json:"route_color"`
}

// NewRoutes converts directory routes for transport.
func NewRoutes(routes []mta.Route) []Route {
	out := make([]Route, 0, len(routes))
	for _, route := range routes {
		out = append(out, Route{ID: route.ID, LongName: route.LongName, Color: route.Color})
	}
	return out
}
