package api

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// Routes builds the router and wraps it with request logging.
func (api *RestAPI) Routes() http.Handler {
	router := httprouter.New()

	router.HandlerFunc(http.MethodGet, "/api/arrivals", api.arrivalsHandler)
	router.HandlerFunc(http.MethodGet, "/api/stations", api.stationsHandler)
	router.HandlerFunc(http.MethodGet, "/api/stations/:id", api.stationByIDHandler)
	router.HandlerFunc(http.MethodGet, "/api/routes", api.routesHandler)
	router.HandlerFunc(http.MethodGet, "/health", api.healthHandler)

	return api.logRequests(router)
}
