package api

import (
	"net/http"

	"subwaydash.nyc/internal/models"
	"subwaydash.nyc/internal/utils"
)

// stationsHandler searches stations by name: /api/stations?query=...&exact=true
func (api *RestAPI) stationsHandler(w http.ResponseWriter, r *http.Request) {
	queryParams := r.URL.Query()

	query, err := utils.ValidateAndSanitizeQuery(queryParams.Get("query"))
	if err != nil {
		api.badRequestResponse(w, r, "query: "+err.Error())
		return
	}
	if query == "" {
		api.badRequestResponse(w, r, "query is required")
		return
	}
	exact := utils.ParseBoolParam(queryParams, "exact", false)

	stations := api.App.Directory.FindByName(query, exact)
	api.sendResponse(w, r, models.NewOKResponse(models.NewStations(stations)))
}

// stationByIDHandler searches stations by full or partial stop ID:
// /api/stations/127 returns both platforms, /api/stations/127N exactly one.
func (api *RestAPI) stationByIDHandler(w http.ResponseWriter, r *http.Request) {
	id := utils.ExtractIDFromParams(r, "id")
	if err := utils.ValidateID(id); err != nil {
		api.badRequestResponse(w, r, "id: "+err.Error())
		return
	}

	stations := api.App.Directory.FindByID(id)
	api.sendResponse(w, r, models.NewOKResponse(models.NewStations(stations)))
}
