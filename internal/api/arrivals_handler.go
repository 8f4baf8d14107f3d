package api

import (
	"net/http"

	"subwaydash.nyc/internal/models"
	"subwaydash.nyc/internal/mta"
	"subwaydash.nyc/internal/utils"
)

// arrivalsHandler serves upcoming trains. Query parameters:
//
//	station   station name (resolved via the directory, aliases last)
//	stop      core station ID (used directly, no name resolution)
//	line      single line; lines=1,2,3 aggregates across lines
//	direction N or S (default N)
//	limit     max arrivals (default 5)
//
// Exactly one of station or stop is required, as is at least one line.
func (api *RestAPI) arrivalsHandler(w http.ResponseWriter, r *http.Request) {
	queryParams := r.URL.Query()

	stationName, err := utils.ValidateAndSanitizeQuery(queryParams.Get("station"))
	if err != nil {
		api.badRequestResponse(w, r, "station: "+err.Error())
		return
	}
	stopID := queryParams.Get("stop")
	if stopID != "" {
		if err := utils.ValidateID(stopID); err != nil {
			api.badRequestResponse(w, r, "stop: "+err.Error())
			return
		}
	}
	if (stationName == "") == (stopID == "") {
		api.badRequestResponse(w, r, "exactly one of station or stop is required")
		return
	}

	lines := utils.ParseListParam(queryParams, "lines")
	if line := queryParams.Get("line"); line != "" {
		lines = append(utils.ParseListParam(queryParams, "line"), lines...)
	}
	if len(lines) == 0 {
		api.badRequestResponse(w, r, "line or lines is required")
		return
	}

	direction := mta.ParseDirection(queryParams.Get("direction"))
	if direction == mta.DirectionUnknown {
		if queryParams.Get("direction") != "" {
			api.badRequestResponse(w, r, "direction must be N or S")
			return
		}
		direction = mta.Northbound
	}

	limit, fieldErrors := utils.ParseIntParam(queryParams, "limit", mta.DefaultArrivalLimit, nil)
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	resolver := api.App.Resolver
	ctx := r.Context()

	if stationName != "" {
		if len(lines) == 1 {
			updates, err := resolver.ArrivalsByStationName(ctx, stationName, lines[0], direction, limit)
			if err != nil {
				api.coreErrorResponse(w, r, err)
				return
			}
			api.sendResponse(w, r, models.NewOKResponse(models.NewArrivalsData(updates, nil)))
			return
		}

		updates, failures, err := resolver.ArrivalsByStationNameMultiLine(ctx, stationName, lines, direction, limit)
		if err != nil {
			api.coreErrorResponse(w, r, err)
			return
		}
		api.sendResponse(w, r, models.NewOKResponse(models.NewArrivalsData(updates, failures)))
		return
	}

	if len(lines) == 1 {
		updates, err := resolver.UpcomingTrains(ctx, lines[0], stopID, direction, limit)
		if err != nil {
			api.coreErrorResponse(w, r, err)
			return
		}
		api.sendResponse(w, r, models.NewOKResponse(models.NewArrivalsData(updates, nil)))
		return
	}

	updates, failures := resolver.UpcomingTrainsMultiLine(ctx, lines, stopID, direction, limit)
	api.sendResponse(w, r, models.NewOKResponse(models.NewArrivalsData(updates, failures)))
}
