package api

import (
	"errors"
	"fmt"
	"net/http"

	"subwaydash.nyc/internal/logging"
	"subwaydash.nyc/internal/models"
	"subwaydash.nyc/internal/mta"
)

func (api *RestAPI) badRequestResponse(w http.ResponseWriter, r *http.Request, text string) {
	api.sendResponse(w, r, models.NewErrorResponse(http.StatusBadRequest, text))
}

func (api *RestAPI) validationErrorResponse(w http.ResponseWriter, r *http.Request, fieldErrors map[string][]string) {
	text := "invalid request"
	for field, errs := range fieldErrors {
		if len(errs) > 0 {
			text = fmt.Sprintf("%s: %s", field, errs[0])
			break
		}
	}
	api.badRequestResponse(w, r, text)
}

func (api *RestAPI) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	logging.FromContext(r.Context()).Error("internal server error", "error", err, "path", r.URL.Path)
	api.sendResponse(w, r, models.NewErrorResponse(http.StatusInternalServerError, "internal server error"))
}

// coreErrorResponse maps the core's typed errors to HTTP statuses. Empty
// results never come through here; only failures to look something up or to
// reach upstream data do.
func (api *RestAPI) coreErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var stationNotFound *mta.StationNotFoundError
	var unknownLine *mta.UnknownLineError
	var fetchErr *mta.FeedFetchError
	var decodeErr *mta.FeedDecodeError
	var unavailable *mta.DataUnavailableError

	switch {
	case errors.As(err, &stationNotFound):
		api.sendResponse(w, r, models.NewErrorResponse(http.StatusNotFound, stationNotFound.Error()))
	case errors.As(err, &unknownLine):
		api.sendResponse(w, r, models.NewErrorResponse(http.StatusBadRequest, unknownLine.Error()))
	case errors.As(err, &fetchErr):
		api.sendResponse(w, r, models.NewErrorResponse(http.StatusBadGateway, fetchErr.Error()))
	case errors.As(err, &decodeErr):
		api.sendResponse(w, r, models.NewErrorResponse(http.StatusBadGateway, decodeErr.Error()))
	case errors.As(err, &unavailable):
		api.sendResponse(w, r, models.NewErrorResponse(http.StatusServiceUnavailable, unavailable.Error()))
	default:
		api.serverErrorResponse(w, r, err)
	}
}
