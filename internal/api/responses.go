package api

import (
	"encoding/json"
	"net/http"

	"subwaydash.nyc/internal/models"
)

func (api *RestAPI) sendResponse(w http.ResponseWriter, r *http.Request, response models.ResponseModel) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(response.Code)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		api.App.Logger.Error("failed to encode response", "error", err, "path", r.URL.Path)
	}
}
