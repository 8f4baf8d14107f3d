package api

import (
	"net/http"
	"time"

	"subwaydash.nyc/internal/models"
)

type healthData struct {
	Status       string    `json:"status"`
	Env          string    `json:"env"`
	StationCount int       `json:"station_count"`
	LoadedAt     time.Time `json:"stations_loaded_at"`
}

func (api *RestAPI) healthHandler(w http.ResponseWriter, r *http.Request) {
	data := healthData{
		Status:       "ok",
		Env:          api.App.Config.Env,
		StationCount: api.App.Directory.StationCount(),
		LoadedAt:     api.App.Directory.LoadedAt(),
	}
	if !api.App.Directory.Loaded() {
		data.Status = "degraded"
	}
	api.sendResponse(w, r, models.NewOKResponse(data))
}
