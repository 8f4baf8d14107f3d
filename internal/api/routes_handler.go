package api

import (
	"net/http"

	"subwaydash.nyc/internal/models"
)

func (api *RestAPI) routesHandler(w http.ResponseWriter, r *http.Request) {
	routes := api.App.Directory.ListRoutes()
	api.sendResponse(w, r, models.NewOKResponse(models.NewRoutes(routes)))
}
