package restapi

import (
	"net/http"

	"busroot.app/internal/models"
)

func (api *RestAPI) healthHandler(w http.ResponseWriter, r *http.Request) {
	if api.Store != nil {
		if err := api.Store.DB.PingContext(r.Context()); err != nil {
			api.errorResponse(w, r, http.StatusServiceUnavailable, "document store unavailable")
			return
		}
	}

	api.sendResponse(w, r, models.NewOKResponse(map[string]string{"status": "ok"}))
}
