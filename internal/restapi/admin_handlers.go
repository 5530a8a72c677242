package restapi

import (
	"log/slog"
	"net/http"
	"strconv"

	"busroot.app/internal/auth"
	"busroot.app/internal/logging"
	"busroot.app/internal/models"
	"busroot.app/internal/utils"
)

type timingDistanceRequest struct {
	Distance *float64 `json:"distance"`
}

func (api *RestAPI) adminLoginHandler(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if fieldErrors := readJSON(w, r, &req); fieldErrors != nil {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	admin, ok := api.AuthenticateAdmin(req.Username, req.Password)
	if !ok {
		api.Logger.Warn("admin sign-in rejected", slog.String("username", req.Username))
		api.invalidCredentialsResponse(w, r)
		return
	}

	session := api.Sessions.Issue(auth.RoleAdmin, admin.Username, "")
	logging.LogOperation(api.Logger, "admin_signed_in", slog.String("username", admin.Username))

	api.sendResponse(w, r, models.NewEntryResponse(session))
}

func (api *RestAPI) adminBusesHandler(w http.ResponseWriter, r *http.Request) {
	buses, err := api.Fleet.ListBuses(r.Context())
	if err != nil {
		api.handleError(w, r, err)
		return
	}

	api.sendResponse(w, r, models.NewListResponse(buses))
}

func (api *RestAPI) recalculateBusHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := api.busID(w, r)
	if !ok {
		return
	}

	result, err := api.Fleet.RecalculateBus(r.Context(), id)
	if err != nil {
		api.handleError(w, r, err)
		return
	}

	api.sendResponse(w, r, models.NewEntryResponse(result))
}

func (api *RestAPI) recalculateAllHandler(w http.ResponseWriter, r *http.Request) {
	results, err := api.Fleet.RecalculateAll(r.Context())
	if err != nil {
		api.handleError(w, r, err)
		return
	}

	api.sendResponse(w, r, models.NewListResponse(results))
}

// setTimingDistanceHandler stores a hand-entered distance for one timing and
// then recalculates the bus.
func (api *RestAPI) setTimingDistanceHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := api.busID(w, r)
	if !ok {
		return
	}

	index, err := strconv.Atoi(utils.ExtractParam(r, "index"))
	if err != nil || index < 0 {
		api.validationErrorResponse(w, r, map[string][]string{"index": {"must be a non-negative integer"}})
		return
	}

	var req timingDistanceRequest
	if fieldErrors := readJSON(w, r, &req); fieldErrors != nil {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}
	if req.Distance == nil {
		api.validationErrorResponse(w, r, map[string][]string{"distance": {"is required"}})
		return
	}

	bus, err := api.Fleet.SetTimingDistance(r.Context(), id, index, *req.Distance)
	if err != nil {
		api.handleError(w, r, err)
		return
	}

	api.sendResponse(w, r, models.NewEntryResponse(bus))
}
