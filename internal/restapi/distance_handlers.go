package restapi

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"busroot.app/internal/logging"
	"busroot.app/internal/models"
	"busroot.app/internal/route"
	"busroot.app/internal/utils"
)

// maxGTFSArchive caps uploaded GTFS zip archives.
const maxGTFSArchive = 64 << 20

type distanceCalculationRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
	From  string `json:"from"`
	To    string `json:"to"`
}

type distanceCalculation struct {
	Route    route.Key `json:"route"`
	From     string    `json:"from"`
	To       string    `json:"to"`
	Distance *float64  `json:"distance"`
	Reason   string    `json:"reason,omitempty"`
}

// routeKey reads the :start and :end path parameters.
func (api *RestAPI) routeKey(w http.ResponseWriter, r *http.Request) (route.Key, bool) {
	start := utils.ExtractParam(r, "start")
	end := utils.ExtractParam(r, "end")

	fieldErrors := make(map[string][]string)
	if err := utils.ValidateStopName(start); err != nil {
		fieldErrors["start"] = append(fieldErrors["start"], err.Error())
	}
	if err := utils.ValidateStopName(end); err != nil {
		fieldErrors["end"] = append(fieldErrors["end"], err.Error())
	}
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return route.Key{}, false
	}
	return route.NewKey(start, end), true
}

func (api *RestAPI) listDistancesHandler(w http.ResponseWriter, r *http.Request) {
	tables, err := api.Fleet.ListDistanceTables(r.Context())
	if err != nil {
		api.handleError(w, r, err)
		return
	}

	api.sendResponse(w, r, models.NewListResponse(tables))
}

func (api *RestAPI) getDistanceHandler(w http.ResponseWriter, r *http.Request) {
	key, ok := api.routeKey(w, r)
	if !ok {
		return
	}

	table, err := api.Fleet.GetDistanceTable(r.Context(), key)
	if err != nil {
		api.handleError(w, r, err)
		return
	}

	api.sendResponse(w, r, models.NewEntryResponse(table))
}

// putDistanceHandler replaces the whole table stored for the route in the
// path. A body that names its own endpoints must name the same route.
func (api *RestAPI) putDistanceHandler(w http.ResponseWriter, r *http.Request) {
	key, ok := api.routeKey(w, r)
	if !ok {
		return
	}

	var table route.Table
	if fieldErrors := readJSON(w, r, &table); fieldErrors != nil {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	if table.Start == "" && table.End == "" {
		table.Start = utils.ExtractParam(r, "start")
		table.End = utils.ExtractParam(r, "end")
	}
	if table.Key() != key {
		api.validationErrorResponse(w, r, map[string][]string{
			"start": {"must match the route in the path"},
			"end":   {"must match the route in the path"},
		})
		return
	}

	saved, err := api.Fleet.SaveDistanceTable(r.Context(), table)
	if err != nil {
		api.handleError(w, r, err)
		return
	}

	api.sendResponse(w, r, models.NewEntryResponse(saved))
}

func (api *RestAPI) deleteDistanceHandler(w http.ResponseWriter, r *http.Request) {
	key, ok := api.routeKey(w, r)
	if !ok {
		return
	}

	if err := api.Fleet.DeleteDistanceTable(r.Context(), key); err != nil {
		api.handleError(w, r, err)
		return
	}

	api.sendResponse(w, r, models.NewEntryResponse(key))
}

// distanceCalculationHandler answers the admin calculator. Stops that are not
// on the route give a null distance rather than an error.
func (api *RestAPI) distanceCalculationHandler(w http.ResponseWriter, r *http.Request) {
	var req distanceCalculationRequest
	if fieldErrors := readJSON(w, r, &req); fieldErrors != nil {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	fieldErrors := make(map[string][]string)
	for field, value := range map[string]string{"start": req.Start, "end": req.End, "from": req.From, "to": req.To} {
		if err := utils.ValidateStopName(value); err != nil {
			fieldErrors[field] = append(fieldErrors[field], err.Error())
		}
	}
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	calc := distanceCalculation{
		Route: route.NewKey(req.Start, req.End),
		From:  req.From,
		To:    req.To,
	}
	distance, err := api.Fleet.CalculateDistance(r.Context(), calc.Route, req.From, req.To)
	switch {
	case errors.Is(err, route.ErrStopNotFound):
		calc.Reason = err.Error()
	case err != nil:
		api.handleError(w, r, err)
		return
	default:
		calc.Distance = models.Float64(distance)
	}

	api.sendResponse(w, r, models.NewEntryResponse(calc))
}

// distanceImportHandler builds distance tables from a GTFS zip sent as the
// request body.
func (api *RestAPI) distanceImportHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxGTFSArchive)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			api.errorResponse(w, r, http.StatusRequestEntityTooLarge, "GTFS archive is too large")
			return
		}
		api.serverErrorResponse(w, r, err)
		return
	}
	if len(data) == 0 {
		api.validationErrorResponse(w, r, map[string][]string{"body": {"a GTFS zip archive is required"}})
		return
	}

	result, err := api.Fleet.ImportGTFS(r.Context(), data)
	if err != nil {
		logging.LogError(logging.FromContext(r.Context()), "gtfs import failed", err,
			slog.Int("bytes", len(data)))
		api.errorResponse(w, r, http.StatusUnprocessableEntity, "could not import GTFS archive: "+err.Error())
		return
	}

	api.sendResponse(w, r, models.NewEntryResponse(result))
}
