package restapi

import (
	"net/http"
	"strings"

	"busroot.app/internal/models"
	"busroot.app/internal/search"
	"busroot.app/internal/utils"
)

func (api *RestAPI) searchBusesHandler(w http.ResponseWriter, r *http.Request) {
	name, err := utils.ValidateAndSanitizeQuery(r.URL.Query().Get("name"))
	if err != nil {
		api.validationErrorResponse(w, r, map[string][]string{"name": {err.Error()}})
		return
	}

	buses, err := api.Fleet.SearchByName(r.Context(), name)
	if err != nil {
		api.handleError(w, r, err)
		return
	}

	api.sendResponse(w, r, models.NewListResponse(buses))
}

func (api *RestAPI) searchRoutesHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := search.RouteQuery{
		Start:     utils.SanitizeInput(query.Get("start")),
		End:       utils.SanitizeInput(query.Get("end")),
		StartTime: strings.TrimSpace(query.Get("startTime")),
		EndTime:   strings.TrimSpace(query.Get("endTime")),
	}

	fieldErrors := make(map[string][]string)
	if q.Start == "" {
		fieldErrors["start"] = append(fieldErrors["start"], "is required")
	}
	if q.End == "" {
		fieldErrors["end"] = append(fieldErrors["end"], "is required")
	}
	for field, value := range map[string]string{"startTime": q.StartTime, "endTime": q.EndTime} {
		if value == "" {
			continue
		}
		if _, err := search.ParseClock(value); err != nil {
			fieldErrors[field] = append(fieldErrors[field], "must be a time of day in HH:MM")
		}
	}
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	buses, err := api.Fleet.SearchByRoute(r.Context(), q)
	if err != nil {
		api.handleError(w, r, err)
		return
	}

	api.sendResponse(w, r, models.NewListResponse(buses))
}

// locationsHandler returns every known location, or only the suggestions for
// a typed prefix when one is given.
func (api *RestAPI) locationsHandler(w http.ResponseWriter, r *http.Request) {
	var (
		locations []string
		err       error
	)
	if r.URL.Query().Has("prefix") {
		locations, err = api.Fleet.SuggestLocations(r.Context(), r.URL.Query().Get("prefix"))
	} else {
		locations, err = api.Fleet.Locations(r.Context())
	}
	if err != nil {
		api.handleError(w, r, err)
		return
	}

	api.sendResponse(w, r, models.NewListResponse(locations))
}
