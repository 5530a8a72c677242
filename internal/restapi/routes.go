package restapi

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// SetRoutes registers every API endpoint on router. Rate limiting applies to
// the API routes only; health checks and blobs are never limited.
func (api *RestAPI) SetRoutes(router *httprouter.Router) {
	limit := func(h http.HandlerFunc) http.Handler {
		if api.rateLimiter == nil {
			return h
		}
		return api.rateLimiter.Handler(h)
	}

	// Traveler search
	router.Handler(http.MethodGet, "/api/search/buses", limit(api.searchBusesHandler))
	router.Handler(http.MethodGet, "/api/search/routes", limit(api.searchRoutesHandler))
	router.Handler(http.MethodGet, "/api/locations", limit(api.locationsHandler))

	// Operators
	router.Handler(http.MethodPost, "/api/buses", limit(api.registerBusHandler))
	router.Handler(http.MethodPost, "/api/operators/login", limit(api.operatorLoginHandler))
	router.Handler(http.MethodGet, "/api/buses/:id", limit(api.getBusHandler))
	router.Handler(http.MethodPut, "/api/buses/:id", limit(api.requireBusOwner(api.updateBusHandler)))
	router.Handler(http.MethodGet, "/api/buses/:id/timing-slots", limit(api.timingSlotsHandler))

	// Administration
	router.Handler(http.MethodPost, "/api/admin/login", limit(api.adminLoginHandler))
	router.Handler(http.MethodGet, "/api/admin/buses", limit(api.requireAdmin(api.adminBusesHandler)))
	router.Handler(http.MethodPost, "/api/admin/buses/:id/recalculate", limit(api.requireAdmin(api.recalculateBusHandler)))
	router.Handler(http.MethodPost, "/api/admin/recalculate", limit(api.requireAdmin(api.recalculateAllHandler)))
	router.Handler(http.MethodPut, "/api/admin/buses/:id/timings/:index/distance", limit(api.requireAdmin(api.setTimingDistanceHandler)))
	router.Handler(http.MethodGet, "/api/admin/distances", limit(api.requireAdmin(api.listDistancesHandler)))
	router.Handler(http.MethodGet, "/api/admin/distances/:start/:end", limit(api.requireAdmin(api.getDistanceHandler)))
	router.Handler(http.MethodPut, "/api/admin/distances/:start/:end", limit(api.requireAdmin(api.putDistanceHandler)))
	router.Handler(http.MethodDelete, "/api/admin/distances/:start/:end", limit(api.requireAdmin(api.deleteDistanceHandler)))
	router.Handler(http.MethodPost, "/api/admin/distance-calculations", limit(api.requireAdmin(api.distanceCalculationHandler)))
	router.Handler(http.MethodPost, "/api/admin/distance-imports", limit(api.requireAdmin(api.distanceImportHandler)))

	// Feedback
	router.Handler(http.MethodPost, "/api/feedback", limit(api.submitFeedbackHandler))
	router.Handler(http.MethodGet, "/api/feedback", limit(api.listFeedbackHandler))

	router.HandlerFunc(http.MethodGet, "/healthz", api.healthHandler)
	if api.Blobs != nil {
		router.Handler(http.MethodGet, "/blobs/*filepath", http.StripPrefix("/blobs", api.Blobs.Handler()))
	}

	router.NotFound = http.HandlerFunc(api.sendNotFound)
	router.MethodNotAllowed = http.HandlerFunc(api.sendMethodNotAllowed)
	router.PanicHandler = api.panicResponse
}
