package restapi

import (
	"time"

	"busroot.app/internal/app"
)

type RestAPI struct {
	*app.Application
	rateLimiter *RateLimitMiddleware
}

// NewRestAPI creates a new RestAPI instance with initialized rate limiter
func NewRestAPI(app *app.Application) *RestAPI {
	rateLimiter := NewRateLimitMiddleware(app.Config.RateLimit, time.Second)
	rateLimiter.sessions = app.RequestSession

	return &RestAPI{
		Application: app,
		rateLimiter: rateLimiter,
	}
}

// Close stops the rate limiter's background cleanup.
func (api *RestAPI) Close() {
	if api.rateLimiter != nil {
		api.rateLimiter.Stop()
	}
}
