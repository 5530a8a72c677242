package restapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"busroot.app/internal/auth"
	"busroot.app/internal/blobstore"
	"busroot.app/internal/fleet"
	"busroot.app/internal/logging"
	"busroot.app/internal/models"
	"busroot.app/internal/route"
	"busroot.app/internal/search"
)

type errorBody struct {
	Code        int    `json:"code"`
	CurrentTime int64  `json:"currentTime"`
	Text        string `json:"text"`
	Version     int    `json:"version"`
}

func (api *RestAPI) errorResponse(w http.ResponseWriter, r *http.Request, status int, text string) {
	response := errorBody{
		Code:        status,
		CurrentTime: models.ResponseCurrentTime(),
		Text:        text,
		Version:     2,
	}

	setJSONResponseType(&w)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logging.FromContext(r.Context()).Error("failed to encode error response", "error", err)
	}
}

// invalidCredentialsResponse sends a 401 Unauthorized response for missing or
// rejected credentials and tokens.
func (api *RestAPI) invalidCredentialsResponse(w http.ResponseWriter, r *http.Request) {
	response := errorBody{
		Code:        http.StatusUnauthorized,
		CurrentTime: models.ResponseCurrentTime(),
		Text:        "permission denied",
		Version:     1,
	}

	setJSONResponseType(&w)
	w.WriteHeader(http.StatusUnauthorized)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		api.Logger.Error("failed to encode invalid credentials response", "error", err)
	}
}

func (api *RestAPI) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	logging.LogError(logging.FromContext(r.Context()), "request failed", err,
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path))

	response := errorBody{
		Code:        http.StatusInternalServerError,
		CurrentTime: models.ResponseCurrentTime(),
		Text:        "internal server error",
		Version:     1,
	}

	setJSONResponseType(&w)
	w.WriteHeader(http.StatusInternalServerError)
	if encoderErr := json.NewEncoder(w).Encode(response); encoderErr != nil {
		api.Logger.Error("failed to encode server error response", "error", encoderErr)
	}
}

// validationErrorResponse sends a 400 Bad Request response with field-specific validation errors
func (api *RestAPI) validationErrorResponse(w http.ResponseWriter, r *http.Request, fieldErrors map[string][]string) {
	response := struct {
		FieldErrors map[string][]string `json:"fieldErrors"`
	}{
		FieldErrors: fieldErrors,
	}

	setJSONResponseType(&w)
	w.WriteHeader(http.StatusBadRequest)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		api.Logger.Error("failed to encode validation error response", "error", err)
	}
}

// handleError maps a domain error onto its HTTP response.
func (api *RestAPI) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *fleet.ValidationError
	switch {
	case errors.As(err, &verr):
		api.validationErrorResponse(w, r, verr.Fields)
	case errors.Is(err, route.ErrInvalidTable), errors.Is(err, search.ErrInvalidTime),
		errors.Is(err, blobstore.ErrEmptyBlob), errors.Is(err, blobstore.ErrInvalidPath):
		api.errorResponse(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, fleet.ErrBusNotFound), errors.Is(err, fleet.ErrRouteNotFound),
		errors.Is(err, fleet.ErrTimingNotFound):
		api.errorResponse(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, fleet.ErrDuplicateBusName):
		api.errorResponse(w, r, http.StatusConflict,
			err.Error()+"; resubmit with confirmDuplicate to register it anyway")
	case errors.Is(err, auth.ErrAccountExists):
		api.errorResponse(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		api.invalidCredentialsResponse(w, r)
	case errors.Is(err, blobstore.ErrUnsupportedMedia):
		api.errorResponse(w, r, http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, blobstore.ErrBlobTooLarge):
		api.errorResponse(w, r, http.StatusRequestEntityTooLarge, err.Error())
	default:
		api.serverErrorResponse(w, r, err)
	}
}

// panicResponse is installed as the router's panic handler.
func (api *RestAPI) panicResponse(w http.ResponseWriter, r *http.Request, recovered interface{}) {
	api.Logger.Error("panic serving request",
		"panic", recovered,
		"method", r.Method,
		"path", r.URL.Path,
		"component", "http_server")

	api.serverErrorResponse(w, r, errors.New("handler panicked"))
}
