package restapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"busroot.app/internal/models"
)

// maxJSONBody caps JSON request bodies. Distance tables and full bus records
// stay far below it.
const maxJSONBody = 1 << 20

func (api *RestAPI) sendResponse(w http.ResponseWriter, r *http.Request, response models.ResponseModel) {
	setJSONResponseType(&w)
	if response.Code != 0 && response.Code != http.StatusOK {
		w.WriteHeader(response.Code)
	}
	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}
}

func (api *RestAPI) sendNotFound(w http.ResponseWriter, r *http.Request) {
	setJSONResponseType(&w)
	w.WriteHeader(http.StatusNotFound)

	response := models.ResponseModel{
		Code:        http.StatusNotFound,
		CurrentTime: models.ResponseCurrentTime(),
		Text:        "resource not found",
		Version:     2,
	}

	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}
}

func (api *RestAPI) sendMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	api.errorResponse(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func setJSONResponseType(w *http.ResponseWriter) {
	(*w).Header().Set("Content-Type", "application/json")
}

// readJSON decodes a JSON request body into dst. Failures come back as field
// errors under "body", ready for validationErrorResponse.
func readJSON(w http.ResponseWriter, r *http.Request, dst any) map[string][]string {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		var msg string
		switch {
		case errors.Is(err, io.EOF):
			msg = "request body is empty"
		case errors.As(err, &maxErr):
			msg = fmt.Sprintf("request body must not exceed %d bytes", maxErr.Limit)
		default:
			msg = "malformed JSON: " + err.Error()
		}
		return map[string][]string{"body": {msg}}
	}
	if dec.More() {
		return map[string][]string{"body": {"request body must contain a single JSON value"}}
	}
	return nil
}
