package restapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"busroot.app/internal/auth"
	"busroot.app/internal/blobstore"
	"busroot.app/internal/fleet"
	"busroot.app/internal/logging"
	"busroot.app/internal/models"
	"busroot.app/internal/utils"
)

// maxRegistrationSize covers the bus JSON plus two images.
const maxRegistrationSize = 2*blobstore.MaxBlobSize + 1<<20

type registerBusRequest struct {
	Bus              models.Bus `json:"bus"`
	Password         string     `json:"password"`
	ConfirmPassword  string     `json:"confirmPassword"`
	ConfirmDuplicate bool       `json:"confirmDuplicate"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type operatorSession struct {
	Session auth.Session `json:"session"`
	Bus     models.Bus   `json:"bus"`
}

// registerBusHandler accepts either a multipart form (a "bus" JSON field,
// password fields and optional "front"/"rear" image files) or a plain JSON
// body without images.
func (api *RestAPI) registerBusHandler(w http.ResponseWriter, r *http.Request) {
	var (
		in          fleet.RegisterBusInput
		fieldErrors map[string][]string
	)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		in, fieldErrors = readRegistrationForm(w, r)
	} else {
		var req registerBusRequest
		fieldErrors = readJSON(w, r, &req)
		in = fleet.RegisterBusInput{
			Bus:              req.Bus,
			Password:         req.Password,
			ConfirmPassword:  req.ConfirmPassword,
			ConfirmDuplicate: req.ConfirmDuplicate,
		}
	}
	if fieldErrors != nil {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	bus, err := api.Fleet.RegisterBus(r.Context(), in)
	if err != nil {
		api.handleError(w, r, err)
		return
	}

	api.sendResponse(w, r, models.NewCreatedResponse(bus))
}

func readRegistrationForm(w http.ResponseWriter, r *http.Request) (fleet.RegisterBusInput, map[string][]string) {
	var in fleet.RegisterBusInput

	r.Body = http.MaxBytesReader(w, r.Body, maxRegistrationSize)
	if err := r.ParseMultipartForm(maxRegistrationSize); err != nil {
		return in, map[string][]string{"body": {"malformed multipart form: " + err.Error()}}
	}

	fieldErrors := make(map[string][]string)
	if err := json.Unmarshal([]byte(r.FormValue("bus")), &in.Bus); err != nil {
		fieldErrors["bus"] = append(fieldErrors["bus"], "must be a JSON bus record")
	}
	in.Password = r.FormValue("password")
	in.ConfirmPassword = r.FormValue("confirmPassword")
	if value := r.FormValue("confirmDuplicate"); value != "" {
		confirm, err := strconv.ParseBool(value)
		if err != nil {
			fieldErrors["confirmDuplicate"] = append(fieldErrors["confirmDuplicate"], "must be true or false")
		}
		in.ConfirmDuplicate = confirm
	}

	var err error
	if in.FrontImage, err = readFormFile(r, "front"); err != nil {
		fieldErrors["front"] = append(fieldErrors["front"], err.Error())
	}
	if in.RearImage, err = readFormFile(r, "rear"); err != nil {
		fieldErrors["rear"] = append(fieldErrors["rear"], err.Error())
	}

	if len(fieldErrors) > 0 {
		return in, fieldErrors
	}
	return in, nil
}

// readFormFile returns the uploaded file's bytes, or nil when the field is absent.
func readFormFile(r *http.Request, field string) ([]byte, error) {
	file, _, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not read upload: %w", err)
	}
	defer logging.SafeCloseWithLogging(file, logging.FromContext(r.Context()), "close_form_file")

	data, err := io.ReadAll(io.LimitReader(file, blobstore.MaxBlobSize+1))
	if err != nil {
		return nil, fmt.Errorf("could not read upload: %w", err)
	}
	if len(data) > blobstore.MaxBlobSize {
		return nil, fmt.Errorf("must not exceed %d bytes", blobstore.MaxBlobSize)
	}
	return data, nil
}

func (api *RestAPI) operatorLoginHandler(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if fieldErrors := readJSON(w, r, &req); fieldErrors != nil {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	bus, err := api.Fleet.OperatorLogin(r.Context(), req.Email, req.Password)
	if err != nil {
		api.handleError(w, r, err)
		return
	}

	session := api.Sessions.Issue(auth.RoleOperator, bus.Email, bus.ID)
	logging.LogOperation(api.Logger, "operator_signed_in",
		slog.String("bus_id", bus.ID))

	api.sendResponse(w, r, models.NewEntryResponse(operatorSession{Session: session, Bus: bus}))
}

// busID reads and validates the :id path parameter. It writes the error
// response itself and reports false when the id is unusable.
func (api *RestAPI) busID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := utils.ExtractParam(r, "id")
	if err := utils.ValidateID(id); err != nil {
		api.validationErrorResponse(w, r, map[string][]string{"id": {err.Error()}})
		return "", false
	}
	return id, true
}

func (api *RestAPI) getBusHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := api.busID(w, r)
	if !ok {
		return
	}

	bus, err := api.Fleet.GetBus(r.Context(), id)
	if err != nil {
		api.handleError(w, r, err)
		return
	}

	api.sendResponse(w, r, models.NewEntryResponse(bus))
}

func (api *RestAPI) updateBusHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := api.busID(w, r)
	if !ok {
		return
	}

	var update models.Bus
	if fieldErrors := readJSON(w, r, &update); fieldErrors != nil {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	bus, err := api.Fleet.UpdateBus(r.Context(), id, update)
	if err != nil {
		api.handleError(w, r, err)
		return
	}

	if session, ok := sessionFromContext(r.Context()); ok {
		logging.FromContext(r.Context()).Info("bus updated",
			slog.String("bus_id", id),
			slog.String("principal", session.Principal),
			slog.String("role", string(session.Role)))
	}

	api.sendResponse(w, r, models.NewEntryResponse(bus))
}

func (api *RestAPI) timingSlotsHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := api.busID(w, r)
	if !ok {
		return
	}

	slots, err := api.Fleet.TimingSlots(r.Context(), id)
	if err != nil {
		api.handleError(w, r, err)
		return
	}

	api.sendResponse(w, r, models.NewListResponse(slots))
}
