package restapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"busroot.app/docstore"
	"busroot.app/internal/app"
	"busroot.app/internal/appconf"
	"busroot.app/internal/auth"
	"busroot.app/internal/blobstore"
	"busroot.app/internal/fleet"
	"busroot.app/internal/logging"
	"busroot.app/internal/models"
)

const (
	testAdminUser     = "admin"
	testAdminPassword = "Admin123!"
	testPassword      = "Secret1!"
)

// createTestApi builds a RestAPI over an in-memory document store and a
// temporary blob directory. Rate limiting is off unless the test sets it.
func createTestApi(t *testing.T) *RestAPI {
	t.Helper()
	return createTestApiWithRateLimit(t, -1)
}

func createTestApiWithRateLimit(t *testing.T, rateLimit int) *RestAPI {
	t.Helper()

	store, err := docstore.NewClient(docstore.NewConfig(":memory:", appconf.Test, false))
	require.NoError(t, err)

	blobs, err := blobstore.NewFileStore(t.TempDir(), "/blobs")
	require.NoError(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte(testAdminPassword), bcrypt.MinCost)
	require.NoError(t, err)

	logger := logging.NewStructuredLogger(io.Discard, slog.LevelInfo)

	application := &app.Application{
		Config: appconf.Config{
			Env:       appconf.Test,
			RateLimit: rateLimit,
			Admins:    []appconf.AdminPrincipal{{Username: testAdminUser, PasswordHash: string(hash)}},
		},
		Logger:   logger,
		Store:    store,
		Blobs:    blobs,
		Sessions: auth.NewSessions(time.Hour, time.Hour),
		Fleet:    fleet.NewManager(store, blobs, auth.NewProvider(store, bcrypt.MinCost), logger),
	}

	api := NewRestAPI(application)
	t.Cleanup(func() {
		api.Close()
		application.Shutdown()
	})
	return api
}

func newTestServer(t *testing.T, api *RestAPI) *httptest.Server {
	t.Helper()
	router := httprouter.New()
	api.SetRoutes(router)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

// callApi sends body (JSON-encoded unless it is already a []byte) and returns
// the response with its body read.
func callApi(t *testing.T, server *httptest.Server, method, path string, body any, token string) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	default:
		encoded, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := server.Client().Do(req)
	require.NoError(t, err)
	defer logging.SafeCloseWithLogging(resp.Body,
		slog.Default().With(slog.String("component", "test")),
		"http_response_body")

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decodeEnvelope(t *testing.T, body []byte) models.ResponseModel {
	t.Helper()
	var response models.ResponseModel
	require.NoError(t, json.Unmarshal(body, &response), string(body))
	return response
}

func decodeEntry[T any](t *testing.T, body []byte) T {
	t.Helper()
	var envelope struct {
		Data struct {
			Entry T `json:"entry"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &envelope), string(body))
	return envelope.Data.Entry
}

func decodeList[T any](t *testing.T, body []byte) []T {
	t.Helper()
	var envelope struct {
		Data struct {
			List []T `json:"list"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &envelope), string(body))
	return envelope.Data.List
}

func decodeFieldErrors(t *testing.T, body []byte) map[string][]string {
	t.Helper()
	var response struct {
		FieldErrors map[string][]string `json:"fieldErrors"`
	}
	require.NoError(t, json.Unmarshal(body, &response), string(body))
	return response.FieldErrors
}

func adminToken(t *testing.T, server *httptest.Server) string {
	t.Helper()
	resp, body := callApi(t, server, http.MethodPost, "/api/admin/login",
		credentialsRequest{Username: testAdminUser, Password: testAdminPassword}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	return decodeEntry[auth.Session](t, body).Token
}

func sampleBus(name, email string) models.Bus {
	return models.Bus{
		BusName: models.BusName{English: name, Bengali: name + " বাস", Hindi: name + " बस"},
		Route: models.BusRoute{
			StartLocation:     "A",
			DepartureLocation: "D",
			IntermediateStops: []string{"B", "C"},
		},
		Timings: []models.Timing{
			{Start: "A", End: "D", Time: "08:00"},
			{Start: "D", End: "A", Time: "18:00"},
		},
		RegistrationNumber: "WB-01-0001",
		BusType:            "AC",
		SeatingCapacity:    40,
		OwnerDetails:       models.OwnerDetails{Name: "Owner", Contact: "12345", Address: "Kolkata"},
		PriceDetails:       models.PriceDetails{PerKmAdult: 2.5, PerKmNonAdult: 1.5},
		Email:              email,
	}
}

func registerBus(t *testing.T, server *httptest.Server, name, email string) models.Bus {
	t.Helper()
	resp, body := callApi(t, server, http.MethodPost, "/api/buses", registerBusRequest{
		Bus:             sampleBus(name, email),
		Password:        testPassword,
		ConfirmPassword: testPassword,
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	return decodeEntry[models.Bus](t, body)
}

func operatorToken(t *testing.T, server *httptest.Server, email string) string {
	t.Helper()
	resp, body := callApi(t, server, http.MethodPost, "/api/operators/login",
		credentialsRequest{Email: email, Password: testPassword}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	return decodeEntry[operatorSession](t, body).Session.Token
}
