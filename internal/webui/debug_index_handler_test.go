package webui

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
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

func newTestWebUI(t *testing.T) (*WebUI, *httprouter.Router) {
	t.Helper()

	store, err := docstore.NewClient(docstore.NewConfig(":memory:", appconf.Test, false))
	require.NoError(t, err)
	blobs, err := blobstore.NewFileStore(t.TempDir(), "/blobs")
	require.NoError(t, err)
	logger := logging.NewStructuredLogger(io.Discard, slog.LevelInfo)

	application := &app.Application{
		Logger: logger,
		Store:  store,
		Blobs:  blobs,
		Fleet:  fleet.NewManager(store, blobs, auth.NewProvider(store, bcrypt.MinCost), logger),
	}
	t.Cleanup(application.Shutdown)

	webUI := &WebUI{Application: application}
	router := httprouter.New()
	webUI.SetWebUIRoutes(router)
	return webUI, router
}

func TestDebugIndexHandler(t *testing.T) {
	webUI, router := newTestWebUI(t)

	_, err := webUI.Fleet.SubmitFeedback(context.Background(), models.Feedback{
		Name:         "Rider",
		FeedbackText: "Driver was <polite>",
		Rating:       4,
	})
	require.NoError(t, err)

	tests := []struct {
		dataType string
		title    string
		contains string
	}{
		{dataType: "feedback", title: "Feedback", contains: "Rider"},
		{dataType: "counts", title: "Records per collection", contains: "feedback"},
		{dataType: "buses", title: "Buses", contains: "models.Bus"},
		{dataType: "distances", title: "Route distance tables", contains: "route.Table"},
		{dataType: "", title: "Choose a data type", contains: "Please use one of the following"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/?dataType="+tt.dataType, nil))

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
			body := rec.Body.String()
			assert.Contains(t, body, "<title>"+tt.title+"</title>")
			assert.Contains(t, body, tt.contains)
		})
	}
}

func TestDebugIndexEscapesStoredText(t *testing.T) {
	webUI, router := newTestWebUI(t)

	_, err := webUI.Fleet.SubmitFeedback(context.Background(), models.Feedback{
		Name:         "<script>alert(1)</script>",
		FeedbackText: "text",
		Rating:       1,
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/?dataType=feedback", nil))

	assert.NotContains(t, rec.Body.String(), "<script>alert(1)</script>")
	assert.Contains(t, rec.Body.String(), "&lt;script&gt;")
}
