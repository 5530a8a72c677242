package restapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"busroot.app/internal/models"
)

func TestFeedbackEndpoints(t *testing.T) {
	api := createTestApi(t)
	server := newTestServer(t, api)

	for _, name := range []string{"First", "Second"} {
		resp, body := callApi(t, server, http.MethodPost, "/api/feedback",
			models.Feedback{Name: name, FeedbackText: "Clean bus, on time", Rating: 5}, "")
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
		saved := decodeEntry[models.Feedback](t, body)
		assert.NotEmpty(t, saved.ID)
	}

	resp, body := callApi(t, server, http.MethodGet, "/api/feedback", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decodeList[models.Feedback](t, body)
	require.Len(t, list, 2)
	assert.Equal(t, "Second", list[0].Name, "newest first")
	assert.NotEmpty(t, list[0].Timestamp)
}

func TestFeedbackValidation(t *testing.T) {
	api := createTestApi(t)
	server := newTestServer(t, api)

	tests := []struct {
		name     string
		feedback models.Feedback
		field    string
	}{
		{name: "rating too high", feedback: models.Feedback{Name: "A", FeedbackText: "ok", Rating: 6}, field: "rating"},
		{name: "rating missing", feedback: models.Feedback{Name: "A", FeedbackText: "ok"}, field: "rating"},
		{name: "blank name", feedback: models.Feedback{Name: "  ", FeedbackText: "ok", Rating: 3}, field: "name"},
		{name: "markup only text", feedback: models.Feedback{Name: "A", FeedbackText: "<b></b>", Rating: 3}, field: "feedbackText"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := callApi(t, server, http.MethodPost, "/api/feedback", tt.feedback, "")
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Contains(t, decodeFieldErrors(t, body), tt.field)
		})
	}
}
