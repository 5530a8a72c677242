package restapi

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"busroot.app/internal/models"
	"busroot.app/internal/route"
)

func abcdTable() route.Table {
	return route.Table{
		Start: "A",
		End:   "D",
		IntermediateStops: []route.IntermediateStop{
			{Stop: "B", Distance: 2},
			{Stop: "C", Distance: 3},
		},
		LastSegmentDistance: 5,
	}
}

// seedRecalculatedBus registers a bus on A-B-C-D, stores the A-D table and
// recalculates, so both timings carry a 10 km distance.
func seedRecalculatedBus(t *testing.T, server *httptest.Server) models.Bus {
	t.Helper()
	bus := registerBus(t, server, "Express", "operator@example.com")
	token := adminToken(t, server)

	resp, body := callApi(t, server, http.MethodPut, "/api/admin/distances/A/D", abcdTable(), token)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	resp, body = callApi(t, server, http.MethodPost, "/api/admin/buses/"+bus.ID+"/recalculate", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	return bus
}

func TestSearchBusesByName(t *testing.T) {
	api := createTestApi(t)
	server := newTestServer(t, api)
	registerBus(t, server, "Express", "one@example.com")
	registerBus(t, server, "City Circular", "two@example.com")

	tests := []struct {
		query string
		want  []string
	}{
		{query: "?name=express", want: []string{"Express"}},
		{query: "?name=CIRC", want: []string{"City Circular"}},
		{query: "?name=" + url.QueryEscape("Express বাস"), want: []string{"Express"}},
		{query: "?name=airport", want: []string{}},
		{query: "", want: []string{"Express", "City Circular"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp, body := callApi(t, server, http.MethodGet, "/api/search/buses"+tt.query, nil, "")
			require.Equal(t, http.StatusOK, resp.StatusCode)

			names := []string{}
			for _, bus := range decodeList[models.Bus](t, body) {
				names = append(names, bus.BusName.English)
			}
			assert.ElementsMatch(t, tt.want, names)
		})
	}

	resp, body := callApi(t, server, http.MethodGet, "/api/search/buses?name=%3Cscript%3E", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decodeFieldErrors(t, body), "name")
}

func TestSearchRoutes(t *testing.T) {
	api := createTestApi(t)
	server := newTestServer(t, api)
	seedRecalculatedBus(t, server)

	t.Run("window and fare", func(t *testing.T) {
		resp, body := callApi(t, server, http.MethodGet,
			"/api/search/routes?start=a&end=d&startTime=07:00&endTime=09:00", nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

		buses := decodeList[models.Bus](t, body)
		require.Len(t, buses, 1)
		require.Len(t, buses[0].Timings, 1)
		timing := buses[0].Timings[0]
		assert.Equal(t, "08:00", timing.Time)
		require.NotNil(t, timing.Distance)
		require.NotNil(t, timing.Fare)
		assert.Equal(t, 10.0, *timing.Distance)
		assert.Equal(t, 25.0, *timing.Fare)
	})

	t.Run("reverse direction", func(t *testing.T) {
		resp, body := callApi(t, server, http.MethodGet, "/api/search/routes?start=D&end=A", nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		buses := decodeList[models.Bus](t, body)
		require.Len(t, buses, 1)
		assert.Equal(t, "18:00", buses[0].Timings[0].Time)
	})

	t.Run("outside the window", func(t *testing.T) {
		resp, body := callApi(t, server, http.MethodGet,
			"/api/search/routes?start=A&end=D&startTime=09:00&endTime=10:00", nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Empty(t, decodeList[models.Bus](t, body))
	})

	t.Run("validation", func(t *testing.T) {
		resp, body := callApi(t, server, http.MethodGet, "/api/search/routes?end=D&startTime=8am&endTime=09:00", nil, "")
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		fieldErrors := decodeFieldErrors(t, body)
		assert.Contains(t, fieldErrors, "start")
		assert.Contains(t, fieldErrors, "startTime")
		assert.NotContains(t, fieldErrors, "endTime")
	})
}

func TestLocations(t *testing.T) {
	api := createTestApi(t)
	server := newTestServer(t, api)
	registerBus(t, server, "Express", "one@example.com")

	resp, body := callApi(t, server, http.MethodGet, "/api/locations", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"a", "b", "c", "d"}, decodeList[string](t, body))

	resp, body = callApi(t, server, http.MethodGet, "/api/locations?prefix=C", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"c"}, decodeList[string](t, body))

	resp, body = callApi(t, server, http.MethodGet, "/api/locations?prefix=", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decodeList[string](t, body))
}
