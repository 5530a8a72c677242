package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
)

func TestExtractParam(t *testing.T) {
	testCases := []struct {
		name string
		path string
		want string
	}{
		{name: "Basic ID", path: "/buses/123", want: "123"},
		{name: "Escaped spaces", path: "/buses/Salt%20Lake", want: "Salt Lake"},
		{name: "Surrounding whitespace", path: "/buses/%20abc%20", want: "abc"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			router := httprouter.New()

			var result string
			router.Handler(http.MethodGet, "/buses/:id", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				result = ExtractParam(r, "id")
			}))

			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			router.ServeHTTP(httptest.NewRecorder(), req)

			assert.Equal(t, tc.want, result)
		})
	}
}

func TestExtractParamWithoutRouter(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/buses/123", nil)
	assert.Equal(t, "", ExtractParam(req, "id"))
}
