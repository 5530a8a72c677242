package utils

import (
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
)

// ExtractParam retrieves a path parameter stored in the request context by
// httprouter, with surrounding whitespace removed.
func ExtractParam(r *http.Request, paramName string) string {
	params := httprouter.ParamsFromContext(r.Context())
	return strings.TrimSpace(params.ByName(paramName))
}
