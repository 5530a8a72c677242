package webui

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"busroot.app/internal/app"
)

// WebUI serves HTML dumps of the stored collections for operators.
type WebUI struct {
	*app.Application
}

func (webUI *WebUI) SetWebUIRoutes(router *httprouter.Router) {
	router.HandlerFunc(http.MethodGet, "/debug/", webUI.debugIndexHandler)
}
