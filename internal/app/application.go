package app

import (
	"log/slog"

	"busroot.app/docstore"
	"busroot.app/internal/appconf"
	"busroot.app/internal/auth"
	"busroot.app/internal/blobstore"
	"busroot.app/internal/fleet"
	"busroot.app/internal/logging"
)

// Application holds the dependencies for our HTTP handlers, helpers,
// and middleware.
type Application struct {
	Config   appconf.Config
	Logger   *slog.Logger
	Store    *docstore.Client
	Blobs    *blobstore.FileStore
	Sessions *auth.Sessions
	Fleet    *fleet.Manager
}

// Shutdown stops the session janitor and closes the document store.
func (app *Application) Shutdown() {
	if app.Sessions != nil {
		app.Sessions.Stop()
	}
	if app.Store != nil {
		logging.SafeCloseWithLogging(app.Store, app.Logger, "close_document_store")
	}
}
