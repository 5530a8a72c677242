package app

import (
	"net/http"
	"strings"

	"busroot.app/internal/appconf"
	"busroot.app/internal/auth"
)

// AuthenticateAdmin checks a username and password against the configured
// administrator allow-list.
func (app *Application) AuthenticateAdmin(username, password string) (appconf.AdminPrincipal, bool) {
	for _, admin := range app.Config.Admins {
		if admin.Username == username && auth.CheckPassword(admin.PasswordHash, password) {
			return admin, true
		}
	}
	return appconf.AdminPrincipal{}, false
}

// BearerToken returns the token of an "Authorization: Bearer" header.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// RequestSession returns the live session named by the request's bearer token.
func (app *Application) RequestSession(r *http.Request) (auth.Session, bool) {
	token := BearerToken(r)
	if token == "" || app.Sessions == nil {
		return auth.Session{}, false
	}
	return app.Sessions.Lookup(token)
}
