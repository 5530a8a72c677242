package restapi

import (
	"context"
	"net/http"

	"busroot.app/internal/auth"
	"busroot.app/internal/utils"
)

type sessionKey struct{}

func withSession(ctx context.Context, session auth.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

func sessionFromContext(ctx context.Context) (auth.Session, bool) {
	session, ok := ctx.Value(sessionKey{}).(auth.Session)
	return session, ok
}

// requireAdmin only lets through requests carrying an admin session token.
func (api *RestAPI) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := api.RequestSession(r)
		if !ok || session.Role != auth.RoleAdmin {
			api.invalidCredentialsResponse(w, r)
			return
		}
		next(w, r.WithContext(withSession(r.Context(), session)))
	}
}

// requireBusOwner lets through the operator signed in for the bus named in
// the path, and any admin.
func (api *RestAPI) requireBusOwner(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := api.RequestSession(r)
		if !ok {
			api.invalidCredentialsResponse(w, r)
			return
		}
		if session.Role != auth.RoleAdmin &&
			(session.Role != auth.RoleOperator || session.Subject != utils.ExtractParam(r, "id")) {
			api.invalidCredentialsResponse(w, r)
			return
		}
		next(w, r.WithContext(withSession(r.Context(), session)))
	}
}
