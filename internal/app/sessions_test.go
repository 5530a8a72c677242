package app

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"busroot.app/internal/appconf"
	"busroot.app/internal/auth"
)

func testApplication(t *testing.T) *Application {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("Admin123!"), bcrypt.MinCost)
	require.NoError(t, err)

	app := &Application{
		Config: appconf.Config{
			Admins: []appconf.AdminPrincipal{{Username: "admin", PasswordHash: string(hash)}},
		},
		Sessions: auth.NewSessions(time.Hour, time.Hour),
	}
	t.Cleanup(app.Shutdown)
	return app
}

func TestAuthenticateAdmin(t *testing.T) {
	app := testApplication(t)

	principal, ok := app.AuthenticateAdmin("admin", "Admin123!")
	assert.True(t, ok)
	assert.Equal(t, "admin", principal.Username)

	_, ok = app.AuthenticateAdmin("admin", "admin123!")
	assert.False(t, ok)

	_, ok = app.AuthenticateAdmin("root", "Admin123!")
	assert.False(t, ok)

	_, ok = app.AuthenticateAdmin("", "")
	assert.False(t, ok)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc123", "abc123"},
		{"bearer  abc123 ", "abc123"},
		{"Basic abc123", ""},
		{"abc123", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, BearerToken(r))
		})
	}
}

func TestRequestSession(t *testing.T) {
	app := testApplication(t)
	session := app.Sessions.Issue(auth.RoleAdmin, "admin", "")

	r := httptest.NewRequest("GET", "/api/admin/buses", nil)
	r.Header.Set("Authorization", "Bearer "+session.Token)

	got, ok := app.RequestSession(r)
	require.True(t, ok)
	assert.Equal(t, auth.RoleAdmin, got.Role)

	r.Header.Set("Authorization", "Bearer nope")
	_, ok = app.RequestSession(r)
	assert.False(t, ok)
}
