package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/straye-as/erp-desk/internal/auth"
	"github.com/straye-as/erp-desk/internal/config"
	"github.com/straye-as/erp-desk/internal/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(enabled bool) *config.AuthConfig {
	return &config.AuthConfig{
		Enabled:      enabled,
		JWTSecret:    "test-secret",
		Issuer:       "erp",
		DefaultTheme: "dark",
	}
}

func captureApp(t *testing.T, mw *auth.Middleware, req *http.Request) (*auth.AppContext, string, *httptest.ResponseRecorder) {
	t.Helper()
	var app *auth.AppContext
	var token string
	h := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		app = auth.MustFromContext(r.Context())
		token = upstream.TokenFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return app, token, rec
}

func TestJWTValidator_RoundTrip(t *testing.T) {
	v := auth.NewJWTValidator(testConfig(true))
	user := &auth.UserContext{UserID: "u-1", DisplayName: "Asha", Roles: []string{"Sales"}}

	token, err := v.IssueToken(user, "sess-9", time.Hour)
	require.NoError(t, err)

	got, sid, err := v.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.UserID)
	assert.Equal(t, "sess-9", sid)
	assert.True(t, got.HasRole("sales"))
	assert.False(t, got.IsAdministrator())
}

func TestJWTValidator_Rejects(t *testing.T) {
	v := auth.NewJWTValidator(testConfig(true))

	expired, err := v.IssueToken(&auth.UserContext{UserID: "u-1"}, "", -time.Minute)
	require.NoError(t, err)
	_, _, err = v.ValidateToken(expired)
	assert.ErrorIs(t, err, auth.ErrExpiredToken)

	other := auth.NewJWTValidator(&config.AuthConfig{JWTSecret: "other", Issuer: "erp"})
	forged, err := other.IssueToken(&auth.UserContext{UserID: "u-1"}, "", time.Hour)
	require.NoError(t, err)
	_, _, err = v.ValidateToken(forged)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, _, err = v.ValidateToken("garbage")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestMiddleware_RequiredAuth(t *testing.T) {
	mw := auth.NewMiddleware(testConfig(true), zap.NewNop())

	_, _, rec := captureApp(t, mw, httptest.NewRequest(http.MethodGet, "/api/v1/inquiries", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := mw.Validator().IssueToken(&auth.UserContext{UserID: "u-1", IsAdmin: true}, "sess-1", time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/inquiries", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(auth.ThemeHeader, "LIGHT")

	app, forwarded, rec := captureApp(t, mw, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u-1", app.User.UserID)
	assert.Equal(t, "sess-1", app.SessionID)
	assert.Equal(t, auth.ThemeLight, app.Theme)
	assert.Equal(t, token, forwarded)
	assert.Equal(t, "sess-1", rec.Header().Get(auth.SessionHeader))
}

func TestMiddleware_AnonymousSessions(t *testing.T) {
	mw := auth.NewMiddleware(testConfig(false), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(auth.SessionHeader, "browser-tab-1")
	app, _, rec := captureApp(t, mw, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, app.Anonymous())
	assert.Equal(t, "browser-tab-1", app.SessionID)
	assert.Equal(t, auth.ThemeDark, app.Theme)

	first, _, _ := captureApp(t, mw, httptest.NewRequest(http.MethodGet, "/", nil))
	second, _, _ := captureApp(t, mw, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, first.SessionID)
	assert.NotEqual(t, first.SessionID, second.SessionID)

	cookieReq := httptest.NewRequest(http.MethodGet, "/", nil)
	cookieReq.AddCookie(&http.Cookie{Name: "theme", Value: "light"})
	fromCookie, _, _ := captureApp(t, mw, cookieReq)
	assert.Equal(t, auth.ThemeLight, fromCookie.Theme)
}

func TestRequireAdmin(t *testing.T) {
	mw := auth.NewMiddleware(testConfig(false), zap.NewNop())
	h := mw.Authenticate(mw.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	token, err := mw.Validator().IssueToken(&auth.UserContext{UserID: "u-2", Roles: []string{"admin"}}, "", time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
