package auth

import (
	"context"
	"strings"
)

// UserContext holds authenticated user information
type UserContext struct {
	UserID      string
	DisplayName string
	Email       string
	Roles       []string
	IsAdmin     bool
	// AccessToken is forwarded to the ERP API when enabled
	AccessToken string
}

// Theme is the UI theme preference carried with each request
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme returns the theme named by s, or def when s is not a theme
func ParseTheme(s string, def Theme) Theme {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case ThemeLight:
		return ThemeLight
	case ThemeDark:
		return ThemeDark
	}
	return def
}

// AppContext is the explicit per-request application context. It replaces
// any process-wide notion of "current user" or "current theme".
type AppContext struct {
	User      *UserContext
	Theme     Theme
	SessionID string
}

// Anonymous reports whether no user is attached
func (a *AppContext) Anonymous() bool {
	return a == nil || a.User == nil
}

type contextKey string

const appContextKey contextKey = "appContext"

// WithAppContext adds the application context to ctx
func WithAppContext(ctx context.Context, app *AppContext) context.Context {
	return context.WithValue(ctx, appContextKey, app)
}

// FromContext extracts the application context from ctx
func FromContext(ctx context.Context) (*AppContext, bool) {
	app, ok := ctx.Value(appContextKey).(*AppContext)
	return app, ok
}

// MustFromContext extracts the application context or panics
func MustFromContext(ctx context.Context) *AppContext {
	app, ok := FromContext(ctx)
	if !ok {
		panic("app context not found in context")
	}
	return app
}

// SessionID returns the session of ctx, empty when none is attached
func SessionID(ctx context.Context) string {
	if app, ok := FromContext(ctx); ok {
		return app.SessionID
	}
	return ""
}

// HasRole checks if user has a specific role
func (u *UserContext) HasRole(role string) bool {
	for _, r := range u.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// HasAnyRole checks if user has any of the specified roles
func (u *UserContext) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		if u.HasRole(role) {
			return true
		}
	}
	return false
}

// IsAdministrator reports the admin flag or the admin role
func (u *UserContext) IsAdministrator() bool {
	return u.IsAdmin || u.HasRole("admin")
}
