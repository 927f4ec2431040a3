package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/erp-desk/internal/config"
	"github.com/straye-as/erp-desk/internal/upstream"
	"go.uber.org/zap"
)

const (
	SessionHeader = "X-Session-ID"
	ThemeHeader   = "X-Theme"
	themeCookie   = "theme"
)

// Middleware attaches the AppContext to every request
type Middleware struct {
	jwtValidator *JWTValidator
	required     bool
	defaultTheme Theme
	logger       *zap.Logger
}

// NewMiddleware creates a new authentication middleware
func NewMiddleware(cfg *config.AuthConfig, logger *zap.Logger) *Middleware {
	return &Middleware{
		jwtValidator: NewJWTValidator(cfg),
		required:     cfg.Enabled,
		defaultTheme: ParseTheme(cfg.DefaultTheme, ThemeLight),
		logger:       logger,
	}
}

// Validator exposes the token validator
func (m *Middleware) Validator() *JWTValidator {
	return m.jwtValidator
}

// Authenticate resolves user, theme and session for the request. When
// authentication is required a missing or invalid bearer token is rejected;
// otherwise the request continues anonymously.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		app := &AppContext{Theme: m.theme(r)}
		ctx := r.Context()

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" && m.required {
			http.Error(w, "Unauthorized: missing authorization header", http.StatusUnauthorized)
			return
		}

		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				if m.required {
					http.Error(w, "Unauthorized: invalid authorization header format", http.StatusUnauthorized)
					return
				}
			} else {
				user, sessionID, err := m.jwtValidator.ValidateToken(parts[1])
				if err != nil {
					m.logger.Warn("token validation failed",
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.String("remote_addr", r.RemoteAddr),
						zap.Error(err),
					)
					if m.required {
						http.Error(w, "Unauthorized: "+err.Error(), http.StatusUnauthorized)
						return
					}
				} else {
					app.User = user
					app.SessionID = sessionID
					ctx = upstream.WithToken(ctx, user.AccessToken)
					m.logger.Debug("request authenticated",
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.String("user_id", user.UserID),
						zap.Duration("auth_duration", time.Since(start)),
					)
				}
			}
		}

		if app.SessionID == "" {
			app.SessionID = strings.TrimSpace(r.Header.Get(SessionHeader))
		}
		if app.SessionID == "" && app.User != nil {
			app.SessionID = "user:" + app.User.UserID
		}
		if app.SessionID == "" {
			// Anonymous callers get a fresh session they should send back
			app.SessionID = uuid.New().String()
		}
		w.Header().Set(SessionHeader, app.SessionID)

		next.ServeHTTP(w, r.WithContext(WithAppContext(ctx, app)))
	})
}

func (m *Middleware) theme(r *http.Request) Theme {
	if h := r.Header.Get(ThemeHeader); h != "" {
		return ParseTheme(h, m.defaultTheme)
	}
	if c, err := r.Cookie(themeCookie); err == nil {
		return ParseTheme(c.Value, m.defaultTheme)
	}
	return m.defaultTheme
}

// RequireAdmin ensures the caller is an administrator
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		app, ok := FromContext(r.Context())
		if !ok || app.Anonymous() {
			http.Error(w, "Forbidden: no user context", http.StatusForbidden)
			return
		}
		if !app.User.IsAdministrator() {
			http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
