package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
	"github.com/straye-as/erp-desk/internal/auth"
	"github.com/straye-as/erp-desk/internal/config"
	"go.uber.org/zap"
)

// CORS returns a CORS middleware configured from the application config.
// The session and theme headers are always allowed, and the session header is
// always exposed, so browser clients can keep their anonymous session.
func CORS(cfg *config.CORSConfig, environment string, logger *zap.Logger) func(http.Handler) http.Handler {
	options := cors.Options{
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   withHeaders(cfg.AllowedHeaders, "Authorization", "Content-Type", auth.SessionHeader, auth.ThemeHeader),
		ExposedHeaders:   withHeaders(cfg.ExposedHeaders, auth.SessionHeader, RequestIDHeader, "Content-Disposition"),
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}

	devMode := environment == "development" || environment == "local" || environment == ""
	allowAny := func(r *http.Request, origin string) bool { return origin != "" }

	switch {
	case containsOrigin(cfg.AllowedOrigins, "*"):
		if !devMode {
			logger.Warn("CORS configured with wildcard origin in non-development environment",
				zap.String("environment", environment))
		}
		options.AllowOriginFunc = allowAny
	case len(cfg.AllowedOrigins) > 0:
		options.AllowedOrigins = cfg.AllowedOrigins
		logger.Info("CORS configured with explicit origins", zap.Strings("origins", cfg.AllowedOrigins))
	case devMode:
		options.AllowOriginFunc = allowAny
		logger.Info("CORS configured to allow all origins in development mode")
	default:
		// empty AllowedOrigins means "*" to go-chi/cors
		options.AllowOriginFunc = func(r *http.Request, origin string) bool { return false }
		logger.Warn("CORS configured with no allowed origins - all cross-origin requests will be denied",
			zap.String("environment", environment))
	}

	return cors.Handler(options)
}

func containsOrigin(origins []string, want string) bool {
	for _, o := range origins {
		if o == want {
			return true
		}
	}
	return false
}

// withHeaders appends required headers missing from configured
func withHeaders(configured []string, required ...string) []string {
	out := append([]string{}, configured...)
	for _, h := range required {
		found := false
		for _, c := range out {
			if strings.EqualFold(c, h) || c == "*" {
				found = true
				break
			}
		}
		if !found {
			out = append(out, h)
		}
	}
	return out
}
