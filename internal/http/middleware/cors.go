package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
	"github.com/medisupply/devis-api/internal/config"
	"go.uber.org/zap"
)

// CORS builds the cross-origin policy from configuration. With no configured
// origins, development allows everything and any other environment denies
// everything; a "*" entry allows all origins but logs a warning outside
// development.
func CORS(cfg *config.CORSConfig, environment string, logger *zap.Logger) func(http.Handler) http.Handler {
	options := cors.Options{
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		ExposedHeaders:   cfg.ExposedHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}

	allowAll := func(r *http.Request, origin string) bool {
		return origin != ""
	}
	isDev := environment == "development" || environment == "local" || environment == ""

	switch {
	case hasWildcard(cfg.AllowedOrigins):
		if !isDev {
			logger.Warn("CORS configured with wildcard origin in non-development environment",
				zap.String("environment", environment))
		}
		options.AllowOriginFunc = allowAll

	case len(cfg.AllowedOrigins) > 0:
		options.AllowedOrigins = cfg.AllowedOrigins
		logger.Info("CORS configured with explicit origins",
			zap.Strings("origins", cfg.AllowedOrigins))

	case isDev:
		options.AllowOriginFunc = allowAll
		logger.Info("CORS configured to allow all origins in development mode")

	default:
		// An empty AllowedOrigins list makes go-chi/cors default to "*", so
		// denying everything needs an explicit func.
		options.AllowOriginFunc = func(r *http.Request, origin string) bool {
			return false
		}
		logger.Warn("CORS configured with no allowed origins, all cross-origin requests will be denied",
			zap.String("environment", environment))
	}

	return cors.Handler(options)
}

func hasWildcard(origins []string) bool {
	for _, origin := range origins {
		if origin == "*" {
			return true
		}
	}
	return false
}
