// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	healthfeature "github.com/dalemusser/orghub/internal/app/features/health"
	organizationsfeature "github.com/dalemusser/orghub/internal/app/features/organizations"
	"github.com/dalemusser/orghub/internal/app/system/identity"
	"github.com/dalemusser/orghub/internal/app/system/locale"
	"github.com/dalemusser/orghub/internal/app/system/metrics"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	return newRouter(deps, logger), nil
}

func newRouter(deps DBDeps, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	// Forwarded caller identity and Accept-Language for every request.
	r.Use(identity.LoadUser)
	r.Use(locale.Middleware)

	// Health check endpoint for load balancers and orchestrators
	checks := []healthfeature.Check{
		healthfeature.Mongo(deps.MongoClient),
		healthfeature.Blob(deps.Blobs),
	}
	if deps.Redis != nil {
		checks = append(checks, healthfeature.Redis(deps.Redis))
	}
	healthHandler := healthfeature.NewHandler(logger, checks...)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Handle("/metrics", metrics.Handler(deps.Core.Registry))

	orgHandler := organizationsfeature.NewHandler(deps.Core.Orgs, deps.Core.Assets, logger.Named("organizations"))
	orgHandler.WriteLimit = deps.Core.WriteLimit
	r.Mount("/organizations", organizationsfeature.Routes(orgHandler))

	return r
}
