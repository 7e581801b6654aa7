// internal/app/features/organizations/routes.go
package organizations

import (
	"github.com/dalemusser/orghub/internal/app/system/identity"
	"github.com/go-chi/chi/v5"
)

// Routes mounts all Organization routes under the base path
// (typically "/organizations" from bootstrap). identity.LoadUser must run
// earlier in the chain.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	// Reads
	r.Get("/", h.ServeList)
	r.Get("/enterprise", h.ServeEnterprise)
	r.Get("/lookup", h.ServeLookup)
	r.Get("/{id}", h.ServeOrg)
	r.Get("/{id}/settings", h.ServeSettings)

	// Logos are stored private; only signed-in callers may fetch them.
	r.With(identity.RequireUser).Get("/{id}/logo", h.ServeLogo)

	// Writes need a caller
	r.Group(func(pr chi.Router) {
		pr.Use(identity.RequireUser)
		if h.WriteLimit != nil {
			pr.Use(h.WriteLimit)
		}

		pr.Post("/", h.HandleCreate)
		pr.Post("/default", h.HandleCreateDefault)
		pr.Patch("/{id}", h.HandleUpdate)
		pr.Delete("/{id}", h.HandleDelete)
		pr.Put("/{id}/settings/{key}", h.HandlePutSetting)
		pr.Post("/{id}/logo", h.HandleUploadLogo)
		pr.Delete("/{id}/logo", h.HandleDeleteLogo)
		pr.Post("/{id}/provision", h.HandleProvision)
	})

	return r
}
