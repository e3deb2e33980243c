// internal/app/features/sponsorportal/routes.go
package sponsorportal

import (
	"github.com/go-chi/chi/v5"
	"github.com/mta-community/mtahub/internal/app/system/auth"
	"github.com/mta-community/mtahub/internal/domain/models"
)

// Routes mounts the portal at /sponsor-portal. Login is public; /me needs
// a sponsor session.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Post("/login", h.HandleLogin)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(models.RoleSponsor))

		pr.Get("/me", h.ServeMe)
		pr.Patch("/me", h.HandlePatchMe)
	})
	return r
}

// AdminRoutes mounts code issuing at /admin/sponsors.
func AdminRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Post("/{id}/access-code", h.HandleIssueCode)
	})
	return r
}
