// internal/app/features/about/routes.go
package about

import (
	"github.com/go-chi/chi/v5"
	"github.com/mta-community/mtahub/internal/app/system/auth"
)

// AdminRoutes mounts at /admin/about. The public page is served by
// ServeAbout at /api/about.
func AdminRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeEdit)
	r.Put("/", h.HandleEdit)
	return r
}
