// internal/app/features/stats/routes.go
package stats

import (
	"github.com/go-chi/chi/v5"
	"github.com/mta-community/mtahub/internal/app/system/auth"
)

// Routes serves /stats and /expire. Mount under /admin.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/stats", h.ServeStats)
		pr.Post("/expire", h.HandleExpire)
	})
	return r
}
