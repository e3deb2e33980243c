// internal/app/features/outbox/routes.go
package outbox

import (
	"github.com/go-chi/chi/v5"
	"github.com/mta-community/mtahub/internal/app/system/auth"
)

// Routes mounts at /admin/outbox.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeList)
	r.Post("/{id}/retry", h.HandleRetry)
	return r
}
