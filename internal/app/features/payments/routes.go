// internal/app/features/payments/routes.go
package payments

import (
	"github.com/go-chi/chi/v5"
	"github.com/mta-community/mtahub/internal/app/system/auth"
)

// Routes mounts the payment verification queue.
// Typically: r.Mount("/admin/payments", payments.Routes(handler, sessionMgr))
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.ServeList)
		pr.Post("/{id}/verify", h.HandleVerify)
		pr.Post("/{id}/reject", h.HandleReject)
	})
	return r
}
