// internal/app/features/members/routes.go
package members

import (
	"github.com/go-chi/chi/v5"
	"github.com/mta-community/mtahub/internal/app/system/auth"
)

// Routes mounts all member routes under the path where the caller mounts it.
// Typically: r.Mount("/admin/members", members.Routes(handler, sessionMgr))
// Role checks happen per operation inside the lifecycle manager.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/", h.ServeList)
		pr.Get("/{id}", h.ServeView)
		pr.Patch("/{id}", h.HandleEdit)
		pr.Delete("/{id}", h.HandleDelete)
		pr.Post("/{id}/status", h.HandleStatus)
		pr.Get("/{id}/payments", h.ServePayments)
		pr.Post("/{id}/payments", h.HandleAddPayment)
		pr.Post("/{id}/activate", h.HandleActivate)
	})

	return r
}
