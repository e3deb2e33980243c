// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/go-chi/chi/v5"
	"github.com/mta-community/mtahub/internal/app/system/auth"
	"github.com/mta-community/mtahub/internal/domain/models"
)

// Routes mounts the audit log under /admin/audit. Audit events include
// failed sign-in emails, so only admins may read them.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(models.RoleAdmin))

		pr.Get("/", h.ServeList)
	})

	return r
}
