// internal/app/features/registration/routes.go
package registration

import (
	"github.com/go-chi/chi/v5"
	"github.com/mta-community/mtahub/internal/app/system/ratelimit"
)

// Routes serves POST / (mounted at /api/register) behind the per-IP limiter.
func Routes(h *Handler, limiter *ratelimit.Limiter) chi.Router {
	r := chi.NewRouter()
	if limiter != nil {
		r.Use(limiter.Middleware)
	}
	r.Post("/", h.HandleRegister)
	return r
}
