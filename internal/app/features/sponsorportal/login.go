// internal/app/features/sponsorportal/login.go
package sponsorportal

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/mta-community/mtahub/internal/app/content"
	apierr "github.com/mta-community/mtahub/internal/app/features/errors"
	"github.com/mta-community/mtahub/internal/app/store/sponsoraccess"
	"github.com/mta-community/mtahub/internal/app/system/auth"
	"github.com/mta-community/mtahub/internal/app/system/timeouts"
	"github.com/mta-community/mtahub/internal/domain/models"
	"go.uber.org/zap"
)

type loginRequest struct {
	SponsorID  string `json:"sponsor_id"`
	AccessCode string `json:"access_code"`
}

var errBadCode = apierr.Body{Error: "invalid sponsor id or access code"}

// HandleLogin handles POST /sponsor-portal/login. Unknown sponsors, sponsors
// without a code and wrong codes all get the same 401.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := apierr.Decode(w, r, &req); err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	id := strings.TrimSpace(req.SponsorID)
	if id == "" || req.AccessCode == "" {
		apierr.JSON(w, http.StatusUnauthorized, errBadCode)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if h.Limiter != nil {
		if ok, reason := h.Limiter.Check(r, "sponsor:"+id); !ok {
			h.Audit.SponsorLogin(ctx, r, id, false)
			apierr.JSON(w, http.StatusTooManyRequests, apierr.Body{Error: reason})
			return
		}
	}

	sp, lookupErr := h.Sponsors.Lookup(ctx, id)
	if lookupErr != nil && !errors.Is(lookupErr, content.ErrNotFound) {
		apierr.WriteJSON(w, r, h.Log, lookupErr)
		return
	}

	// Unknown sponsors still go through Check: every miss costs one bcrypt
	// comparison, whatever the reason.
	ok, err := h.Codes.Check(ctx, id, req.AccessCode)
	if err != nil && !errors.Is(err, sponsoraccess.ErrNoCode) {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	if lookupErr != nil || !ok {
		h.Audit.SponsorLogin(ctx, r, id, false)
		apierr.JSON(w, http.StatusUnauthorized, errBadCode)
		return
	}

	if err := h.SessionMgr.Login(w, r, auth.SessionUser{
		ID:        id,
		Name:      sp.Name,
		Email:     sp.ContactEmail,
		Role:      models.RoleSponsor,
		SponsorID: id,
	}); err != nil {
		h.Log.Error("sponsor login: save session", zap.Error(err))
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	if h.Limiter != nil {
		h.Limiter.ResetAccount("sponsor:" + id)
	}
	h.Audit.SponsorLogin(ctx, r, id, true)

	apierr.JSON(w, http.StatusOK, newProfile(sp))
}
