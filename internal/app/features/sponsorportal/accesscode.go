// internal/app/features/sponsorportal/accesscode.go
package sponsorportal

import (
	"context"
	"crypto/rand"
	"math/big"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/mta-community/mtahub/internal/app/content"
	apierr "github.com/mta-community/mtahub/internal/app/features/errors"
	"github.com/mta-community/mtahub/internal/app/store/audit"
	"github.com/mta-community/mtahub/internal/app/system/authz"
	"github.com/mta-community/mtahub/internal/app/system/inputval"
	"github.com/mta-community/mtahub/internal/app/system/timeouts"
)

// codeAlphabet leaves out 0/O and 1/I/L so codes read back over the phone.
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const generatedCodeLen = 12

type codeInput struct {
	Code string `json:"code" validate:"omitempty,min=8,max=64"`
}

type codeResponse struct {
	SponsorID  string `json:"sponsor_id"`
	AccessCode string `json:"access_code"`
}

// HandleIssueCode handles POST /admin/sponsors/{id}/access-code. With no
// code in the body one is generated. The plain code is returned once and
// only its hash is stored.
func (h *Handler) HandleIssueCode(w http.ResponseWriter, r *http.Request) {
	actor, ok := apierr.Actor(w, r)
	if !ok {
		return
	}
	if !authz.IsAdminRole(actor.Role) {
		apierr.WriteJSON(w, r, h.Log, authz.ErrPermissionDenied)
		return
	}

	var in codeInput
	if r.ContentLength != 0 {
		if err := apierr.Decode(w, r, &in); err != nil {
			apierr.WriteJSON(w, r, h.Log, err)
			return
		}
	}
	in.Code = strings.TrimSpace(in.Code)
	if res := inputval.Validate(in); res.HasErrors() {
		apierr.WriteJSON(w, r, h.Log, &content.ValidationError{Result: res})
		return
	}
	if in.Code == "" {
		code, err := generateCode()
		if err != nil {
			apierr.WriteJSON(w, r, h.Log, err)
			return
		}
		in.Code = code
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	id := chi.URLParam(r, "id")
	if _, err := h.Sponsors.Lookup(ctx, id); err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	if err := h.Codes.SetCode(ctx, id, in.Code, actor.Name); err != nil {
		apierr.WriteJSON(w, r, h.Log, err)
		return
	}
	h.Audit.Admin(ctx, r, actor, audit.EventSponsorCodeIssued, "sponsor", id, nil)
	apierr.JSON(w, http.StatusCreated, codeResponse{SponsorID: id, AccessCode: in.Code})
}

func generateCode() (string, error) {
	b := make([]byte, generatedCodeLen)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = codeAlphabet[n.Int64()]
	}
	return string(b), nil
}
