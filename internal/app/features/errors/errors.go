// internal/app/features/errors/errors.go
package errors

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"

	"github.com/mta-community/mtahub/internal/app/content"
	"github.com/mta-community/mtahub/internal/app/lifecycle"
	outboxstore "github.com/mta-community/mtahub/internal/app/store/outbox"
	"github.com/mta-community/mtahub/internal/app/store/sponsoraccess"
	userstore "github.com/mta-community/mtahub/internal/app/store/users"
	"github.com/mta-community/mtahub/internal/app/system/authz"
	"github.com/mta-community/mtahub/internal/app/system/inputval"
	"go.uber.org/zap"
)

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 1 << 20

// Body is the JSON error envelope every handler writes.
type Body struct {
	Error  string                `json:"error"`
	Fields []inputval.FieldError `json:"fields,omitempty"`
}

var notFound = []error{
	lifecycle.ErrNotFound,
	content.ErrNotFound,
	content.ErrUnknownCollection,
	userstore.ErrNotFound,
	sponsoraccess.ErrNoCode,
}

var badRequest = []error{
	userstore.ErrInvalid,
}

var conflict = []error{
	lifecycle.ErrDuplicateEmail,
	lifecycle.ErrPaymentFinalized,
	lifecycle.ErrInvalidTransition,
	userstore.ErrDuplicateEmail,
	userstore.ErrLastAdmin,
	userstore.ErrSelfChange,
	outboxstore.ErrNotFailed,
}

// Status maps a domain error to an HTTP status code.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case fields(err) != nil, isAny(err, badRequest):
		return http.StatusBadRequest
	case stderrors.Is(err, authz.ErrPermissionDenied):
		return http.StatusForbidden
	case isAny(err, notFound):
		return http.StatusNotFound
	case isAny(err, conflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if stderrors.Is(err, t) {
			return true
		}
	}
	return false
}

// fields extracts per-field messages from either validation error type.
// A non-nil (possibly empty) slice means err is a validation error.
func fields(err error) []inputval.FieldError {
	var lv *lifecycle.ValidationError
	if stderrors.As(err, &lv) {
		if lv.Fields == nil {
			return []inputval.FieldError{}
		}
		return lv.Fields
	}
	var cv *content.ValidationError
	if stderrors.As(err, &cv) {
		if cv.Result == nil || cv.Result.Errors == nil {
			return []inputval.FieldError{}
		}
		return cv.Result.Errors
	}
	var bad *BadRequest
	if stderrors.As(err, &bad) {
		return []inputval.FieldError{}
	}
	return nil
}

// WriteJSON writes err as a JSON error with the mapped status. Server
// errors are logged and their text is not echoed to the client.
func WriteJSON(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	code := Status(err)
	body := Body{Error: err.Error(), Fields: fields(err)}
	if code == http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		body = Body{Error: "internal server error"}
	}
	JSON(w, code, body)
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// BadRequest reports a body that could not be decoded.
type BadRequest struct {
	Msg string
}

func (e *BadRequest) Error() string { return e.Msg }

// Decode reads a JSON body into dst, rejecting unknown fields and oversized
// bodies.
func Decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if stderrors.Is(err, io.EOF) {
			return &BadRequest{Msg: "request body is empty"}
		}
		return &BadRequest{Msg: "request body is not valid JSON: " + err.Error()}
	}
	return nil
}

// ReadBody returns the raw body, capped at MaxBodyBytes.
func ReadBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		return nil, &BadRequest{Msg: "request body too large"}
	}
	return b, nil
}

// Unauthorized writes 401 for a request with no signed-in user.
func Unauthorized(w http.ResponseWriter) {
	JSON(w, http.StatusUnauthorized, Body{Error: "sign in required"})
}

// Actor returns the signed-in actor, writing 401 when there is none.
func Actor(w http.ResponseWriter, r *http.Request) (authz.Actor, bool) {
	a, ok := authz.ActorFrom(r)
	if !ok {
		Unauthorized(w)
	}
	return a, ok
}
