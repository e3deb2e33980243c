// Package inputval validates decoded request bodies with struct tags and
// turns validator errors into messages fit for the admin console.
//
// Tags are standard go-playground/validator tags plus:
//
//	httpurl     absolute http(s) URL
//	authmethod  one of the staff auth methods
//	staffrole   admin | editor | viewer
//	postalcode  Canadian postal code (A1A 1A1)
//
// The optional `label` tag names the field in messages; otherwise the JSON
// name is used.
package inputval

import (
	"fmt"
	"net/mail"
	"net/url"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/mta-community/mtahub/internal/app/system/authz"
	"github.com/mta-community/mtahub/internal/domain/models"
)

// FieldError is one failed rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Result collects the failures from Validate.
type Result struct {
	Errors []FieldError `json:"errors"`
}

// HasErrors reports whether any rule failed.
func (r *Result) HasErrors() bool { return len(r.Errors) > 0 }

// First returns the first message, or "".
func (r *Result) First() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// All joins every message with "; ".
func (r *Result) All() string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

var (
	once sync.Once
	v    *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("email", func(fl validator.FieldLevel) bool {
			return IsValidEmail(fl.Field().String())
		})
		_ = v.RegisterValidation("httpurl", func(fl validator.FieldLevel) bool {
			return IsValidHTTPURL(fl.Field().String())
		})
		_ = v.RegisterValidation("authmethod", func(fl validator.FieldLevel) bool {
			return IsValidAuthMethod(fl.Field().String())
		})
		_ = v.RegisterValidation("staffrole", func(fl validator.FieldLevel) bool {
			return authz.IsStaffRole(fl.Field().String())
		})
		_ = v.RegisterValidation("postalcode", func(fl validator.FieldLevel) bool {
			return IsValidPostalCode(fl.Field().String())
		})
	})
	return v
}

// Validate runs the struct-tag rules on s (a struct or pointer to struct).
func Validate(s any) *Result {
	res := &Result{}
	err := instance().Struct(s)
	if err == nil {
		return res
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		res.Errors = append(res.Errors, FieldError{Message: err.Error()})
		return res
	}
	root := reflect.TypeOf(s)
	for _, fe := range verrs {
		label := labelFor(root, fe.StructNamespace())
		if label == "" {
			label = fe.Field()
		}
		res.Errors = append(res.Errors, FieldError{
			Field:   jsonPath(fe.Namespace()),
			Message: message(fe, label),
		})
	}
	return res
}

func message(fe validator.FieldError, label string) string {
	switch fe.Tag() {
	case "required", "required_if", "required_with":
		return label + " is required."
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters.", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s.", label, fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters.", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s.", label, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s.", label, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s.", label, fe.Param())
	case "email":
		return "A valid email address is required."
	case "url", "httpurl":
		return label + " must be a valid http(s) URL."
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s.", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "postalcode":
		return label + " must be a postal code like A1A 1A1."
	case "staffrole":
		return label + " must be admin, editor or viewer."
	}
	return label + " is invalid."
}

// jsonPath drops the root type name from a validator namespace.
func jsonPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// labelFor walks a struct namespace such as "Registration.Address.City" and
// returns the `label` tag of the final field, if any.
func labelFor(t reflect.Type, ns string) string {
	parts := strings.Split(ns, ".")
	if len(parts) < 2 {
		return ""
	}
	var label string
	for _, p := range parts[1:] {
		for t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
			t = t.Elem()
		}
		if t.Kind() != reflect.Struct {
			return ""
		}
		if i := strings.IndexByte(p, '['); i >= 0 {
			p = p[:i]
		}
		f, ok := t.FieldByName(p)
		if !ok {
			return ""
		}
		label = f.Tag.Get("label")
		t = f.Type
	}
	return label
}

/*─────────────────────────────────────────────────────────────────────────────*
| Standalone checks                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

// IsValidEmail accepts a bare addr-spec (no display name) with a non-empty
// local part and domain and no empty dot-separated labels.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, " \t<>") {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	if at <= 0 || at == len(s)-1 {
		return false
	}
	local, domain := s[:at], s[at+1:]
	for _, part := range []string{local, domain} {
		if strings.HasPrefix(part, ".") || strings.HasSuffix(part, ".") || strings.Contains(part, "..") {
			return false
		}
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Name == "" && addr.Address == s
}

// IsValidHTTPURL reports whether s is an absolute http or https URL.
func IsValidHTTPURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// IsValidAuthMethod checks a staff auth method, ignoring case and whitespace.
func IsValidAuthMethod(s string) bool {
	return models.IsValidAuthMethod(strings.ToLower(strings.TrimSpace(s)))
}

var postalRE = regexp.MustCompile(`^[A-Za-z]\d[A-Za-z] ?\d[A-Za-z]\d$`)

// IsValidPostalCode checks the Canadian A1A 1A1 format (space optional).
func IsValidPostalCode(s string) bool {
	return postalRE.MatchString(strings.TrimSpace(s))
}
