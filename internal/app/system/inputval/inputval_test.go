package inputval

import (
	"testing"
)

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		// Valid emails
		{"user@example.com", true},
		{"user.name@example.com", true},
		{"user+tag@example.com", true},
		{"user@subdomain.example.com", true},
		{"user123@example.co.uk", true},
		{"a@b.co", true},
		{"user@localhost", true},   // RFC 5322 allows single-label domains
		{"admin@mailserver", true}, // useful for dev/test environments

		// Invalid emails - empty/whitespace
		{"", false},
		{"   ", false},

		// Invalid emails - missing parts
		{"user", false},
		{"user@", false},
		{"@example.com", false},

		// Invalid emails - bad format (previously allowed by weak regex)
		{".user@example.com", false},      // leading dot in local
		{"user.@example.com", false},      // trailing dot in local
		{"user..name@example.com", false}, // consecutive dots
		{"user@.example.com", false},      // leading dot in domain
		{"user@example..com", false},      // consecutive dots in domain

		// Invalid emails - display name format (should be rejected)
		{"User Name <user@example.com>", false},

		// Invalid emails - other malformed
		{"user @example.com", false}, // space in local
		{"user@ example.com", false}, // space after @
		{"user@exam ple.com", false}, // space in domain
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			got := IsValidEmail(tt.email)
			if got != tt.want {
				t.Errorf("IsValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}

func TestIsValidHTTPURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"http://example.com", true},
		{"https://example.com/path?query=1", true},
		{"http://localhost:8080", true},
		{"  https://example.com  ", true},
		{"", false},
		{"ftp://example.com", false},
		{"mailto:user@example.com", false},
		{"example.com", false},
		{"//example.com", false},
		{"not a url", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := IsValidHTTPURL(tt.url); got != tt.want {
				t.Errorf("IsValidHTTPURL(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestIsValidPostalCode(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"M5V 2T6", true},
		{"m5v2t6", true},
		{" L3R 0B1 ", true},
		{"", false},
		{"12345", false},
		{"M5V-2T6", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := IsValidPostalCode(tt.code); got != tt.want {
				t.Errorf("IsValidPostalCode(%q) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	type TestInput struct {
		Name  string `json:"name" validate:"required,max=10" label:"Full name"`
		Email string `json:"email" validate:"required,email" label:"Email address"`
	}

	tests := []struct {
		name       string
		input      TestInput
		wantErrors bool
		wantFirst  string
		wantField  string
	}{
		{
			name:  "valid input",
			input: TestInput{Name: "Anita", Email: "anita@example.com"},
		},
		{
			name:       "missing name",
			input:      TestInput{Name: "", Email: "anita@example.com"},
			wantErrors: true,
			wantFirst:  "Full name is required.",
			wantField:  "name",
		},
		{
			name:       "name too long",
			input:      TestInput{Name: "VeryLongNameThatExceedsLimit", Email: "anita@example.com"},
			wantErrors: true,
			wantFirst:  "Full name must be at most 10 characters.",
			wantField:  "name",
		},
		{
			name:       "invalid email",
			input:      TestInput{Name: "Anita", Email: "not-an-email"},
			wantErrors: true,
			wantFirst:  "A valid email address is required.",
			wantField:  "email",
		},
		{
			name:       "missing both",
			input:      TestInput{},
			wantErrors: true,
			wantFirst:  "Full name is required.",
			wantField:  "name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(tt.input)

			if result.HasErrors() != tt.wantErrors {
				t.Fatalf("Validate() HasErrors = %v, want %v (%s)", result.HasErrors(), tt.wantErrors, result.All())
			}
			if !tt.wantErrors {
				return
			}
			if result.First() != tt.wantFirst {
				t.Errorf("Validate() First() = %q, want %q", result.First(), tt.wantFirst)
			}
			if result.Errors[0].Field != tt.wantField {
				t.Errorf("Validate() field = %q, want %q", result.Errors[0].Field, tt.wantField)
			}
		})
	}
}

func TestValidate_NestedLabel(t *testing.T) {
	type Address struct {
		PostalCode string `json:"postal_code" validate:"omitempty,postalcode" label:"Postal code"`
	}
	type Input struct {
		Address Address `json:"address"`
	}

	result := Validate(Input{Address: Address{PostalCode: "99999"}})
	if !result.HasErrors() {
		t.Fatal("expected postal code error")
	}
	if got, want := result.First(), "Postal code must be a postal code like A1A 1A1."; got != want {
		t.Errorf("First() = %q, want %q", got, want)
	}
	if got := result.Errors[0].Field; got != "address.postal_code" {
		t.Errorf("Field = %q, want address.postal_code", got)
	}
}

func TestValidate_CustomRules(t *testing.T) {
	type RoleInput struct {
		Role   string `json:"role" validate:"required,staffrole"`
		Method string `json:"method" validate:"required,authmethod"`
	}

	if r := Validate(RoleInput{Role: "editor", Method: "google"}); r.HasErrors() {
		t.Errorf("valid input has errors: %s", r.All())
	}
	r := Validate(RoleInput{Role: "sponsor", Method: "saml"})
	if len(r.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d (%s)", len(r.Errors), r.All())
	}
}

func TestResult_All(t *testing.T) {
	r := &Result{}
	if r.All() != "" || r.First() != "" {
		t.Errorf("empty result: All=%q First=%q", r.All(), r.First())
	}
	r = &Result{Errors: []FieldError{{Message: "Error 1"}, {Message: "Error 2"}}}
	if got := r.All(); got != "Error 1; Error 2" {
		t.Errorf("All() = %q", got)
	}
	if got := r.First(); got != "Error 1" {
		t.Errorf("First() = %q", got)
	}
}
