package mailer_test

import (
	"strings"
	"testing"

	"github.com/mta-community/mtahub/internal/app/system/mailer"
)

func TestBuildRegistrationEmail(t *testing.T) {
	e := mailer.BuildRegistrationEmail(mailer.RegistrationEmailData{
		SiteName:       "MTA",
		Name:           "Anita Kumar",
		Reference:      "REG-7F3K2Q",
		AmountDue:      "$25.00",
		MembershipType: "individual",
		PaymentEmail:   "payments@example.org",
	})

	if !strings.Contains(e.Subject, "REG-7F3K2Q") {
		t.Errorf("subject %q should carry the reference", e.Subject)
	}
	for _, want := range []string{"Anita Kumar", "REG-7F3K2Q", "$25.00", "individual", "payments@example.org"} {
		if !strings.Contains(e.TextBody, want) {
			t.Errorf("text body missing %q", want)
		}
		if !strings.Contains(e.HTMLBody, want) {
			t.Errorf("html body missing %q", want)
		}
	}
}

func TestBuildEventEmail_EscapesHTML(t *testing.T) {
	e := mailer.BuildEventEmail(mailer.EventEmailData{
		SiteName:   "MTA",
		Name:       "Ravi",
		EventTitle: "Pongal <Festival>",
		Message:    "Join us",
	})
	if e.Subject != "Pongal <Festival>" {
		t.Errorf("subject should default to event title, got %q", e.Subject)
	}
	if strings.Contains(e.HTMLBody, "<Festival>") {
		t.Error("html body should escape the event title")
	}
	if !strings.Contains(e.HTMLBody, "Pongal &lt;Festival&gt;") {
		t.Error("html body should contain the escaped title")
	}
}

func TestBuildActivationEmail(t *testing.T) {
	e := mailer.BuildActivationEmail(mailer.ActivationEmailData{
		SiteName:         "MTA",
		Name:             "Anita",
		MembershipNumber: "MTA-2026-0001",
		StartDate:        "2026-01-10",
		EndDate:          "2027-01-10",
	})
	if !strings.Contains(e.Subject, "MTA-2026-0001") || !strings.Contains(e.HTMLBody, "2027-01-10") {
		t.Errorf("unexpected email %+v", e)
	}
}
