// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// RegistrationEmailData holds data for the registration confirmation.
type RegistrationEmailData struct {
	SiteName       string
	Name           string
	Reference      string // REG-XXXXXX
	AmountDue      string // formatted, e.g. "$25.00"
	MembershipType string
	PaymentEmail   string // e-Transfer destination
}

// ActivationEmailData holds data for the membership-activated email.
type ActivationEmailData struct {
	SiteName         string
	Name             string
	MembershipNumber string
	StartDate        string
	EndDate          string
}

// EventEmailData holds data for an event notification.
type EventEmailData struct {
	SiteName   string
	Name       string
	Subject    string
	EventTitle string
	EventDate  string
	Location   string
	Message    string
}

// BuildRegistrationEmail tells a new registrant how to pay.
func BuildRegistrationEmail(data RegistrationEmailData) Email {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", data.Name)
	fmt.Fprintf(&b, "Thank you for registering with %s.\n\n", data.SiteName)
	fmt.Fprintf(&b, "Registration reference: %s\n", data.Reference)
	fmt.Fprintf(&b, "Membership type: %s\n", data.MembershipType)
	fmt.Fprintf(&b, "Amount due: %s\n\n", data.AmountDue)
	fmt.Fprintf(&b, "Please send an Interac e-Transfer to %s and include your reference %s in the message.\n", data.PaymentEmail, data.Reference)
	b.WriteString("Your membership will be activated once the payment is verified.\n")
	return Email{
		Subject:  fmt.Sprintf("%s membership registration (%s)", data.SiteName, data.Reference),
		TextBody: b.String(),
		HTMLBody: render("registration", data),
	}
}

// BuildActivationEmail confirms an active membership.
func BuildActivationEmail(data ActivationEmailData) Email {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", data.Name)
	fmt.Fprintf(&b, "Your %s membership is now active.\n\n", data.SiteName)
	fmt.Fprintf(&b, "Membership number: %s\n", data.MembershipNumber)
	fmt.Fprintf(&b, "Valid from %s to %s.\n", data.StartDate, data.EndDate)
	return Email{
		Subject:  fmt.Sprintf("Welcome to %s: membership %s", data.SiteName, data.MembershipNumber),
		TextBody: b.String(),
		HTMLBody: render("activation", data),
	}
}

// BuildEventEmail announces an event to a member.
func BuildEventEmail(data EventEmailData) Email {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", data.Name)
	b.WriteString(data.Message)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%s\n", data.EventTitle)
	if data.EventDate != "" {
		fmt.Fprintf(&b, "When: %s\n", data.EventDate)
	}
	if data.Location != "" {
		fmt.Fprintf(&b, "Where: %s\n", data.Location)
	}
	subject := data.Subject
	if subject == "" {
		subject = data.EventTitle
	}
	return Email{
		Subject:  subject,
		TextBody: b.String(),
		HTMLBody: render("event", data),
	}
}

var htmlTemplates = template.Must(template.New("mail").Parse(layoutTemplates))

func render(name string, data any) string {
	var buf bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return ""
	}
	return buf.String()
}

const layoutTemplates = `
{{define "header"}}<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 520px; background-color: #ffffff; border-radius: 8px;">
          <tr>
            <td style="padding: 28px 32px 20px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 22px; font-weight: 600; color: #b91c1c;">{{.SiteName}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 28px 32px; font-size: 15px; color: #374151; line-height: 1.6;">
              <p style="margin: 0 0 16px;">Hello {{.Name}},</p>
{{end}}

{{define "footer"}}
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>{{end}}

{{define "registration"}}{{template "header" .}}
              <p style="margin: 0 0 16px;">Thank you for registering. Your registration reference is:</p>
              <div style="background-color: #f3f4f6; border-radius: 8px; padding: 18px; text-align: center; margin-bottom: 20px;">
                <span style="font-size: 26px; font-weight: 700; letter-spacing: 4px; font-family: 'Courier New', monospace;">{{.Reference}}</span>
              </div>
              <p style="margin: 0 0 8px;">Membership type: <strong>{{.MembershipType}}</strong></p>
              <p style="margin: 0 0 16px;">Amount due: <strong>{{.AmountDue}}</strong></p>
              <p style="margin: 0;">Please send an Interac e-Transfer to <strong>{{.PaymentEmail}}</strong> with <strong>{{.Reference}}</strong> in the message. We will activate your membership once the payment is verified.</p>
{{template "footer" .}}{{end}}

{{define "activation"}}{{template "header" .}}
              <p style="margin: 0 0 16px;">Your membership is now active.</p>
              <p style="margin: 0 0 8px;">Membership number: <strong>{{.MembershipNumber}}</strong></p>
              <p style="margin: 0;">Valid from {{.StartDate}} to {{.EndDate}}.</p>
{{template "footer" .}}{{end}}

{{define "event"}}{{template "header" .}}
              <h2 style="margin: 0 0 12px; font-size: 18px;">{{.EventTitle}}</h2>
              {{if .EventDate}}<p style="margin: 0 0 4px;">When: {{.EventDate}}</p>{{end}}
              {{if .Location}}<p style="margin: 0 0 16px;">Where: {{.Location}}</p>{{end}}
              <p style="margin: 0; white-space: pre-line;">{{.Message}}</p>
{{template "footer" .}}{{end}}
`
