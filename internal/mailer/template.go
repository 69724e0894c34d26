package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"nryli/internal/model"
)

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>NRYLI Registration Confirmation</title>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
    .container { max-width: 600px; margin: 0 auto; padding: 20px; }
    .header { background: linear-gradient(135deg, #1e3c72 0%, #2a5298 100%); color: white; padding: 30px; text-align: center; }
    .content { padding: 30px; background: #f9f9f9; }
    .info-section { background: white; padding: 20px; margin: 20px 0; border-radius: 8px; border-left: 4px solid #2a5298; }
    .footer { text-align: center; padding: 20px; color: #666; font-size: 14px; }
    .registration-id { background: #e8f4f8; padding: 15px; border-radius: 5px; font-size: 18px; font-weight: bold; text-align: center; margin: 20px 0; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>{{.EventName}}</h1>
      <p>Registration Confirmation</p>
    </div>
    <div class="content">
      <h2 class="greeting">Dear {{.Reg.FirstName}} {{.Reg.Surname}},</h2>
      <p>Thank you for registering for the {{.EventName}}. Your registration has been successfully submitted and is currently being processed.</p>
      <div class="registration-id">Registration ID: <span id="registration-id">{{.Reg.RegistrationID}}</span></div>
      <div class="info-section details">
        <h3>Registration Details</h3>
        <p><strong>Delegate Type:</strong> <span data-field="delegate_type">{{.Reg.DelegateType}}</span></p>
        <p><strong>Institution:</strong> <span data-field="institution">{{.Reg.Institution}}</span></p>
        <p><strong>Region Cluster:</strong> <span data-field="region_cluster">{{.Reg.RegionCluster}}</span></p>
        <p><strong>Contact Number:</strong> <span data-field="delegate_contact">{{.Reg.DelegateContact}}</span></p>
        <p><strong>Email:</strong> <span data-field="delegate_email">{{.Reg.DelegateEmail}}</span></p>
        <p><strong>T-shirt Size:</strong> <span data-field="tshirt_size">{{.Reg.TshirtSize}}</span></p>
        <p><strong>Payment Method:</strong> <span data-field="payment_option">{{.Reg.PaymentOption}}</span></p>
      </div>
      <div class="info-section">
        <h3>Next Steps</h3>
        <ul>
          <li>Your registration is currently being reviewed</li>
          <li>You will receive an email confirmation within 24-48 hours</li>
          <li>Please keep your Registration ID for future reference</li>
          <li>For any inquiries, contact us at {{.ContactEmail}}</li>
        </ul>
      </div>
      <p>We look forward to your participation in the {{.EventName}}!</p>
    </div>
    <div class="footer">
      <p>This is an automated message. Please do not reply to this email.</p>
      <p>&copy; {{.Year}} National Rizal Youth Leadership Institute</p>
    </div>
  </div>
</body>
</html>
`))

// Event describes the event named in the confirmation email.
type Event struct {
	Name         string
	ContactEmail string
}

type templateData struct {
	EventName    string
	ContactEmail string
	Year         int
	Reg          model.Registration
}

// RenderConfirmation renders the confirmation email body for reg.
func RenderConfirmation(event Event, reg model.Registration) (string, error) {
	year := reg.CreatedAt.Year()
	if reg.CreatedAt.IsZero() {
		year = time.Now().Year()
	}
	var buf bytes.Buffer
	if err := confirmationTmpl.Execute(&buf, templateData{
		EventName:    event.Name,
		ContactEmail: event.ContactEmail,
		Year:         year,
		Reg:          reg,
	}); err != nil {
		return "", fmt.Errorf("render confirmation email: %w", err)
	}
	return buf.String(), nil
}

func confirmationSubject(reg model.Registration) string {
	return "Registration Confirmation - " + reg.RegistrationID
}
