package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/resend/resend-go/v3"
)

// Resend sends reset codes through the Resend API.
type Resend struct {
	client  *resend.Client
	from    string
	company string
}

// NewResend builds a [Resend] mailer. from is the full sender address;
// company names the product in the subject and body.
func NewResend(apiKey, from, company string) *Resend {
	return &Resend{
		client:  resend.NewClient(apiKey),
		from:    from,
		company: company,
	}
}

// SendResetCode mails the code with its validity window.
func (m *Resend) SendResetCode(ctx context.Context, to, code string, expires time.Duration) error {
	hours := int(expires.Hours())

	text := fmt.Sprintf(
		"Type the code %s in the application to change your account password.\n"+
			"The code is only valid for %d hours.\n"+
			"If you didn't request a new password, you can safely delete this email.\n",
		code, hours,
	)

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", m.company, m.from),
		To:      []string{to},
		Subject: fmt.Sprintf("Change the password of your %s account", m.company),
		Text:    text,
	}

	_, err := m.client.Emails.SendWithContext(ctx, params)
	return err
}
