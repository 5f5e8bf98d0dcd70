package mailer

import (
	"fmt"

	"github.com/eventmate/eventmate-server/internal/domain"
	"github.com/eventmate/eventmate-server/pkg/logger"
)

// DevMailer logs emails instead of sending them.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) Send(toEmail, toName, subject, text, html string) (string, error) {
	logger.Info("📧 [DEV MAIL]", "to", toEmail, "name", toName, "subject", subject)
	fmt.Printf("\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n"+
		"📧 EMAIL (DEV MODE)\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n"+
		"To: %s (%s)\n"+
		"Subject: %s\n"+
		"\n"+
		"%s\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n",
		toEmail, toName, subject, text)
	return "", nil
}

func (d *DevMailer) SendTicketConfirmation(toEmail, toName string, event *domain.Event, ticketCode string, seat *int) error {
	subject, text, _ := ticketConfirmationBody(toName, event, ticketCode, seat)
	_, err := d.Send(toEmail, toName, subject, text, "")
	return err
}

func (d *DevMailer) SendGroupInvite(toEmail, inviterName string, event *domain.Event, groupCode string) error {
	subject, text, _ := groupInviteBody(inviterName, event, groupCode)
	_, err := d.Send(toEmail, "", subject, text, "")
	return err
}

var _ Service = (*DevMailer)(nil)
var _ Service = (*Mailer)(nil)
var _ Service = (*SMTPMailer)(nil)
