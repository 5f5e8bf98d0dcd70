package mailer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/eventmate/eventmate-server/internal/domain"
	"github.com/mailersend/mailersend-go"
)

type Mailer struct {
	client  *mailersend.Mailersend
	from    mailersend.From
	Enabled bool
}

func NewMailer(apiKey, fromName, fromEmail string) *Mailer {
	m := &Mailer{
		Enabled: apiKey != "" && fromEmail != "",
		from: mailersend.From{
			Name:  fromName,
			Email: fromEmail,
		},
	}
	if m.Enabled {
		m.client = mailersend.NewMailersend(apiKey)
	}
	return m
}

func (m *Mailer) Send(toEmail, toName, subject, text, html string) (string, error) {
	if !m.Enabled {
		return "", errors.New("mailer disabled (missing MAILERSEND_API_KEY or MAILER_FROM)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	msg := m.client.Email.NewMessage()
	msg.SetFrom(m.from)
	msg.SetRecipients([]mailersend.Recipient{{Name: toName, Email: toEmail}})
	msg.SetSubject(subject)
	if strings.TrimSpace(text) != "" {
		msg.SetText(text)
	}
	if strings.TrimSpace(html) != "" {
		msg.SetHTML(html)
	}

	res, err := m.client.Email.Send(ctx, msg)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(res.Body)
		return "", fmt.Errorf("mailersend error: status=%d body=%s", res.StatusCode, strings.TrimSpace(string(body)))
	}
	// MailerSend uses X-Message-Id
	return res.Header.Get("X-Message-Id"), nil
}

func (m *Mailer) SendTicketConfirmation(toEmail, toName string, event *domain.Event, ticketCode string, seat *int) error {
	subject, text, html := ticketConfirmationBody(toName, event, ticketCode, seat)
	_, err := m.Send(toEmail, toName, subject, text, html)
	return err
}

func (m *Mailer) SendGroupInvite(toEmail, inviterName string, event *domain.Event, groupCode string) error {
	subject, text, html := groupInviteBody(inviterName, event, groupCode)
	_, err := m.Send(toEmail, "", subject, text, html)
	return err
}

func ticketConfirmationBody(toName string, event *domain.Event, ticketCode string, seat *int) (subject, text, html string) {
	subject = fmt.Sprintf("Your ticket for %s", event.Title)
	seatLine := ""
	seatHTML := ""
	if seat != nil {
		seatLine = fmt.Sprintf("\nSeat: %d", *seat)
		seatHTML = fmt.Sprintf("<p>Seat: <b>%d</b></p>", *seat)
	}
	text = fmt.Sprintf("Hi %s,\n\nYou're enrolled in %s on %s.\nTicket code: %s%s",
		toName, event.Title, event.StartDate.Format("Jan 2, 2006 15:04"), ticketCode, seatLine)
	html = fmt.Sprintf(`<p>Hi %s,</p><p>You're enrolled in <b>%s</b> on %s.</p><p>Ticket code: <b>%s</b></p>%s`,
		toName, event.Title, event.StartDate.Format("Jan 2, 2006 15:04"), ticketCode, seatHTML)
	return subject, text, html
}

func groupInviteBody(inviterName string, event *domain.Event, groupCode string) (subject, text, html string) {
	subject = fmt.Sprintf("%s added you to their group for %s", inviterName, event.Title)
	text = fmt.Sprintf("%s enrolled you in %s as part of their group.\nGroup code: %s",
		inviterName, event.Title, groupCode)
	html = fmt.Sprintf(`<p><b>%s</b> enrolled you in <b>%s</b> as part of their group.</p><p>Group code: <b>%s</b></p>`,
		inviterName, event.Title, groupCode)
	return subject, text, html
}
