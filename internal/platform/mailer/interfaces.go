package mailer

import "github.com/eventmate/eventmate-server/internal/domain"

type Service interface {
	Send(toEmail, toName, subject, text, html string) (string, error)
	SendTicketConfirmation(toEmail, toName string, event *domain.Event, ticketCode string, seat *int) error
	SendGroupInvite(toEmail, inviterName string, event *domain.Event, groupCode string) error
}
