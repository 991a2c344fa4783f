package common

import (
	"context"
	"eventpass/src/lib/mailer"
	"eventpass/src/models"
	"fmt"
	"log"
	"strings"
)

// MailNotifier e-mails the student their ticket.
type MailNotifier struct {
	Mailer   mailer.Mailer
	Events   EventStore
	From     string
	FromName string
	// BaseURL is the public API host used to link the QR image.
	BaseURL string
}

func (n *MailNotifier) TicketIssued(ctx context.Context, reg *models.Registration, ticket *models.Ticket) {
	ev, err := n.Events.GetEvent(ctx, reg.EventID)
	if err != nil {
		log.Printf("[notify] ticket %s: load event %d: %s\n", ticket.TicketCode, reg.EventID, err.Error())
		return
	}
	url := ""
	if n.BaseURL != "" {
		url = fmt.Sprintf("%s/api/v1/tickets/%s/qr", strings.TrimRight(n.BaseURL, "/"), ticket.TicketCode)
	}
	msg := mailer.NewTicketMessage(mailer.TicketMail{
		From:        n.From,
		FromName:    n.FromName,
		StudentName: reg.StudentName,
		Email:       reg.StudentEmail,
		EventTitle:  ev.Title,
		TicketCode:  ticket.TicketCode,
		TicketURL:   url,
	})
	if err := n.Mailer.Send(ctx, msg); err != nil {
		log.Printf("[notify] ticket %s for registration %d not sent: %s\n", ticket.TicketCode, reg.ID, err.Error())
	}
}
