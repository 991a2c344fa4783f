package mailer

import (
	"eventpass/src/lib"
	"fmt"
	"strings"
)

type TicketMail struct {
	From        string
	FromName    string
	StudentName string
	Email       string
	EventTitle  string
	TicketCode  string
	TicketURL   string
}

func NewTicketMessage(m TicketMail) *lib.SendMailInput {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", m.StudentName)
	fmt.Fprintf(&b, "Your registration for %s is confirmed.\n", m.EventTitle)
	fmt.Fprintf(&b, "Ticket code: %s\n", m.TicketCode)
	if m.TicketURL != "" {
		fmt.Fprintf(&b, "Show this QR code at the entrance: %s\n", m.TicketURL)
	}
	return &lib.SendMailInput{
		From:     m.From,
		FromName: m.FromName,
		To:       []string{m.Email},
		Subject:  fmt.Sprintf("Your ticket for %s", m.EventTitle),
		Body:     b.String(),
	}
}
