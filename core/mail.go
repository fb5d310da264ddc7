package core

import "net/mail"

type (
	// EmailMessage is a plain-text notification. The club-registration flows
	// only ever send short advisor notices so no templating is carried here.
	EmailMessage struct {
		To          []mail.Address
		Subject     string
		TextContent string
	}

	// EmailService sends messages without blocking the caller; failures are
	// logged by implementations, never returned.
	EmailService interface {
		SendMessages(messages ...*EmailMessage)
	}
)

func (m EmailMessage) HasRecipients() bool {
	return len(m.To) > 0
}

func (m EmailMessage) HasContent() bool {
	return m.TextContent != ""
}
