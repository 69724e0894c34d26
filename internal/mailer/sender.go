package mailer

import "context"

//go:generate mockgen -source=sender.go -destination=mocks/sender.go -package=mocks Sender

// Message is one outbound HTML email.
type Message struct {
	From    string
	To      []string
	Subject string
	HTML    string
}

// Sender delivers a message through an email provider and returns the
// provider's message id when it has one.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}
