package notify

import "context"

// Notifier delivers an emergency SMS. Implementations must be safe for
// concurrent use.
type Notifier interface {
	// SendSMS sends a message to the given phone number.
	SendSMS(ctx context.Context, to, message string) error
}

type nopNotifier struct{}

func (nopNotifier) SendSMS(context.Context, string, string) error { return nil }

// Nop returns a notifier that silently drops every message. Used when no
// SMS provider is configured.
func Nop() Notifier {
	return nopNotifier{}
}
