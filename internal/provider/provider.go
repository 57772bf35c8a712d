// internal/provider/provider.go
package provider

import "context"

// Message is one rendered document bound for one recipient.
type Message struct {
	FromName    string
	FromAddress string
	To          string
	Subject     string
	HTML        string
}

// DeliveryProvider is the external transport. Send returns the provider's
// delivery id on success. A timeout or send error affects only that
// recipient; the caller isolates it.
type DeliveryProvider interface {
	Send(ctx context.Context, msg Message) (string, error)
}
