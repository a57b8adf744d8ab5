package chathub

import "pairchat/backend/internal/models"

// Client is the interface for one live connection. It abstracts the
// transport so the hub can be driven by WebSocket clients or test doubles.
type Client interface {
	// GetConnectionID returns the opaque addressing token of the connection.
	GetConnectionID() string

	// GetSendChannel returns the channel the hub writes outbound envelopes to.
	// The hub never blocks on it; a full channel drops the envelope.
	GetSendChannel() chan<- models.Envelope

	// Run starts the read and write pumps.
	Run()
	// Close shuts the outbound channel down. It must be safe to call twice.
	Close()
}
