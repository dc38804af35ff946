package chathub

import "skillnexus/backend/internal/models"

// Client is one live connection handle held by the presence directory.
// It abstracts the transport so the hub can be driven by WebSocket
// connections and by test doubles alike.
type Client interface {
	// GetUserID returns the authenticated identity behind the connection.
	GetUserID() string

	// GetSendChannel returns the outbound queue of the connection. Only the
	// hub goroutine sends on it.
	GetSendChannel() chan<- models.Event

	// Run starts the read and write pumps.
	Run()
	// Close stops the write pump. The hub calls it exactly once, when the
	// connection is unregistered or the hub stops.
	Close()
}
