package protocol

import "context"

// Handler receives client events. Implementations must not block for long;
// the runtime enqueues them onto its own loop.
type Handler func(Event)

// Client is a messaging network session.
type Client interface {
	// SetHandler installs the event handler. It must be called before Start.
	SetHandler(h Handler)
	// Start connects, emitting ScanEvent when a login is required.
	Start(ctx context.Context) error
	// Stop disconnects without ending the server-side session.
	Stop(ctx context.Context) error
	// Logout ends the server-side session.
	Logout(ctx context.Context) error
	IsLoggedIn() bool

	FindAllContacts(ctx context.Context) ([]Contact, error)
	FindAllRooms(ctx context.Context) ([]Room, error)
	Avatar(ctx context.Context, userID string) (string, error)
	SendText(ctx context.Context, chatID, text string) error
}
