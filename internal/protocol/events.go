package protocol

// ScanStatus tracks the progress of a QR login.
type ScanStatus string

const (
	ScanWaiting   ScanStatus = "waiting"
	ScanScanned   ScanStatus = "scanned"
	ScanConfirmed ScanStatus = "confirmed"
	ScanTimeout   ScanStatus = "timeout"
)

// Event is a lifecycle or message notification emitted by a Client.
type Event interface {
	protocolEvent()
}

// ScanEvent carries a QR payload the user must scan to log in.
type ScanEvent struct {
	Payload string
	Status  ScanStatus
}

// LoginEvent is emitted once the account is authenticated.
type LoginEvent struct {
	User User
}

// ReadyEvent is emitted when the client finished its initial sync.
type ReadyEvent struct{}

// MessageEvent wraps an inbound message.
type MessageEvent struct {
	Message Message
}

// LogoutEvent is emitted when the session ends for any reason other than a
// local Stop.
type LogoutEvent struct {
	User   User
	Reason string
}

// ErrorEvent reports a non-fatal client failure.
type ErrorEvent struct {
	Err error
}

func (ScanEvent) protocolEvent()    {}
func (LoginEvent) protocolEvent()   {}
func (ReadyEvent) protocolEvent()   {}
func (MessageEvent) protocolEvent() {}
func (LogoutEvent) protocolEvent()  {}
func (ErrorEvent) protocolEvent()   {}
