package shell

import "encoding/json"

// Frame types.
const (
	TypeCommand  = "command"
	TypeResponse = "response"
	TypeEvent    = "event"
)

// Frame is the single JSON shape exchanged over the socket. Commands carry
// ID, Name and Args; responses echo ID with Result or Error; events carry
// Name, Payload and Timestamp in unix milliseconds.
type Frame struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Args      json.RawMessage `json:"args,omitempty"`
	Result    any             `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	Payload   any             `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
}
