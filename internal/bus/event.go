package bus

import "time"

// Event kinds published by the bot runtime. Every kind lives under the "bot."
// namespace so a single subscription can relay the whole stream.
const (
	Namespace = "bot."

	KindScan         = "bot.scan"
	KindLogin        = "bot.login"
	KindReady        = "bot.ready"
	KindLogout       = "bot.logout"
	KindMessage      = "bot.message"
	KindStats        = "bot.stats"
	KindStateChanged = "bot.state_changed"
)

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}
