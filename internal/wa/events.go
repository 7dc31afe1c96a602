package wa

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/matheus3301/botpanel/internal/protocol"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"go.uber.org/zap"
)

// DisconnectReason is reported when the websocket drops unexpectedly.
const DisconnectReason = "connection lost"

// EventHandler translates whatsmeow events into protocol events.
//
// Ready is emitted once per connection, either when the server reports the
// offline backlog as delivered or when readyTimeout elapses after Connected,
// whichever comes first.
type EventHandler struct {
	emit         func(protocol.Event)
	self         func() Identity
	readyTimeout time.Duration
	logger       *zap.Logger

	// onLoggedOut runs after a server-side logout so the adapter can drop
	// the dead device.
	onLoggedOut func()

	mu         sync.Mutex
	armed      bool
	readyFired bool
	readyTimer *time.Timer

	// quiet suppresses the logout that follows a locally requested disconnect.
	quiet atomic.Bool
}

// NewEventHandler creates a handler. emit receives every translated event.
func NewEventHandler(emit func(protocol.Event), self func() Identity, readyTimeout time.Duration, logger *zap.Logger) *EventHandler {
	return &EventHandler{
		emit:         emit,
		self:         self,
		readyTimeout: readyTimeout,
		logger:       logger,
	}
}

// ExpectDisconnect marks the next disconnect as requested by us.
func (h *EventHandler) ExpectDisconnect() {
	h.quiet.Store(true)
	h.disarm()
}

// Handle is the whatsmeow event handler function.
func (h *EventHandler) Handle(rawEvt any) {
	switch evt := rawEvt.(type) {
	case *events.Message:
		if evt.Info.Chat.Server == types.BroadcastServer {
			return
		}
		h.emit(protocol.MessageEvent{Message: ParseMessage(evt, h.self())})
	case *events.Connected:
		h.quiet.Store(false)
		id := h.self()
		h.logger.Info("WhatsApp connected", zap.String("jid", id.JID.String()))
		h.emit(protocol.LoginEvent{User: id.User()})
		h.arm()
	case *events.OfflineSyncCompleted:
		h.logger.Info("offline sync completed", zap.Int("count", evt.Count))
		h.fireReady()
	case *events.PairSuccess:
		h.logger.Info("paired", zap.String("jid", evt.ID.String()))
		h.emit(protocol.ScanEvent{Status: protocol.ScanConfirmed})
	case *events.PairError:
		h.emit(protocol.ErrorEvent{Err: fmt.Errorf("pairing failed: %w", evt.Error)})
	case *events.Disconnected:
		h.disarm()
		if h.quiet.Load() {
			return
		}
		h.logger.Warn("WhatsApp disconnected")
		h.emit(protocol.LogoutEvent{User: h.self().User(), Reason: DisconnectReason})
	case *events.LoggedOut:
		h.disarm()
		reason := evt.Reason.String()
		h.logger.Warn("WhatsApp logged out", zap.String("reason", reason))
		h.emit(protocol.LogoutEvent{User: h.self().User(), Reason: reason})
		if h.onLoggedOut != nil {
			go h.onLoggedOut()
		}
	case *events.StreamReplaced:
		h.disarm()
		h.emit(protocol.LogoutEvent{User: h.self().User(), Reason: "stream replaced by another client"})
	case *events.TemporaryBan:
		h.disarm()
		h.emit(protocol.LogoutEvent{User: h.self().User(), Reason: evt.String()})
	case *events.ConnectFailure:
		h.emit(protocol.ErrorEvent{Err: fmt.Errorf("connect failure: %s", evt.Reason.String())})
	}
}

func (h *EventHandler) arm() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.readyTimer != nil {
		h.readyTimer.Stop()
	}
	h.armed = true
	h.readyFired = false
	if h.readyTimeout > 0 {
		h.readyTimer = time.AfterFunc(h.readyTimeout, h.fireReady)
	}
}

func (h *EventHandler) disarm() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.readyTimer != nil {
		h.readyTimer.Stop()
		h.readyTimer = nil
	}
	h.armed = false
}

func (h *EventHandler) fireReady() {
	h.mu.Lock()
	if !h.armed || h.readyFired {
		h.mu.Unlock()
		return
	}
	h.readyFired = true
	if h.readyTimer != nil {
		h.readyTimer.Stop()
		h.readyTimer = nil
	}
	h.mu.Unlock()
	h.emit(protocol.ReadyEvent{})
}
