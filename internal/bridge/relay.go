package bridge

import (
	"context"
	"time"

	"github.com/matheus3301/botpanel/internal/bus"
	"go.uber.org/zap"
)

// observerBuffer bounds the events queued for a slow observer.
const observerBuffer = 128

// Event is a runtime event as seen by the shell.
type Event struct {
	Name      string    `json:"name"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

type observer struct {
	id uint64
	ch chan Event
}

// Attach makes the caller the observer and returns its event stream. A
// previously attached observer is replaced and its channel closed. detach is
// safe to call after replacement.
func (br *Bridge) Attach() (<-chan Event, func()) {
	br.mu.Lock()
	defer br.mu.Unlock()
	if br.observer != nil {
		close(br.observer.ch)
		br.logger.Info("observer replaced", zap.Uint64("id", br.observer.id))
	}
	br.nextID++
	obs := &observer{id: br.nextID, ch: make(chan Event, observerBuffer)}
	br.observer = obs
	return obs.ch, func() {
		br.mu.Lock()
		defer br.mu.Unlock()
		if br.observer == obs {
			close(obs.ch)
			br.observer = nil
		}
	}
}

// Detach closes the current observer's stream, if any.
func (br *Bridge) Detach() {
	br.mu.Lock()
	defer br.mu.Unlock()
	if br.observer != nil {
		close(br.observer.ch)
		br.observer = nil
	}
}

// Attached reports whether an observer is attached.
func (br *Bridge) Attached() bool {
	br.mu.Lock()
	defer br.mu.Unlock()
	return br.observer != nil
}

// Run relays bus events to the observer until ctx is cancelled.
func (br *Bridge) Run(ctx context.Context) {
	events, unsubscribe := br.bus.Subscribe(bus.Namespace, observerBuffer)
	defer unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-events:
			for _, out := range Translate(evt) {
				br.deliver(out)
			}
		}
	}
}

func (br *Bridge) deliver(evt Event) {
	br.mu.Lock()
	defer br.mu.Unlock()
	if br.observer == nil {
		return
	}
	select {
	case br.observer.ch <- evt:
	default:
		br.logger.Warn("observer too slow, event dropped", zap.String("event", evt.Name))
	}
}

// Translate maps a bus event to the shell events it produces. Login fans out
// into a logged-in flag and the user, logout into the flag and the reason.
func Translate(evt bus.Event) []Event {
	at := evt.Timestamp
	switch evt.Kind {
	case bus.KindScan:
		return []Event{{Name: EventScan, Payload: evt.Payload, Timestamp: at}}
	case bus.KindLogin:
		return []Event{
			{Name: EventLoggedIn, Payload: true, Timestamp: at},
			{Name: EventUser, Payload: evt.Payload, Timestamp: at},
		}
	case bus.KindReady:
		return []Event{{Name: EventReady, Timestamp: at}}
	case bus.KindLogout:
		return []Event{
			{Name: EventLoggedIn, Payload: false, Timestamp: at},
			{Name: EventLogout, Payload: evt.Payload, Timestamp: at},
		}
	case bus.KindMessage:
		return []Event{{Name: EventNewMessage, Payload: evt.Payload, Timestamp: at}}
	case bus.KindStats:
		return []Event{{Name: EventStatsUpdated, Payload: evt.Payload, Timestamp: at}}
	case bus.KindStateChanged:
		return []Event{{Name: EventStateChanged, Payload: evt.Payload, Timestamp: at}}
	default:
		return nil
	}
}
