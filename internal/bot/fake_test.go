package bot

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/matheus3301/botpanel/internal/bus"
	"github.com/matheus3301/botpanel/internal/protocol"
	"github.com/matheus3301/botpanel/internal/status"
	"go.uber.org/zap"
)

// fakeClient is an in-memory protocol.Client.
type fakeClient struct {
	mu       sync.Mutex
	handler  protocol.Handler
	loggedIn bool

	contacts  []protocol.Contact
	rooms     []protocol.Room
	avatarErr error
	sendErr   error
	startErr  error
	logoutErr error

	sent    []sentText
	calls   []string
	started int
}

type sentText struct {
	ChatID string
	Text   string
}

func (f *fakeClient) SetHandler(h protocol.Handler) { f.handler = h }

func (f *fakeClient) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeClient) Start(context.Context) error {
	f.record("start")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started++
	return f.startErr
}

func (f *fakeClient) Stop(context.Context) error {
	f.record("stop")
	return nil
}

func (f *fakeClient) Logout(context.Context) error {
	f.record("logout")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loggedIn = false
	return f.logoutErr
}

func (f *fakeClient) IsLoggedIn() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loggedIn
}

func (f *fakeClient) FindAllContacts(context.Context) ([]protocol.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.contacts, nil
}

func (f *fakeClient) FindAllRooms(context.Context) ([]protocol.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rooms, nil
}

func (f *fakeClient) Avatar(context.Context, string) (string, error) {
	if f.avatarErr != nil {
		return "", f.avatarErr
	}
	return "https://example.invalid/avatar.jpg", nil
}

func (f *fakeClient) SendText(_ context.Context, chatID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sentText{chatID, text})
	return nil
}

func (f *fakeClient) sentTexts() []sentText {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentText(nil), f.sent...)
}

func (f *fakeClient) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// emit delivers an event the way the real client does, from outside the loop.
func (f *fakeClient) emit(evt protocol.Event) {
	f.handler(evt)
}

type memSaver struct {
	mu     sync.Mutex
	values map[string]any
}

func (s *memSaver) Save(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values == nil {
		s.values = map[string]any{}
	}
	s.values[key] = value
}

func (s *memSaver) get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

type harness struct {
	m      *Manager
	client *fakeClient
	saver  *memSaver
	bus    *bus.Bus
	events <-chan bus.Event
}

func newHarness(t *testing.T, opts Options, snap Snapshot) *harness {
	t.Helper()
	b := bus.New()
	events, unsub := b.Subscribe(bus.Namespace, 256)
	t.Cleanup(unsub)

	client := &fakeClient{contacts: snap.Contacts, rooms: snap.Rooms}
	saver := &memSaver{}
	m := New(client, status.NewMachine(b), b, saver, zap.NewNop(), opts, snap)
	m.now = func() time.Time { return time.UnixMilli(1_700_000_000_000) }
	ids := 0
	m.newID = func() string {
		ids++
		return "echo-" + string(rune('0'+ids))
	}
	m.StartLoop(context.Background())
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })
	return &harness{m: m, client: client, saver: saver, bus: b, events: events}
}

// sync waits until every event queued so far has been handled.
func (h *harness) sync(t *testing.T) {
	t.Helper()
	if _, err := h.m.Status(context.Background()); err != nil {
		t.Fatalf("sync: %v", err)
	}
}

// ready walks the session to Ready as user "Bot".
func (h *harness) ready(t *testing.T) {
	t.Helper()
	h.client.mu.Lock()
	h.client.loggedIn = true
	h.client.mu.Unlock()
	h.client.emit(protocol.LoginEvent{User: protocol.User{ID: "bot@s.whatsapp.net", Name: "Bot"}})
	h.client.emit(protocol.ReadyEvent{})
	h.sync(t)
	h.drain()
}

// drain discards pending bus events.
func (h *harness) drain() {
	for {
		select {
		case <-h.events:
		case <-time.After(50 * time.Millisecond):
			return
		}
	}
}

// next returns the next bus event of the given kind, skipping others.
func (h *harness) next(t *testing.T, kind string) bus.Event {
	t.Helper()
	timeout := time.After(time.Second)
	for {
		select {
		case evt := <-h.events:
			if evt.Kind == kind {
				return evt
			}
		case <-timeout:
			t.Fatalf("timeout waiting for %s", kind)
			return bus.Event{}
		}
	}
}
