package status

import (
	"fmt"
	"slices"
	"sync"

	"github.com/matheus3301/botpanel/internal/bus"
)

// State represents the bot session lifecycle state.
type State string

const (
	Idle     State = "IDLE"
	Scanning State = "SCANNING"
	LoggedIn State = "LOGGED_IN"
	Ready    State = "READY"
	Stopped  State = "STOPPED"
)

// validTransitions defines allowed state transitions. Scanning may repeat
// itself when the server rotates the QR payload. Stopped is terminal.
var validTransitions = map[State][]State{
	Idle:     {Scanning, LoggedIn, Stopped},
	Scanning: {Scanning, LoggedIn, Idle, Stopped},
	LoggedIn: {Ready, Idle, Stopped},
	Ready:    {Idle, Stopped},
	Stopped:  {},
}

// Machine tracks and enforces bot session state transitions.
type Machine struct {
	mu      sync.RWMutex
	current State
	bus     *bus.Bus
}

// NewMachine creates a new state machine starting in Idle state.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{
		current: Idle,
		bus:     b,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition attempts to move to a new state. Returns error if transition is invalid.
// A permitted self-transition succeeds without publishing a change.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	allowed := validTransitions[m.current]
	if !slices.Contains(allowed, to) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	m.set(to)
	return nil
}

// Reset returns the machine to Idle from any state except Stopped.
// It reports whether the state changed.
func (m *Machine) Reset() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == Idle || m.current == Stopped {
		return false
	}
	m.set(Idle)
	return true
}

func (m *Machine) set(to State) {
	from := m.current
	if from == to {
		return
	}
	m.current = to
	m.bus.Emit(bus.KindStateChanged, StatusChange{From: from, To: to})
}

// StatusChange is the payload for state change events.
type StatusChange struct {
	From State `json:"from"`
	To   State `json:"to"`
}
