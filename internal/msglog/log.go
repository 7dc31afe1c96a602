// Package msglog keeps the bounded newest-first log shown on the dashboard.
package msglog

import (
	"slices"

	"github.com/matheus3301/botpanel/internal/protocol"
)

// Capacity is the number of entries retained by default.
const Capacity = 100

// Kind is the coarse message category exposed to observers.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindFile  Kind = "file"
	KindOther Kind = "other"
)

// Classify maps a protocol message type onto a Kind.
func Classify(t protocol.MessageType) Kind {
	switch t {
	case protocol.TypeText:
		return KindText
	case protocol.TypeImage:
		return KindImage
	case protocol.TypeDocument:
		return KindFile
	default:
		return KindOther
	}
}

// Entry is the public projection of a logged message. Room is nil for
// direct messages. Timestamp is in epoch milliseconds.
type Entry struct {
	ID        string  `json:"id"`
	Content   string  `json:"content"`
	Sender    string  `json:"sender"`
	Room      *string `json:"room"`
	Timestamp int64   `json:"timestamp"`
	Type      Kind    `json:"type"`
}

// Log is a bounded, newest-first message buffer. Not safe for concurrent use.
type Log struct {
	entries  []Entry
	capacity int
}

// New creates a log holding at most capacity entries. Non-positive values
// select Capacity.
func New(capacity int) *Log {
	if capacity <= 0 {
		capacity = Capacity
	}
	return &Log{capacity: capacity}
}

// Record prepends e, evicting the oldest entry when full.
func (l *Log) Record(e Entry) {
	if e.Room != nil {
		room := *e.Room
		e.Room = &room
	}
	l.entries = slices.Insert(l.entries, 0, e)
	if len(l.entries) > l.capacity {
		l.entries = l.entries[:l.capacity]
	}
}

// List returns a copy of the entries, newest first.
func (l *Log) List() []Entry {
	return slices.Clone(l.entries)
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	return len(l.entries)
}
