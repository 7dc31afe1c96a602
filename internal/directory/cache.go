// Package directory caches the bot account's contacts and rooms.
package directory

import (
	"context"
	"slices"

	"github.com/matheus3301/botpanel/internal/protocol"
	"github.com/matheus3301/botpanel/internal/store"
	"go.uber.org/zap"
)

// Source answers live directory queries.
type Source interface {
	FindAllContacts(ctx context.Context) ([]protocol.Contact, error)
	FindAllRooms(ctx context.Context) ([]protocol.Room, error)
}

// Saver persists snapshots without blocking the caller.
type Saver interface {
	Save(key string, value any)
}

// Cache holds the last known contacts and rooms. Not safe for concurrent use.
type Cache struct {
	src    Source
	saver  Saver
	logger *zap.Logger

	contacts []protocol.Contact
	rooms    []protocol.Room
	byRoom   map[string]int
	byUser   map[string]int

	onChange func()
}

// New creates an empty cache.
func New(src Source, saver Saver, logger *zap.Logger) *Cache {
	return &Cache{
		src:    src,
		saver:  saver,
		logger: logger,
		byRoom: map[string]int{},
		byUser: map[string]int{},
	}
}

// OnChange registers fn to run after every successful refresh.
func (c *Cache) OnChange(fn func()) {
	c.onChange = fn
}

// Seed installs persisted snapshots without writing them back.
func (c *Cache) Seed(contacts []protocol.Contact, rooms []protocol.Room) {
	c.setContacts(contacts)
	c.setRooms(rooms)
}

// RefreshContacts replaces the contact list from the source. On failure the
// previous list is kept and an empty result is returned.
func (c *Cache) RefreshContacts(ctx context.Context) []protocol.Contact {
	contacts, err := c.src.FindAllContacts(ctx)
	if err != nil {
		c.logger.Warn("contact refresh failed, keeping cached list", zap.Error(err), zap.Int("cached", len(c.contacts)))
		return []protocol.Contact{}
	}
	c.setContacts(contacts)
	c.saver.Save(store.KeyContacts, c.Contacts())
	c.logger.Info("contacts refreshed", zap.Int("count", len(contacts)))
	c.changed()
	return c.Contacts()
}

// RefreshRooms replaces the room list from the source with the same failure
// policy as RefreshContacts.
func (c *Cache) RefreshRooms(ctx context.Context) []protocol.Room {
	rooms, err := c.src.FindAllRooms(ctx)
	if err != nil {
		c.logger.Warn("room refresh failed, keeping cached list", zap.Error(err), zap.Int("cached", len(c.rooms)))
		return []protocol.Room{}
	}
	c.setRooms(rooms)
	c.saver.Save(store.KeyRooms, c.Rooms())
	c.logger.Info("rooms refreshed", zap.Int("count", len(rooms)))
	c.changed()
	return c.Rooms()
}

// Contacts returns a copy of the cached contacts.
func (c *Cache) Contacts() []protocol.Contact {
	return slices.Clone(c.contacts)
}

// Rooms returns a copy of the cached rooms.
func (c *Cache) Rooms() []protocol.Room {
	out := make([]protocol.Room, len(c.rooms))
	for i, r := range c.rooms {
		r.Members = slices.Clone(r.Members)
		out[i] = r
	}
	return out
}

// Room looks up a cached room by id.
func (c *Cache) Room(id string) (protocol.Room, bool) {
	i, ok := c.byRoom[id]
	if !ok {
		return protocol.Room{}, false
	}
	return c.rooms[i], true
}

// Contact looks up a cached contact by id.
func (c *Cache) Contact(id string) (protocol.Contact, bool) {
	i, ok := c.byUser[id]
	if !ok {
		return protocol.Contact{}, false
	}
	return c.contacts[i], true
}

// RoomName returns the room's display name, falling back to its id.
func (c *Cache) RoomName(id string) string {
	if r, ok := c.Room(id); ok && r.Name != "" {
		return r.Name
	}
	return id
}

func (c *Cache) setContacts(contacts []protocol.Contact) {
	c.contacts = slices.Clone(contacts)
	if c.contacts == nil {
		c.contacts = []protocol.Contact{}
	}
	c.byUser = make(map[string]int, len(contacts))
	for i, ct := range c.contacts {
		c.byUser[ct.ID] = i
	}
}

func (c *Cache) setRooms(rooms []protocol.Room) {
	c.rooms = make([]protocol.Room, len(rooms))
	c.byRoom = make(map[string]int, len(rooms))
	for i, r := range rooms {
		r.Members = slices.Clone(r.Members)
		c.rooms[i] = r
		c.byRoom[r.ID] = i
	}
}

func (c *Cache) changed() {
	if c.onChange != nil {
		c.onChange()
	}
}
