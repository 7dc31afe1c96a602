package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/matheus3301/botpanel/internal/protocol"
	"github.com/matheus3301/botpanel/internal/store"
	"go.uber.org/zap"
)

type fakeSource struct {
	contacts []protocol.Contact
	rooms    []protocol.Room
	err      error
}

func (f *fakeSource) FindAllContacts(context.Context) ([]protocol.Contact, error) {
	return f.contacts, f.err
}

func (f *fakeSource) FindAllRooms(context.Context) ([]protocol.Room, error) {
	return f.rooms, f.err
}

type memSaver map[string]any

func (m memSaver) Save(key string, value any) { m[key] = value }

func TestRefreshReplacesAndPersists(t *testing.T) {
	src := &fakeSource{
		contacts: []protocol.Contact{{ID: "u1", Name: "Ann", Friend: true}},
		rooms:    []protocol.Room{{ID: "g1", Name: "Team", Members: []string{"u1"}}},
	}
	saver := memSaver{}
	c := New(src, saver, zap.NewNop())
	changes := 0
	c.OnChange(func() { changes++ })

	if got := c.RefreshContacts(context.Background()); len(got) != 1 {
		t.Errorf("RefreshContacts() = %v", got)
	}
	if got := c.RefreshRooms(context.Background()); len(got) != 1 {
		t.Errorf("RefreshRooms() = %v", got)
	}
	if changes != 2 {
		t.Errorf("changes = %d, want 2", changes)
	}
	if _, ok := saver[store.KeyContacts]; !ok {
		t.Error("contacts not persisted")
	}
	if _, ok := saver[store.KeyRooms]; !ok {
		t.Error("rooms not persisted")
	}
	if c.RoomName("g1") != "Team" {
		t.Errorf("RoomName(g1) = %q, want Team", c.RoomName("g1"))
	}
	if ct, ok := c.Contact("u1"); !ok || ct.Name != "Ann" {
		t.Errorf("Contact(u1) = %+v, %v", ct, ok)
	}
}

func TestRefreshFailureKeepsCache(t *testing.T) {
	src := &fakeSource{contacts: []protocol.Contact{{ID: "u1"}}, rooms: []protocol.Room{{ID: "g1"}}}
	saver := memSaver{}
	c := New(src, saver, zap.NewNop())
	c.RefreshContacts(context.Background())
	c.RefreshRooms(context.Background())

	src.err = errors.New("network down")
	delete(saver, store.KeyContacts)
	changes := 0
	c.OnChange(func() { changes++ })

	got := c.RefreshContacts(context.Background())
	if got == nil || len(got) != 0 {
		t.Errorf("failed refresh = %v, want empty non-nil list", got)
	}
	if len(c.RefreshRooms(context.Background())) != 0 {
		t.Error("failed room refresh should return empty list")
	}
	if len(c.Contacts()) != 1 || len(c.Rooms()) != 1 {
		t.Error("previous cache lost after failed refresh")
	}
	if changes != 0 {
		t.Errorf("changes = %d, want 0", changes)
	}
	if _, ok := saver[store.KeyContacts]; ok {
		t.Error("failed refresh should not persist")
	}
}

func TestSeedDoesNotPersist(t *testing.T) {
	saver := memSaver{}
	c := New(&fakeSource{}, saver, zap.NewNop())
	c.Seed([]protocol.Contact{{ID: "u1"}}, []protocol.Room{{ID: "g1", Name: ""}})

	if len(saver) != 0 {
		t.Errorf("Seed persisted %v", saver)
	}
	if c.RoomName("g1") != "g1" {
		t.Errorf("RoomName of unnamed room = %q, want id fallback", c.RoomName("g1"))
	}
	if c.RoomName("unknown") != "unknown" {
		t.Errorf("RoomName(unknown) = %q, want id fallback", c.RoomName("unknown"))
	}
}

func TestRoomsAreCopies(t *testing.T) {
	c := New(&fakeSource{}, memSaver{}, zap.NewNop())
	c.Seed(nil, []protocol.Room{{ID: "g1", Members: []string{"a"}}})

	rooms := c.Rooms()
	rooms[0].Members[0] = "mutated"
	if c.Rooms()[0].Members[0] != "a" {
		t.Error("Rooms() aliases cached members")
	}
}
