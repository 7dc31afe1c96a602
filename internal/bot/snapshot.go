package bot

import (
	"context"

	"github.com/matheus3301/botpanel/internal/knowledge"
	"github.com/matheus3301/botpanel/internal/protocol"
	"github.com/matheus3301/botpanel/internal/rules"
	"github.com/matheus3301/botpanel/internal/store"
)

// Getter reads persisted values; absent keys leave dst untouched.
type Getter interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
}

// Snapshot is the persisted state a manager starts from.
type Snapshot struct {
	Contacts  []protocol.Contact
	Rooms     []protocol.Room
	Rules     []rules.Rule
	Knowledge []knowledge.Item
}

// LoadSnapshot reads every persisted collection. Missing keys fall back to
// empty lists, or the default knowledge items.
func LoadSnapshot(ctx context.Context, kv Getter) (Snapshot, error) {
	snap := Snapshot{
		Contacts:  []protocol.Contact{},
		Rooms:     []protocol.Room{},
		Rules:     []rules.Rule{},
		Knowledge: knowledge.Defaults(),
	}
	fields := []struct {
		key string
		dst any
	}{
		{store.KeyContacts, &snap.Contacts},
		{store.KeyRooms, &snap.Rooms},
		{store.KeyAutoReplies, &snap.Rules},
		{store.KeyKnowledge, &snap.Knowledge},
	}
	for _, f := range fields {
		if _, err := kv.Get(ctx, f.key, f.dst); err != nil {
			return Snapshot{}, err
		}
	}
	return snap, nil
}
