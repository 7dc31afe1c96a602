package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/matheus3301/botpanel/internal/api"
	"github.com/matheus3301/botpanel/internal/bot"
	"github.com/matheus3301/botpanel/internal/bridge"
	"github.com/matheus3301/botpanel/internal/knowledge"
	"github.com/matheus3301/botpanel/internal/msglog"
	"github.com/matheus3301/botpanel/internal/protocol"
	"github.com/matheus3301/botpanel/internal/rules"
	"github.com/matheus3301/botpanel/internal/stats"
	"github.com/matheus3301/botpanel/internal/status"
)

// Caller is the part of the daemon client the view model uses.
type Caller interface {
	Call(ctx context.Context, name string, args, result any) error
	Do(ctx context.Context, name string, args any) error
	Session(ctx context.Context) (*api.GetSessionResponse, error)
}

// Section flags the parts of the cached state that changed.
type Section uint

const (
	SectionSession Section = 1 << iota
	SectionStatus
	SectionUser
	SectionQR
	SectionStats
	SectionMessages
	SectionRules
	SectionContacts
	SectionRooms
	SectionKnowledge

	SectionAll = SectionSession | SectionStatus | SectionUser | SectionQR | SectionStats |
		SectionMessages | SectionRules | SectionContacts | SectionRooms | SectionKnowledge
)

// Has reports whether s includes any of the given sections.
func (s Section) Has(o Section) bool {
	return s&o != 0
}

// ViewModel caches bot state loaded through commands and kept current by
// relayed events, and signals the UI when something changed.
type ViewModel struct {
	mu sync.RWMutex

	caller    Caller
	session   api.GetSessionResponse
	status    bot.Status
	user      protocol.User
	qr        bot.QRCode
	stats     stats.Stats
	messages  []msglog.Entry
	rules     []rules.Rule
	contacts  []protocol.Contact
	rooms     []protocol.Room
	knowledge []knowledge.Item
	logout    *bot.Logout

	dirty     Section
	refreshCh chan struct{}
}

// NewViewModel creates a view model backed by the daemon client.
func NewViewModel(c Caller) *ViewModel {
	return &ViewModel{
		caller:    c,
		status:    bot.Status{State: status.Idle},
		refreshCh: make(chan struct{}, 1),
	}
}

// RefreshCh signals that TakeDirty has something to report.
func (vm *ViewModel) RefreshCh() <-chan struct{} {
	return vm.refreshCh
}

// TakeDirty returns and clears the sections changed since the last call.
func (vm *ViewModel) TakeDirty() Section {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	d := vm.dirty
	vm.dirty = 0
	return d
}

// markLocked must be called with mu held.
func (vm *ViewModel) markLocked(s Section) {
	if s == 0 {
		return
	}
	vm.dirty |= s
	select {
	case vm.refreshCh <- struct{}{}:
	default:
	}
}

// Apply folds a relayed event into the cache and returns what it touched.
// Unknown event names are ignored.
func (vm *ViewModel) Apply(name string, payload json.RawMessage) (Section, error) {
	var changed Section
	var err error

	vm.mu.Lock()
	defer vm.mu.Unlock()

	switch name {
	case bridge.EventScan:
		var qr bot.QRCode
		if err = decode(payload, &qr); err == nil {
			vm.qr = qr
			changed = SectionQR
		}
	case bridge.EventLoggedIn:
		var loggedIn bool
		if err = decode(payload, &loggedIn); err == nil {
			vm.status.LoggedIn = loggedIn
			changed = SectionStatus
		}
	case bridge.EventUser:
		var u protocol.User
		if err = decode(payload, &u); err == nil {
			vm.user = u
			vm.qr = bot.QRCode{}
			vm.logout = nil
			changed = SectionUser | SectionQR
		}
	case bridge.EventReady:
		changed = SectionStatus
	case bridge.EventLogout:
		var l bot.Logout
		if err = decode(payload, &l); err == nil {
			vm.logout = &l
			vm.user = protocol.User{}
			vm.qr = bot.QRCode{}
			changed = SectionUser | SectionQR | SectionStatus
		}
	case bridge.EventNewMessage:
		var e msglog.Entry
		if err = decode(payload, &e); err == nil {
			vm.messages = slices.Insert(vm.messages, 0, e)
			if len(vm.messages) > msglog.Capacity {
				vm.messages = vm.messages[:msglog.Capacity]
			}
			changed = SectionMessages
		}
	case bridge.EventStatsUpdated:
		var s stats.Stats
		if err = decode(payload, &s); err == nil {
			vm.stats = s
			changed = SectionStats
		}
	case bridge.EventStateChanged:
		var c status.StatusChange
		if err = decode(payload, &c); err == nil {
			vm.status.State = c.To
			changed = SectionStatus
		}
	}
	if err != nil {
		return 0, fmt.Errorf("decode %s: %w", name, err)
	}
	vm.markLocked(changed)
	return changed, nil
}

func decode(payload json.RawMessage, v any) error {
	if len(payload) == 0 {
		return errors.New("empty payload")
	}
	return json.Unmarshal(payload, v)
}

// LoadAll reloads every section. Failures are joined; sections that loaded
// are kept.
func (vm *ViewModel) LoadAll(ctx context.Context) error {
	return errors.Join(
		vm.LoadSession(ctx),
		vm.LoadStatus(ctx),
		vm.LoadQR(ctx),
		vm.LoadStats(ctx),
		vm.LoadMessages(ctx),
		vm.LoadRules(ctx),
		vm.LoadContacts(ctx, false),
		vm.LoadRooms(ctx, false),
		vm.LoadKnowledge(ctx),
	)
}

// LoadSession fetches daemon metadata.
func (vm *ViewModel) LoadSession(ctx context.Context) error {
	resp, err := vm.caller.Session(ctx)
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.session = *resp
	vm.markLocked(SectionSession)
	vm.mu.Unlock()
	return nil
}

// LoadStatus fetches the bot state and the logged-in user.
func (vm *ViewModel) LoadStatus(ctx context.Context) error {
	var st bot.Status
	if err := vm.caller.Call(ctx, bridge.CmdStatus, nil, &st); err != nil {
		return err
	}
	var u protocol.User
	if err := vm.caller.Call(ctx, bridge.CmdUserInfo, nil, &u); err != nil {
		return err
	}
	vm.mu.Lock()
	vm.status = st
	vm.user = u
	vm.markLocked(SectionStatus | SectionUser)
	vm.mu.Unlock()
	return nil
}

// LoadQR fetches the current login code.
func (vm *ViewModel) LoadQR(ctx context.Context) error {
	return load(ctx, vm, bridge.CmdQRCode, SectionQR, &vm.qr)
}

// LoadStats fetches the counters.
func (vm *ViewModel) LoadStats(ctx context.Context) error {
	return load(ctx, vm, bridge.CmdStats, SectionStats, &vm.stats)
}

// LoadMessages fetches the message log.
func (vm *ViewModel) LoadMessages(ctx context.Context) error {
	return load(ctx, vm, bridge.CmdMessages, SectionMessages, &vm.messages)
}

// LoadRules fetches the auto-reply rules.
func (vm *ViewModel) LoadRules(ctx context.Context) error {
	return load(ctx, vm, bridge.CmdAutoReplies, SectionRules, &vm.rules)
}

// LoadKnowledge fetches the knowledge base.
func (vm *ViewModel) LoadKnowledge(ctx context.Context) error {
	return load(ctx, vm, bridge.CmdKnowledge, SectionKnowledge, &vm.knowledge)
}

// LoadContacts fetches contacts, re-reading the account directory when
// refresh is set.
func (vm *ViewModel) LoadContacts(ctx context.Context, refresh bool) error {
	cmd := bridge.CmdFriends
	if refresh {
		cmd = bridge.CmdRefreshFriends
	}
	return load(ctx, vm, cmd, SectionContacts, &vm.contacts)
}

// LoadRooms fetches rooms, re-reading the account directory when refresh
// is set.
func (vm *ViewModel) LoadRooms(ctx context.Context, refresh bool) error {
	cmd := bridge.CmdRooms
	if refresh {
		cmd = bridge.CmdRefreshRooms
	}
	return load(ctx, vm, cmd, SectionRooms, &vm.rooms)
}

// load runs a query command and stores its result in dst under the lock.
func load[T any](ctx context.Context, vm *ViewModel, cmd string, s Section, dst *T) error {
	var v T
	if err := vm.caller.Call(ctx, cmd, nil, &v); err != nil {
		return err
	}
	vm.mu.Lock()
	*dst = v
	vm.markLocked(s)
	vm.mu.Unlock()
	return nil
}

// Start connects the bot.
func (vm *ViewModel) Start(ctx context.Context) error {
	return vm.caller.Do(ctx, bridge.CmdStart, nil)
}

// Stop logs the bot out.
func (vm *ViewModel) Stop(ctx context.Context) error {
	return vm.caller.Do(ctx, bridge.CmdStop, nil)
}

// RefreshQR asks for a new login code and reloads it.
func (vm *ViewModel) RefreshQR(ctx context.Context) error {
	if err := vm.caller.Do(ctx, bridge.CmdRefreshQRCode, nil); err != nil {
		return err
	}
	return vm.LoadQR(ctx)
}

// AddRule creates a rule and reloads the rule list.
func (vm *ViewModel) AddRule(ctx context.Context, r rules.Rule) error {
	if err := vm.caller.Do(ctx, bridge.CmdAddAutoReply, r); err != nil {
		return err
	}
	return vm.LoadRules(ctx)
}

// RemoveRule deletes a rule and reloads the rule list.
func (vm *ViewModel) RemoveRule(ctx context.Context, id string) error {
	if err := vm.caller.Do(ctx, bridge.CmdDeleteAutoReply, bridge.RuleID{ID: id}); err != nil {
		return err
	}
	return vm.LoadRules(ctx)
}

// ToggleRule flips a cached rule's enabled flag. It returns the new value.
func (vm *ViewModel) ToggleRule(ctx context.Context, id string) (bool, error) {
	vm.mu.RLock()
	i := slices.IndexFunc(vm.rules, func(r rules.Rule) bool { return r.ID == id })
	enabled := i >= 0 && !vm.rules[i].Enabled
	vm.mu.RUnlock()
	if i < 0 {
		return false, fmt.Errorf("no rule %q", id)
	}

	if err := vm.caller.Do(ctx, bridge.CmdToggleAutoReply, bridge.Toggle{ID: id, Enabled: enabled}); err != nil {
		return false, err
	}
	return enabled, vm.LoadRules(ctx)
}

// AddKnowledge appends a knowledge item and reloads the base.
func (vm *ViewModel) AddKnowledge(ctx context.Context, it knowledge.Item) error {
	if err := vm.caller.Do(ctx, bridge.CmdAddKnowledge, it); err != nil {
		return err
	}
	return vm.LoadKnowledge(ctx)
}

// Session returns daemon metadata.
func (vm *ViewModel) Session() api.GetSessionResponse {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.session
}

// Status returns the bot status.
func (vm *ViewModel) Status() bot.Status {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.status
}

// User returns the logged-in account, zero when logged out.
func (vm *ViewModel) User() protocol.User {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.user
}

// QR returns the current login code.
func (vm *ViewModel) QR() bot.QRCode {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.qr
}

// LastLogout returns the most recent logout, or nil.
func (vm *ViewModel) LastLogout() *bot.Logout {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	if vm.logout == nil {
		return nil
	}
	l := *vm.logout
	return &l
}

// Stats returns the counters.
func (vm *ViewModel) Stats() stats.Stats {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.stats
}

// Messages returns a copy of the message log, newest first.
func (vm *ViewModel) Messages() []msglog.Entry {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return slices.Clone(vm.messages)
}

// Rules returns a copy of the rule list.
func (vm *ViewModel) Rules() []rules.Rule {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return slices.Clone(vm.rules)
}

// Contacts returns a copy of the contact list.
func (vm *ViewModel) Contacts() []protocol.Contact {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return slices.Clone(vm.contacts)
}

// Rooms returns a copy of the room list.
func (vm *ViewModel) Rooms() []protocol.Room {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return slices.Clone(vm.rooms)
}

// Knowledge returns a copy of the knowledge base.
func (vm *ViewModel) Knowledge() []knowledge.Item {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return slices.Clone(vm.knowledge)
}
