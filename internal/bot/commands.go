package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/matheus3301/botpanel/internal/bus"
	"github.com/matheus3301/botpanel/internal/knowledge"
	"github.com/matheus3301/botpanel/internal/msglog"
	"github.com/matheus3301/botpanel/internal/protocol"
	"github.com/matheus3301/botpanel/internal/rules"
	"github.com/matheus3301/botpanel/internal/stats"
	"github.com/matheus3301/botpanel/internal/status"
	"go.uber.org/zap"
)

// StopReason is forwarded with the logout event of a local Stop.
const StopReason = "user_action"

// Start connects the protocol client.
func (m *Manager) Start(ctx context.Context) error {
	return m.run(ctx, func() error {
		if m.machine.Current() == status.Stopped {
			return ErrNotRunning
		}
		if err := m.client.Start(ctx); err != nil {
			return fmt.Errorf("start client: %w", err)
		}
		m.logger.Info("bot started")
		return nil
	})
}

// Stop logs out, disconnects and returns the session to Idle.
func (m *Manager) Stop(ctx context.Context) error {
	return m.run(ctx, func() error {
		return m.stopSession(ctx)
	})
}

// RefreshQRCode forces a new login by logging out and starting again.
func (m *Manager) RefreshQRCode(ctx context.Context) error {
	return m.run(ctx, func() error {
		if err := m.stopSession(ctx); err != nil {
			return err
		}
		if err := m.client.Start(ctx); err != nil {
			return fmt.Errorf("restart client: %w", err)
		}
		return nil
	})
}

func (m *Manager) stopSession(ctx context.Context) error {
	logoutErr := m.client.Logout(ctx)
	if logoutErr != nil {
		logoutErr = fmt.Errorf("logout: %w", logoutErr)
	}
	stopErr := m.client.Stop(ctx)
	if stopErr != nil {
		stopErr = fmt.Errorf("disconnect: %w", stopErr)
	}

	prev := m.reset()
	if prev.ID != "" {
		m.bus.Emit(bus.KindLogout, Logout{Name: prev.Name, Reason: StopReason})
	}
	m.logger.Info("bot stopped")
	return errors.Join(logoutErr, stopErr)
}

// Status reports the lifecycle state and whether the bot is fully usable.
type Status struct {
	LoggedIn bool         `json:"loggedIn"`
	State    status.State `json:"state"`
}

// Status returns the current session status.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	return query(ctx, m, func() Status {
		return Status{LoggedIn: m.isLoggedIn(), State: m.machine.Current()}
	})
}

// IsLoggedIn is true only when Ready with an active client session and a
// known user.
func (m *Manager) IsLoggedIn(ctx context.Context) (bool, error) {
	return query(ctx, m, m.isLoggedIn)
}

func (m *Manager) isLoggedIn() bool {
	return m.machine.Current() == status.Ready && m.client.IsLoggedIn() && m.user.ID != ""
}

// User returns the logged in account, empty when none.
func (m *Manager) User(ctx context.Context) (protocol.User, error) {
	return query(ctx, m, func() protocol.User { return m.user })
}

// QRCode returns the last login QR.
func (m *Manager) QRCode(ctx context.Context) (QRCode, error) {
	return query(ctx, m, func() QRCode { return m.qr })
}

// Stats returns freshly computed counters.
func (m *Manager) Stats(ctx context.Context) (stats.Stats, error) {
	return query(ctx, m, m.stats)
}

// Contacts returns the cached contacts.
func (m *Manager) Contacts(ctx context.Context) ([]protocol.Contact, error) {
	return query(ctx, m, m.dir.Contacts)
}

// RefreshContacts queries the network. A failed query yields an empty list
// and keeps the cache.
func (m *Manager) RefreshContacts(ctx context.Context) ([]protocol.Contact, error) {
	return query(ctx, m, func() []protocol.Contact { return m.dir.RefreshContacts(ctx) })
}

// Rooms returns the cached rooms.
func (m *Manager) Rooms(ctx context.Context) ([]protocol.Room, error) {
	return query(ctx, m, m.dir.Rooms)
}

// RefreshRooms queries the network with the same policy as RefreshContacts.
func (m *Manager) RefreshRooms(ctx context.Context) ([]protocol.Room, error) {
	return query(ctx, m, func() []protocol.Room { return m.dir.RefreshRooms(ctx) })
}

// ScheduleDirectoryRefresh queues a background refresh of contacts and rooms.
// It is skipped unless the session is logged in.
func (m *Manager) ScheduleDirectoryRefresh() {
	if !m.enqueue(m.refreshDirectory) {
		m.logger.Debug("directory refresh skipped, loop not running")
	}
}

// Messages returns the message log, newest first.
func (m *Manager) Messages(ctx context.Context) ([]msglog.Entry, error) {
	return query(ctx, m, m.log.List)
}

// Rules returns the auto-reply rules in match order.
func (m *Manager) Rules(ctx context.Context) ([]rules.Rule, error) {
	return query(ctx, m, m.rules.List)
}

// AddRule appends a rule.
func (m *Manager) AddRule(ctx context.Context, r rules.Rule) error {
	return m.run(ctx, func() error {
		if err := m.rules.Add(r); err != nil {
			return err
		}
		m.logger.Info("rule added", zap.String("id", r.ID))
		return nil
	})
}

// UpdateRule replaces a rule. Unknown ids are ignored.
func (m *Manager) UpdateRule(ctx context.Context, r rules.Rule) error {
	return m.run(ctx, func() error { return m.rules.Update(r) })
}

// RemoveRule deletes a rule. Unknown ids are ignored.
func (m *Manager) RemoveRule(ctx context.Context, id string) error {
	return m.run(ctx, func() error {
		m.rules.Remove(id)
		return nil
	})
}

// ToggleRule enables or disables a rule. Unknown ids are ignored.
func (m *Manager) ToggleRule(ctx context.Context, id string, enabled bool) error {
	return m.run(ctx, func() error {
		m.rules.SetEnabled(id, enabled)
		return nil
	})
}

// Knowledge returns the fallback answers.
func (m *Manager) Knowledge(ctx context.Context) ([]knowledge.Item, error) {
	return query(ctx, m, m.kb.List)
}

// AddKnowledge appends a fallback answer.
func (m *Manager) AddKnowledge(ctx context.Context, it knowledge.Item) error {
	return m.run(ctx, func() error { return m.kb.Add(it) })
}
