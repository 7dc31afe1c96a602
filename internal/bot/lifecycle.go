package bot

import (
	"github.com/matheus3301/botpanel/internal/bus"
	"github.com/matheus3301/botpanel/internal/protocol"
	"github.com/matheus3301/botpanel/internal/qr"
	"github.com/matheus3301/botpanel/internal/status"
	"go.uber.org/zap"
)

// handle is the protocol client's event sink. It runs on the client's
// goroutines and only queues work.
func (m *Manager) handle(evt protocol.Event) {
	if !m.enqueue(func() { m.dispatch(evt) }) {
		m.logger.Debug("event dropped, loop not running", zap.String("event", eventName(evt)))
	}
}

func (m *Manager) dispatch(evt protocol.Event) {
	switch e := evt.(type) {
	case protocol.ScanEvent:
		m.onScan(e)
	case protocol.LoginEvent:
		m.onLogin(e)
	case protocol.ReadyEvent:
		m.onReady()
	case protocol.MessageEvent:
		m.onMessage(e.Message)
	case protocol.LogoutEvent:
		m.onLogout(e)
	case protocol.ErrorEvent:
		m.logger.Warn("protocol client error", zap.Error(e.Err))
	}
}

func (m *Manager) onScan(e protocol.ScanEvent) {
	if e.Payload != "" {
		if err := m.machine.Transition(status.Scanning); err != nil {
			m.logger.Warn("ignoring scan", zap.Error(err))
			return
		}
		m.qr.Payload = e.Payload
		url, err := qr.DataURL(e.Payload)
		if err != nil {
			m.logger.Warn("qr render failed", zap.Error(err))
		}
		m.qr.URL = url
	}
	m.qr.Status = e.Status
	m.logger.Info("scan", zap.String("status", string(e.Status)))
	m.bus.Emit(bus.KindScan, m.qr)
}

func (m *Manager) onLogin(e protocol.LoginEvent) {
	switch m.machine.Current() {
	case status.LoggedIn, status.Ready:
		m.logger.Debug("duplicate login ignored", zap.String("user", e.User.ID))
		return
	}
	if err := m.machine.Transition(status.LoggedIn); err != nil {
		m.logger.Warn("ignoring login", zap.Error(err))
		return
	}

	m.user = e.User
	if avatar, err := m.client.Avatar(m.ctx, e.User.ID); err != nil {
		m.logger.Info("avatar unavailable", zap.Error(err))
		m.user.Avatar = ""
	} else {
		m.user.Avatar = avatar
	}
	// The code is spent once the login lands; only its outcome remains.
	if m.qr.Payload != "" {
		m.qr.Payload = ""
		m.qr.URL = ""
		m.qr.Status = protocol.ScanConfirmed
	}

	m.logger.Info("logged in", zap.String("user", m.user.ID), zap.String("name", m.user.Name))
	m.bus.Emit(bus.KindLogin, m.user)

	// Detached: the refresh runs after whatever is already queued and its
	// failures only degrade the directory.
	go m.enqueue(m.refreshDirectory)
}

func (m *Manager) onReady() {
	if err := m.machine.Transition(status.Ready); err != nil {
		m.logger.Warn("ignoring ready", zap.Error(err))
		return
	}
	m.logger.Info("ready")
	m.bus.Emit(bus.KindReady, nil)
	m.emitStats()
}

func (m *Manager) onLogout(e protocol.LogoutEvent) {
	prev := m.reset()
	name := prev.Name
	if name == "" {
		name = e.User.Name
	}
	m.logger.Info("logged out", zap.String("reason", e.Reason))
	m.bus.Emit(bus.KindLogout, Logout{Name: name, Reason: e.Reason})
}

func (m *Manager) refreshDirectory() {
	switch m.machine.Current() {
	case status.LoggedIn, status.Ready:
	default:
		return
	}
	m.dir.RefreshContacts(m.ctx)
	m.dir.RefreshRooms(m.ctx)
}

func eventName(evt protocol.Event) string {
	switch evt.(type) {
	case protocol.ScanEvent:
		return "scan"
	case protocol.LoginEvent:
		return "login"
	case protocol.ReadyEvent:
		return "ready"
	case protocol.MessageEvent:
		return "message"
	case protocol.LogoutEvent:
		return "logout"
	case protocol.ErrorEvent:
		return "error"
	default:
		return "unknown"
	}
}
