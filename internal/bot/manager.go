// Package bot runs the bot session: lifecycle, message handling and the
// command surface used by the shells.
package bot

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/matheus3301/botpanel/internal/bus"
	"github.com/matheus3301/botpanel/internal/directory"
	"github.com/matheus3301/botpanel/internal/knowledge"
	"github.com/matheus3301/botpanel/internal/msglog"
	"github.com/matheus3301/botpanel/internal/protocol"
	"github.com/matheus3301/botpanel/internal/rules"
	"github.com/matheus3301/botpanel/internal/stats"
	"github.com/matheus3301/botpanel/internal/status"
	"github.com/matheus3301/botpanel/internal/store"
	"go.uber.org/zap"
)

// taskQueueSize bounds the number of queued events and commands.
const taskQueueSize = 256

// Saver persists snapshots without blocking the caller.
type Saver interface {
	Save(key string, value any)
}

// Options tunes optional behavior.
type Options struct {
	// KnowledgeFallback answers from the knowledge base when no rule matches.
	KnowledgeFallback bool
}

// QRCode is the most recent login QR.
type QRCode struct {
	Payload string              `json:"qrcode"`
	Status  protocol.ScanStatus `json:"status"`
	URL     string              `json:"url"`
}

// Logout is the payload of a logout event.
type Logout struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Manager owns every piece of bot state. All state is touched from one
// goroutine that runs queued tasks in FIFO order.
type Manager struct {
	client  protocol.Client
	machine *status.Machine
	bus     *bus.Bus
	saver   Saver
	logger  *zap.Logger
	opts    Options

	rules *rules.Store
	log   *msglog.Log
	dir   *directory.Cache
	kb    *knowledge.Base

	user protocol.User
	qr   QRCode

	tasks  chan func()
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	now   func() time.Time
	newID func() string
}

// New wires a manager around client, seeded from a persisted snapshot.
func New(client protocol.Client, machine *status.Machine, b *bus.Bus, saver Saver, logger *zap.Logger, opts Options, snap Snapshot) *Manager {
	m := &Manager{
		client:  client,
		machine: machine,
		bus:     b,
		saver:   saver,
		logger:  logger,
		opts:    opts,
		rules:   rules.NewStore(snap.Rules),
		log:     msglog.New(msglog.Capacity),
		dir:     directory.New(client, saver, logger.Named("directory")),
		kb:      knowledge.New(snap.Knowledge),
		tasks:   make(chan func(), taskQueueSize),
		done:    make(chan struct{}),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	m.dir.Seed(snap.Contacts, snap.Rooms)

	m.rules.OnChange(func(rs []rules.Rule) {
		m.saver.Save(store.KeyAutoReplies, rs)
		m.emitStats()
	})
	m.dir.OnChange(m.emitStats)
	m.kb.OnChange(func(items []knowledge.Item) {
		m.saver.Save(store.KeyKnowledge, items)
	})
	client.SetHandler(m.handle)
	return m
}

// StartLoop begins processing queued events and commands.
func (m *Manager) StartLoop(ctx context.Context) {
	m.ctx, m.cancel = context.WithCancel(ctx)
	go m.loop()
}

// Shutdown disconnects the client without logging out, marks the session
// Stopped and ends the loop. Queued tasks that have not run are discarded.
func (m *Manager) Shutdown(ctx context.Context) error {
	err := m.run(ctx, func() error {
		stopErr := m.client.Stop(ctx)
		if err := m.machine.Transition(status.Stopped); err != nil {
			m.logger.Warn("shutdown transition", zap.Error(err))
		}
		return stopErr
	})
	if m.cancel != nil {
		m.cancel()
		<-m.done
	}
	return err
}

func (m *Manager) stats() stats.Stats {
	return stats.Compute(m.dir.Contacts(), m.dir.Rooms(), m.rules.List())
}

func (m *Manager) emitStats() {
	m.bus.Emit(bus.KindStats, m.stats())
}

// reset clears the session after a stop or logout. Directory, log and
// rules survive.
func (m *Manager) reset() protocol.User {
	prev := m.user
	m.user = protocol.User{}
	m.qr = QRCode{}
	m.machine.Reset()
	m.emitStats()
	return prev
}
