// Package bridge exposes the bot to a single attached shell: a named command
// surface and a relay of runtime events.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/matheus3301/botpanel/internal/bot"
	"github.com/matheus3301/botpanel/internal/bus"
	"github.com/matheus3301/botpanel/internal/knowledge"
	"github.com/matheus3301/botpanel/internal/msglog"
	"github.com/matheus3301/botpanel/internal/protocol"
	"github.com/matheus3301/botpanel/internal/rules"
	"github.com/matheus3301/botpanel/internal/stats"
	"go.uber.org/zap"
)

var (
	// ErrUnknownCommand is returned by Call for names not in the command table.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrInvalidArgs is returned when command arguments cannot be decoded.
	ErrInvalidArgs = errors.New("invalid arguments")
)

// Bot is the command surface of the bot manager.
type Bot interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	RefreshQRCode(ctx context.Context) error
	Status(ctx context.Context) (bot.Status, error)
	QRCode(ctx context.Context) (bot.QRCode, error)
	User(ctx context.Context) (protocol.User, error)
	Stats(ctx context.Context) (stats.Stats, error)
	Contacts(ctx context.Context) ([]protocol.Contact, error)
	RefreshContacts(ctx context.Context) ([]protocol.Contact, error)
	Rooms(ctx context.Context) ([]protocol.Room, error)
	RefreshRooms(ctx context.Context) ([]protocol.Room, error)
	Messages(ctx context.Context) ([]msglog.Entry, error)
	Rules(ctx context.Context) ([]rules.Rule, error)
	AddRule(ctx context.Context, r rules.Rule) error
	UpdateRule(ctx context.Context, r rules.Rule) error
	RemoveRule(ctx context.Context, id string) error
	ToggleRule(ctx context.Context, id string, enabled bool) error
	Knowledge(ctx context.Context) ([]knowledge.Item, error)
	AddKnowledge(ctx context.Context, it knowledge.Item) error
}

// Result is the envelope returned by commands that only succeed or fail.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func resultOf(err error) Result {
	if err != nil {
		return Result{Error: err.Error()}
	}
	return Result{Success: true}
}

// RuleID names a rule in deleteAutoReply.
type RuleID struct {
	ID string `json:"id"`
}

// Toggle is the argument of toggleAutoReply.
type Toggle struct {
	ID      string `json:"id"`
	Enabled bool   `json:"enabled"`
}

type handler func(ctx context.Context, args json.RawMessage) (any, error)

// Bridge dispatches commands to the bot and relays bus events to the
// current observer.
type Bridge struct {
	bot    Bot
	bus    *bus.Bus
	logger *zap.Logger

	handlers map[string]handler

	mu       sync.Mutex
	observer *observer
	nextID   uint64
}

// New creates a bridge. Call Run to start relaying events.
func New(b Bot, events *bus.Bus, logger *zap.Logger) *Bridge {
	br := &Bridge{bot: b, bus: events, logger: logger}
	br.handlers = br.commandTable()
	return br
}

func (br *Bridge) commandTable() map[string]handler {
	return map[string]handler{
		CmdStart:          br.action(br.bot.Start),
		CmdStop:           br.action(br.bot.Stop),
		CmdRefreshQRCode:  br.action(br.bot.RefreshQRCode),
		CmdStatus:         query(br.bot.Status),
		CmdQRCode:         query(br.bot.QRCode),
		CmdUserInfo:       query(br.bot.User),
		CmdStats:          query(br.bot.Stats),
		CmdFriends:        query(br.bot.Contacts),
		CmdRefreshFriends: query(br.bot.RefreshContacts),
		CmdRooms:          query(br.bot.Rooms),
		CmdRefreshRooms:   query(br.bot.RefreshRooms),
		CmdMessages:       query(br.bot.Messages),
		CmdAutoReplies:    query(br.bot.Rules),
		CmdAddAutoReply: withArgs(func(ctx context.Context, r rules.Rule) (any, error) {
			if r.ID == "" {
				r.ID = uuid.NewString()
			}
			return resultOf(br.bot.AddRule(ctx, r)), nil
		}),
		CmdUpdateAutoReply: withArgs(func(ctx context.Context, r rules.Rule) (any, error) {
			return resultOf(br.bot.UpdateRule(ctx, r)), nil
		}),
		CmdDeleteAutoReply: withArgs(func(ctx context.Context, a RuleID) (any, error) {
			return resultOf(br.bot.RemoveRule(ctx, a.ID)), nil
		}),
		CmdToggleAutoReply: withArgs(func(ctx context.Context, a Toggle) (any, error) {
			return resultOf(br.bot.ToggleRule(ctx, a.ID, a.Enabled)), nil
		}),
		CmdKnowledge: query(br.bot.Knowledge),
		CmdAddKnowledge: withArgs(func(ctx context.Context, it knowledge.Item) (any, error) {
			return resultOf(br.bot.AddKnowledge(ctx, it)), nil
		}),
	}
}

func (br *Bridge) action(fn func(context.Context) error) handler {
	return func(ctx context.Context, _ json.RawMessage) (any, error) {
		err := fn(ctx)
		if err != nil {
			br.logger.Warn("command failed", zap.Error(err))
		}
		return resultOf(err), nil
	}
}

func query[T any](fn func(context.Context) (T, error)) handler {
	return func(ctx context.Context, _ json.RawMessage) (any, error) {
		return fn(ctx)
	}
}

func withArgs[A any](fn func(context.Context, A) (any, error)) handler {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		var args A
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &args); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidArgs, err)
			}
		}
		return fn(ctx, args)
	}
}

// Call runs the named command. Commands that only succeed or fail report
// failure inside a Result; query failures and bad arguments are returned as
// errors.
func (br *Bridge) Call(ctx context.Context, name string, args json.RawMessage) (any, error) {
	h, ok := br.handlers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	return h(ctx, args)
}

// Commands lists the command names in sorted order.
func (br *Bridge) Commands() []string {
	names := make([]string, 0, len(br.handlers))
	for name := range br.handlers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
