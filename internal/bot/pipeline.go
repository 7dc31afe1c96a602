package bot

import (
	"fmt"
	"strings"

	"github.com/matheus3301/botpanel/internal/bus"
	"github.com/matheus3301/botpanel/internal/msglog"
	"github.com/matheus3301/botpanel/internal/protocol"
	"github.com/matheus3301/botpanel/internal/rules"
	"github.com/matheus3301/botpanel/internal/status"
	"go.uber.org/zap"
)

// AutoReplySender is the sender name of logged auto-reply echoes.
const AutoReplySender = "auto-reply"

func (m *Manager) onMessage(msg protocol.Message) {
	if m.machine.Current() != status.Ready {
		m.logger.Debug("message before ready dropped", zap.String("id", msg.ID))
		return
	}
	if msg.Text == "" || msg.Type == protocol.TypeUnknown {
		m.logger.Debug("message filtered", zap.String("id", msg.ID), zap.String("type", string(msg.Type)))
		return
	}

	entry := msglog.Entry{
		ID:        msg.ID,
		Content:   msg.Text,
		Sender:    senderName(msg),
		Timestamp: msg.Timestamp.UnixMilli(),
		Type:      msglog.Classify(msg.Type),
	}
	if msg.IsGroup() {
		room := m.dir.RoomName(msg.RoomID)
		entry.Room = &room
	}
	m.log.Record(entry)

	if echo, ok := m.autoReply(msg, entry); ok {
		m.bus.Emit(bus.KindMessage, echo)
	}
	m.bus.Emit(bus.KindMessage, entry)
	m.emitStats()
}

// autoReply sends the reply for msg, if any, and logs the echo entry.
func (m *Manager) autoReply(msg protocol.Message, entry msglog.Entry) (msglog.Entry, bool) {
	if msg.FromSelf {
		return msglog.Entry{}, false
	}
	text, ok := eligibleText(msg, m.user.Name)
	if !ok {
		return msglog.Entry{}, false
	}

	reply, ok := m.replyFor(text)
	if !ok {
		return msglog.Entry{}, false
	}

	if err := m.client.SendText(m.ctx, msg.ChatID, reply); err != nil {
		m.logger.Error("auto reply failed", zap.String("chat", msg.ChatID), zap.Error(err))
		return msglog.Entry{}, false
	}

	echo := msglog.Entry{
		ID:        m.newID(),
		Content:   fmt.Sprintf("%s: %s -> %s", entry.Sender, msg.Text, reply),
		Sender:    AutoReplySender,
		Room:      entry.Room,
		Timestamp: m.now().UnixMilli(),
		Type:      msglog.KindText,
	}
	m.log.Record(echo)
	m.logger.Info("auto reply sent", zap.String("chat", msg.ChatID))
	return echo, true
}

func (m *Manager) replyFor(text string) (string, bool) {
	if r, ok := m.rules.Match(text); ok {
		if r.ReplyType != rules.ReplyText || r.Content == "" {
			return "", false
		}
		return r.Content, true
	}
	if m.opts.KnowledgeFallback {
		return m.kb.Answer(text)
	}
	return "", false
}

// eligibleText decides whether msg addresses the bot and returns the text
// rules are matched against. Direct messages always qualify. Group messages
// need the "@<own name>" token or a mention reported by the network; the
// first token occurrence is stripped.
func eligibleText(msg protocol.Message, ownName string) (string, bool) {
	if !msg.IsGroup() {
		return msg.Text, true
	}
	token := ""
	if ownName != "" {
		token = "@" + ownName
	}
	hasToken := token != "" && strings.Contains(msg.Text, token)
	if !hasToken && !msg.MentionsSelf {
		return "", false
	}
	switch {
	case msg.MentionsSelf && msg.MentionText != "":
		return strings.TrimSpace(msg.MentionText), true
	case hasToken:
		return strings.TrimSpace(strings.Replace(msg.Text, token, "", 1)), true
	default:
		return strings.TrimSpace(msg.Text), true
	}
}

func senderName(msg protocol.Message) string {
	if msg.SenderName != "" {
		return msg.SenderName
	}
	return msg.SenderID
}
