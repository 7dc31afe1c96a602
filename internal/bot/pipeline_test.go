package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/matheus3301/botpanel/internal/bus"
	"github.com/matheus3301/botpanel/internal/knowledge"
	"github.com/matheus3301/botpanel/internal/msglog"
	"github.com/matheus3301/botpanel/internal/protocol"
	"github.com/matheus3301/botpanel/internal/rules"
)

var hiRule = rules.Rule{ID: "hi", Keywords: []string{"hi"}, ReplyType: rules.ReplyText, Content: "hello", Enabled: true}

func direct(id, text string) protocol.Message {
	return protocol.Message{
		ID: id, Text: text, Type: protocol.TypeText,
		SenderID: "ann@s.whatsapp.net", SenderName: "Ann", ChatID: "ann@s.whatsapp.net",
		Timestamp: time.UnixMilli(1_600_000_000_000),
	}
}

func group(id, text string) protocol.Message {
	msg := direct(id, text)
	msg.ChatID = "team@g.us"
	msg.RoomID = "team@g.us"
	return msg
}

func TestDirectMessageAutoReply(t *testing.T) {
	h := newHarness(t, Options{}, Snapshot{Rules: []rules.Rule{hiRule}})
	h.ready(t)

	h.client.emit(protocol.MessageEvent{Message: direct("m1", "say hi there")})
	h.sync(t)

	sent := h.client.sentTexts()
	if len(sent) != 1 || sent[0].ChatID != "ann@s.whatsapp.net" || sent[0].Text != "hello" {
		t.Fatalf("sent = %+v, want one hello to ann", sent)
	}

	logged, _ := h.m.Messages(context.Background())
	if len(logged) != 2 {
		t.Fatalf("log len = %d, want 2", len(logged))
	}
	echo, orig := logged[0], logged[1]
	if echo.Sender != AutoReplySender || echo.Content != "Ann: say hi there -> hello" {
		t.Errorf("echo = %+v", echo)
	}
	if echo.Timestamp != 1_700_000_000_000 {
		t.Errorf("echo timestamp = %d, want dispatch time", echo.Timestamp)
	}
	if orig.ID != "m1" || orig.Room != nil || orig.Type != msglog.KindText {
		t.Errorf("original = %+v", orig)
	}

	first := h.next(t, bus.KindMessage).Payload.(msglog.Entry)
	second := h.next(t, bus.KindMessage).Payload.(msglog.Entry)
	if first.Sender != AutoReplySender || second.ID != "m1" {
		t.Errorf("emit order = %s, %s; want echo then original", first.ID, second.ID)
	}
	h.next(t, bus.KindStats)
}

func TestGroupMessageRequiresMention(t *testing.T) {
	h := newHarness(t, Options{}, Snapshot{
		Rules: []rules.Rule{hiRule},
		Rooms: []protocol.Room{{ID: "team@g.us", Name: "Team"}},
	})
	h.ready(t)

	h.client.emit(protocol.MessageEvent{Message: group("m1", "hi all")})
	h.sync(t)

	if sent := h.client.sentTexts(); len(sent) != 0 {
		t.Fatalf("sent = %+v, want nothing without mention", sent)
	}
	logged, _ := h.m.Messages(context.Background())
	if len(logged) != 1 || logged[0].Room == nil || *logged[0].Room != "Team" {
		t.Fatalf("log = %+v, want one entry in room Team", logged)
	}

	h.client.emit(protocol.MessageEvent{Message: group("m2", "@Bot hi")})
	h.sync(t)

	sent := h.client.sentTexts()
	if len(sent) != 1 || sent[0].ChatID != "team@g.us" || sent[0].Text != "hello" {
		t.Fatalf("sent = %+v, want hello to team", sent)
	}
	logged, _ = h.m.Messages(context.Background())
	if len(logged) != 3 || *logged[0].Room != "Team" {
		t.Errorf("log = %+v, want echo in room Team on top", logged)
	}
}

func TestGroupMentionReportedByNetwork(t *testing.T) {
	h := newHarness(t, Options{}, Snapshot{Rules: []rules.Rule{
		{ID: "exact", Keywords: []string{"price"}, ExactMatch: true, Content: "10 USD", Enabled: true},
	}})
	h.ready(t)

	msg := group("m1", "@5511999 price")
	msg.MentionsSelf = true
	msg.MentionText = " price "
	h.client.emit(protocol.MessageEvent{Message: msg})
	h.sync(t)

	if sent := h.client.sentTexts(); len(sent) != 1 || sent[0].Text != "10 USD" {
		t.Errorf("sent = %+v, want exact match on stripped text", sent)
	}
}

func TestMessagesDroppedBeforeReady(t *testing.T) {
	h := newHarness(t, Options{}, Snapshot{Rules: []rules.Rule{hiRule}})

	h.client.emit(protocol.MessageEvent{Message: direct("m1", "hi")})
	h.sync(t)

	if logged, _ := h.m.Messages(context.Background()); len(logged) != 0 {
		t.Errorf("log = %+v, want empty before ready", logged)
	}
	if len(h.client.sentTexts()) != 0 {
		t.Error("reply sent before ready")
	}
}

func TestFilteredMessages(t *testing.T) {
	h := newHarness(t, Options{}, Snapshot{Rules: []rules.Rule{hiRule}})
	h.ready(t)

	unknown := direct("m2", "hi")
	unknown.Type = protocol.TypeUnknown
	h.client.emit(protocol.MessageEvent{Message: direct("m1", "")})
	h.client.emit(protocol.MessageEvent{Message: unknown})
	h.sync(t)

	if logged, _ := h.m.Messages(context.Background()); len(logged) != 0 {
		t.Errorf("log = %+v, want empty", logged)
	}
	select {
	case evt := <-h.events:
		if evt.Kind == bus.KindMessage {
			t.Errorf("unexpected message event %+v", evt)
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func TestOwnMessagesAreNotAnswered(t *testing.T) {
	h := newHarness(t, Options{}, Snapshot{Rules: []rules.Rule{hiRule}})
	h.ready(t)

	msg := direct("m1", "hi")
	msg.FromSelf = true
	h.client.emit(protocol.MessageEvent{Message: msg})
	h.sync(t)

	if len(h.client.sentTexts()) != 0 {
		t.Error("bot answered its own message")
	}
	if logged, _ := h.m.Messages(context.Background()); len(logged) != 1 {
		t.Errorf("log len = %d, want 1", len(logged))
	}
}

func TestSendFailureKeepsProcessing(t *testing.T) {
	h := newHarness(t, Options{}, Snapshot{Rules: []rules.Rule{hiRule}})
	h.ready(t)
	h.client.mu.Lock()
	h.client.sendErr = errors.New("offline")
	h.client.mu.Unlock()

	h.client.emit(protocol.MessageEvent{Message: direct("m1", "hi")})
	h.sync(t)

	logged, _ := h.m.Messages(context.Background())
	if len(logged) != 1 || logged[0].ID != "m1" {
		t.Errorf("log = %+v, want only the original", logged)
	}
	if evt := h.next(t, bus.KindMessage); evt.Payload.(msglog.Entry).ID != "m1" {
		t.Errorf("event = %+v, want original", evt.Payload)
	}
}

func TestDisabledRuleIsSkipped(t *testing.T) {
	h := newHarness(t, Options{}, Snapshot{Rules: []rules.Rule{hiRule}})
	h.ready(t)

	if err := h.m.ToggleRule(context.Background(), "hi", false); err != nil {
		t.Fatal(err)
	}
	h.client.emit(protocol.MessageEvent{Message: direct("m1", "hi")})
	h.sync(t)

	if len(h.client.sentTexts()) != 0 {
		t.Error("disabled rule answered")
	}
}

func TestKnowledgeFallback(t *testing.T) {
	snap := Snapshot{Knowledge: []knowledge.Item{{Question: "hours", Answer: "9 to 5", Keywords: []string{"open"}}}}

	off := newHarness(t, Options{}, snap)
	off.ready(t)
	off.client.emit(protocol.MessageEvent{Message: direct("m1", "are you open?")})
	off.sync(t)
	if len(off.client.sentTexts()) != 0 {
		t.Error("knowledge answered with fallback disabled")
	}

	on := newHarness(t, Options{KnowledgeFallback: true}, snap)
	on.ready(t)
	on.client.emit(protocol.MessageEvent{Message: direct("m1", "are you open?")})
	on.sync(t)
	if sent := on.client.sentTexts(); len(sent) != 1 || sent[0].Text != "9 to 5" {
		t.Errorf("sent = %+v, want knowledge answer", sent)
	}
}

func TestEligibleText(t *testing.T) {
	tests := []struct {
		name   string
		msg    protocol.Message
		own    string
		want   string
		wantOK bool
	}{
		{"direct keeps full text", direct("1", " hi "), "Bot", " hi ", true},
		{"group without token", group("1", "hi"), "Bot", "", false},
		{"group with token", group("1", "@Bot hi"), "Bot", "hi", true},
		{"first token only", group("1", "@Bot ask @Bot"), "Bot", "ask @Bot", true},
		{"unknown own name", group("1", "@ hi"), "", "", false},
		{"network mention without text", protocol.Message{RoomID: "g", Text: " yo ", MentionsSelf: true}, "", "yo", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := eligibleText(tt.msg, tt.own)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("eligibleText() = %q, %v; want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestLogCapacity(t *testing.T) {
	h := newHarness(t, Options{}, Snapshot{})
	h.ready(t)

	for i := range msglog.Capacity + 5 {
		h.client.emit(protocol.MessageEvent{Message: direct(string(rune('a'+i%26)), "msg")})
	}
	h.sync(t)

	logged, _ := h.m.Messages(context.Background())
	if len(logged) != msglog.Capacity {
		t.Errorf("log len = %d, want %d", len(logged), msglog.Capacity)
	}
}
