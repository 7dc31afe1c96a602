package wa

import (
	"testing"
	"time"

	"github.com/matheus3301/botpanel/internal/protocol"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"
)

var botIdentity = Identity{
	JID:      types.JID{User: "5511999", Server: types.DefaultUserServer, Device: 3},
	LID:      types.JID{User: "8877", Server: types.HiddenUserServer},
	PushName: "Bot",
}

func TestExtractTextBody(t *testing.T) {
	tests := []struct {
		name string
		msg  *waE2E.Message
		want string
	}{
		{"nil message", nil, ""},
		{"conversation", &waE2E.Message{Conversation: proto.String("hello")}, "hello"},
		{"extended text", &waE2E.Message{ExtendedTextMessage: &waE2E.ExtendedTextMessage{Text: proto.String("extended")}}, "extended"},
		{"image caption", &waE2E.Message{ImageMessage: &waE2E.ImageMessage{Caption: proto.String("look")}}, "look"},
		{"image without caption", &waE2E.Message{ImageMessage: &waE2E.ImageMessage{}}, ""},
		{"document name", &waE2E.Message{DocumentMessage: &waE2E.DocumentMessage{FileName: proto.String("report.pdf")}}, "report.pdf"},
		{"sticker", &waE2E.Message{StickerMessage: &waE2E.StickerMessage{}}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractTextBody(tt.msg); got != tt.want {
				t.Errorf("extractTextBody() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetectMessageType(t *testing.T) {
	tests := []struct {
		name string
		msg  *waE2E.Message
		want protocol.MessageType
	}{
		{"nil", nil, protocol.TypeUnknown},
		{"text conversation", &waE2E.Message{Conversation: proto.String("hi")}, protocol.TypeText},
		{"extended text", &waE2E.Message{ExtendedTextMessage: &waE2E.ExtendedTextMessage{Text: proto.String("hi")}}, protocol.TypeText},
		{"image", &waE2E.Message{ImageMessage: &waE2E.ImageMessage{}}, protocol.TypeImage},
		{"video", &waE2E.Message{VideoMessage: &waE2E.VideoMessage{}}, protocol.TypeVideo},
		{"audio", &waE2E.Message{AudioMessage: &waE2E.AudioMessage{}}, protocol.TypeAudio},
		{"document", &waE2E.Message{DocumentMessage: &waE2E.DocumentMessage{}}, protocol.TypeDocument},
		{"sticker", &waE2E.Message{StickerMessage: &waE2E.StickerMessage{}}, protocol.TypeSticker},
		{"contact", &waE2E.Message{ContactMessage: &waE2E.ContactMessage{}}, protocol.TypeContact},
		{"location", &waE2E.Message{LocationMessage: &waE2E.LocationMessage{}}, protocol.TypeLocation},
		{"empty message", &waE2E.Message{}, protocol.TypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectMessageType(tt.msg); got != tt.want {
				t.Errorf("detectMessageType() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseDirectMessage(t *testing.T) {
	ts := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	evt := &events.Message{
		Info: types.MessageInfo{
			PushName:  "Alice",
			Timestamp: ts,
			MessageSource: types.MessageSource{
				Chat:   types.JID{User: "alice", Server: types.DefaultUserServer},
				Sender: types.JID{User: "alice", Server: types.DefaultUserServer, Device: 2},
			},
			ID: "MSG123",
		},
		Message: &waE2E.Message{Conversation: proto.String("hello world")},
	}

	got := ParseMessage(evt, botIdentity)
	if got.ID != "MSG123" || got.Text != "hello world" || got.Type != protocol.TypeText {
		t.Errorf("parsed = %+v", got)
	}
	if got.IsGroup() {
		t.Error("direct message parsed as group")
	}
	if got.ChatID != "alice@s.whatsapp.net" || got.SenderID != "alice@s.whatsapp.net" {
		t.Errorf("chat = %q sender = %q", got.ChatID, got.SenderID)
	}
	if got.SenderName != "Alice" || !got.Timestamp.Equal(ts) {
		t.Errorf("sender name = %q, timestamp = %v", got.SenderName, got.Timestamp)
	}
	if got.MentionsSelf {
		t.Error("direct message should not report a mention")
	}
}

func groupMention(text string, mentioned ...string) *events.Message {
	return &events.Message{
		Info: types.MessageInfo{
			MessageSource: types.MessageSource{
				Chat:    types.JID{User: "team", Server: types.GroupServer},
				Sender:  types.JID{User: "alice", Server: types.DefaultUserServer},
				IsGroup: true,
			},
			ID: "G1",
		},
		Message: &waE2E.Message{ExtendedTextMessage: &waE2E.ExtendedTextMessage{
			Text:        proto.String(text),
			ContextInfo: &waE2E.ContextInfo{MentionedJID: mentioned},
		}},
	}
}

func TestParseGroupMention(t *testing.T) {
	tests := []struct {
		name         string
		evt          *events.Message
		wantMention  bool
		wantStripped string
	}{
		{"phone mention", groupMention("@5511999 price", "5511999@s.whatsapp.net"), true, "price"},
		{"lid mention", groupMention("hey @8877 hi", "8877@lid"), true, "hey  hi"},
		{"someone else", groupMention("@123 hi", "123@s.whatsapp.net"), false, ""},
		{"no mentions", groupMention("hi all"), false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseMessage(tt.evt, botIdentity)
			if got.RoomID != "team@g.us" || got.ChatID != "team@g.us" {
				t.Errorf("room = %q chat = %q", got.RoomID, got.ChatID)
			}
			if got.MentionsSelf != tt.wantMention || got.MentionText != tt.wantStripped {
				t.Errorf("mention = %v %q, want %v %q", got.MentionsSelf, got.MentionText, tt.wantMention, tt.wantStripped)
			}
		})
	}
}

func TestContactFromInfo(t *testing.T) {
	jid := types.JID{User: "5511", Server: types.DefaultUserServer}
	tests := []struct {
		name       string
		info       types.ContactInfo
		wantName   string
		wantFriend bool
	}{
		{"saved contact", types.ContactInfo{FullName: "Ann Smith", PushName: "ann"}, "Ann Smith", true},
		{"push name only", types.ContactInfo{PushName: "ann"}, "ann", false},
		{"business", types.ContactInfo{BusinessName: "Shop"}, "Shop", false},
		{"nothing known", types.ContactInfo{}, "5511", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := contactFromInfo(jid, tt.info)
			if c.Name != tt.wantName || c.Friend != tt.wantFriend {
				t.Errorf("contact = %+v", c)
			}
			if c.ID != "5511@s.whatsapp.net" || c.Gender != protocol.GenderFemale {
				t.Errorf("id = %q gender = %q", c.ID, c.Gender)
			}
		})
	}
}

func TestRoomFromGroup(t *testing.T) {
	g := &types.GroupInfo{
		JID:       types.JID{User: "team", Server: types.GroupServer},
		GroupName: types.GroupName{Name: "Team"},
		Participants: []types.GroupParticipant{
			{JID: types.JID{User: "a", Server: types.DefaultUserServer}},
			{JID: types.JID{User: "b", Server: types.DefaultUserServer, Device: 1}},
		},
	}
	r := roomFromGroup(g)
	if r.ID != "team@g.us" || r.Name != "Team" {
		t.Errorf("room = %+v", r)
	}
	if len(r.Members) != 2 || r.Members[1] != "b@s.whatsapp.net" {
		t.Errorf("members = %v", r.Members)
	}
}
