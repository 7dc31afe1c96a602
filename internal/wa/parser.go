package wa

import (
	"slices"
	"strings"

	"github.com/matheus3301/botpanel/internal/protocol"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
)

// Identity is the logged in account as seen by the parser.
type Identity struct {
	JID      types.JID
	LID      types.JID
	PushName string
}

// User converts the identity into the protocol representation.
func (id Identity) User() protocol.User {
	return protocol.User{ID: id.JID.ToNonAD().String(), Name: id.PushName}
}

// ParseMessage normalizes a live whatsmeow message event.
func ParseMessage(evt *events.Message, self Identity) protocol.Message {
	msg := protocol.Message{
		ID:         evt.Info.ID,
		Text:       extractTextBody(evt.Message),
		Type:       detectMessageType(evt.Message),
		SenderID:   evt.Info.Sender.ToNonAD().String(),
		SenderName: evt.Info.PushName,
		ChatID:     evt.Info.Chat.String(),
		Timestamp:  evt.Info.Timestamp,
		FromSelf:   evt.Info.IsFromMe,
	}
	if evt.Info.IsGroup {
		msg.RoomID = evt.Info.Chat.String()
	}
	if user, ok := mentionedSelf(evt.Message, self); ok {
		msg.MentionsSelf = true
		msg.MentionText = strings.TrimSpace(strings.Replace(msg.Text, "@"+user, "", 1))
	}
	return msg
}

// mentionedSelf reports whether the message mentions the account and returns
// the user part that appears after "@" in the text.
func mentionedSelf(msg *waE2E.Message, self Identity) (string, bool) {
	mentioned := contextInfo(msg).GetMentionedJID()
	for _, own := range []types.JID{self.JID, self.LID} {
		if own.IsEmpty() {
			continue
		}
		bare := own.ToNonAD()
		if slices.ContainsFunc(mentioned, func(s string) bool {
			j, err := types.ParseJID(s)
			return err == nil && j.ToNonAD() == bare
		}) {
			return bare.User, true
		}
	}
	return "", false
}

func contextInfo(msg *waE2E.Message) *waE2E.ContextInfo {
	switch {
	case msg == nil:
		return nil
	case msg.GetExtendedTextMessage() != nil:
		return msg.GetExtendedTextMessage().GetContextInfo()
	case msg.GetImageMessage() != nil:
		return msg.GetImageMessage().GetContextInfo()
	case msg.GetVideoMessage() != nil:
		return msg.GetVideoMessage().GetContextInfo()
	case msg.GetDocumentMessage() != nil:
		return msg.GetDocumentMessage().GetContextInfo()
	default:
		return nil
	}
}

// extractTextBody returns the text a rule can match: the message body, or
// the caption of a media message.
func extractTextBody(msg *waE2E.Message) string {
	if msg == nil {
		return ""
	}
	if c := msg.GetConversation(); c != "" {
		return c
	}
	if ext := msg.GetExtendedTextMessage(); ext != nil {
		return ext.GetText()
	}
	if img := msg.GetImageMessage(); img != nil {
		return img.GetCaption()
	}
	if vid := msg.GetVideoMessage(); vid != nil {
		return vid.GetCaption()
	}
	if doc := msg.GetDocumentMessage(); doc != nil {
		if c := doc.GetCaption(); c != "" {
			return c
		}
		return doc.GetFileName()
	}
	return ""
}

func detectMessageType(msg *waE2E.Message) protocol.MessageType {
	if msg == nil {
		return protocol.TypeUnknown
	}
	switch {
	case msg.GetConversation() != "" || msg.GetExtendedTextMessage() != nil:
		return protocol.TypeText
	case msg.GetImageMessage() != nil:
		return protocol.TypeImage
	case msg.GetVideoMessage() != nil:
		return protocol.TypeVideo
	case msg.GetAudioMessage() != nil:
		return protocol.TypeAudio
	case msg.GetDocumentMessage() != nil:
		return protocol.TypeDocument
	case msg.GetStickerMessage() != nil:
		return protocol.TypeSticker
	case msg.GetContactMessage() != nil:
		return protocol.TypeContact
	case msg.GetLocationMessage() != nil:
		return protocol.TypeLocation
	default:
		return protocol.TypeUnknown
	}
}
