package views

import (
	"time"

	"github.com/matheus3301/botpanel/internal/bot"
	"github.com/matheus3301/botpanel/internal/msglog"
	"github.com/matheus3301/botpanel/internal/tui/ui"
	"github.com/rivo/tview"
)

// MessagesView lists the message log, newest first.
type MessagesView struct {
	*ResourceTable
}

// NewMessagesView creates the message log table.
func NewMessagesView(theme *ui.Theme) *MessagesView {
	return &MessagesView{ResourceTable: NewResourceTable(theme, "Messages", []Column{
		{Title: "TIME", Align: tview.AlignRight},
		{Title: "TYPE"},
		{Title: "ROOM", Expansion: 1},
		{Title: "SENDER", Expansion: 1},
		{Title: "CONTENT", Expansion: 4},
	})}
}

// Name implements Component.
func (mv *MessagesView) Name() string { return "Messages" }

// Hints implements Component.
func (mv *MessagesView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "/", Description: "Filter"},
		{Key: "Esc", Description: "Clear filter"},
	}
}

// Update renders the log. Auto-reply echoes are dimmed.
func (mv *MessagesView) Update(entries []msglog.Entry) {
	rows := make([]Row, 0, len(entries))
	for _, e := range entries {
		room := ""
		if e.Room != nil {
			room = *e.Room
		}
		rows = append(rows, Row{
			Key:   e.ID,
			Cells: []string{formatTimestamp(e.Timestamp), string(e.Type), room, e.Sender, e.Content},
			Dim:   e.Sender == bot.AutoReplySender,
		})
	}
	mv.SetRows(rows)
}

func formatTimestamp(ms int64) string {
	if ms == 0 {
		return ""
	}
	t := time.UnixMilli(ms)
	now := time.Now()
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04:05")
	}
	return t.Format("01/02 15:04")
}
