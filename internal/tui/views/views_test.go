package views

import (
	"strings"
	"testing"

	"github.com/matheus3301/botpanel/internal/bot"
	"github.com/matheus3301/botpanel/internal/msglog"
	"github.com/matheus3301/botpanel/internal/protocol"
	"github.com/matheus3301/botpanel/internal/rules"
	"github.com/matheus3301/botpanel/internal/stats"
	"github.com/matheus3301/botpanel/internal/status"
	"github.com/matheus3301/botpanel/internal/tui/ui"
)

func TestSanitizeForTerminal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello", "hello"},
		{"skin tone", "👍\U0001F3FB", "👍"},
		{"zwj family", "👨\u200D👩", "👨👩"},
		{"variation selector", "❤\uFE0F", "❤"},
		{"newline", "a\nb", "a b"},
		{"control", "a\x07b\tc", "ab\tc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeForTerminal(tt.in); got != tt.want {
				t.Errorf("sanitizeForTerminal(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestResourceTableFilter(t *testing.T) {
	rt := NewResourceTable(ui.DefaultTheme(), "Things", []Column{{Title: "NAME"}, {Title: "NOTE"}})
	rt.SetRows([]Row{
		{Key: "1", Cells: []string{"Alpha", "first"}},
		{Key: "2", Cells: []string{"Beta", "second"}},
		{Key: "3", Cells: []string{"Gamma", "alphabet"}},
	})
	if n := len(rt.Visible()); n != 3 {
		t.Fatalf("visible = %d, want 3", n)
	}
	if got := rt.Heading(); got != " Things (3) " {
		t.Errorf("title = %q", got)
	}

	rt.SetFilter("ALPHA")
	if n := len(rt.Visible()); n != 2 {
		t.Fatalf("filtered = %d, want 2", n)
	}
	if !strings.Contains(rt.Heading(), "(2/3)") {
		t.Errorf("title = %q", rt.Heading())
	}
	if rt.GetRowCount() != 3 {
		t.Errorf("row count = %d, want header + 2", rt.GetRowCount())
	}

	rt.ClearFilter()
	if rt.Filter() != "" || len(rt.Visible()) != 3 {
		t.Errorf("filter not cleared")
	}
}

func TestResourceTableKeepsSelection(t *testing.T) {
	rt := NewResourceTable(ui.DefaultTheme(), "Things", []Column{{Title: "NAME"}})
	rt.SetRows([]Row{{Key: "a", Cells: []string{"a"}}, {Key: "b", Cells: []string{"b"}}})
	rt.Select(2, 0)
	if rt.SelectedKey() != "b" {
		t.Fatalf("selected = %q", rt.SelectedKey())
	}

	rt.SetRows([]Row{{Key: "new", Cells: []string{"new"}}, {Key: "a", Cells: []string{"a"}}, {Key: "b", Cells: []string{"b"}}})
	if rt.SelectedKey() != "b" {
		t.Errorf("selected after update = %q, want b", rt.SelectedKey())
	}
}

func TestRulesView(t *testing.T) {
	rv := NewRulesView(ui.DefaultTheme())
	rv.Update([]rules.Rule{
		{ID: "r1", Keywords: []string{"hi", "hello"}, Content: "Hey!", Enabled: true},
		{ID: "r2", Keywords: []string{"price"}, ExactMatch: true, Content: "10", Enabled: false},
	})

	rows := rv.Visible()
	if len(rows) != 2 {
		t.Fatalf("rows = %d", len(rows))
	}
	if got := rows[0].Cells[1]; got != "hi, hello" {
		t.Errorf("keywords = %q", got)
	}
	if rows[1].Cells[2] != "exact" || !rows[1].Dim {
		t.Errorf("row 2 = %+v", rows[1])
	}
	rv.Select(2, 0)
	if rv.SelectedRule() != "r2" {
		t.Errorf("selected = %q", rv.SelectedRule())
	}
}

func TestMessagesViewDimsOwnReplies(t *testing.T) {
	mv := NewMessagesView(ui.DefaultTheme())
	room := "Team"
	mv.Update([]msglog.Entry{
		{ID: "2", Sender: bot.AutoReplySender, Content: "Ann: ping -> pong", Type: msglog.KindText},
		{ID: "1", Sender: "Ann", Room: &room, Content: "ping", Type: msglog.KindText},
	})

	rows := mv.Visible()
	if !rows[0].Dim || rows[1].Dim {
		t.Errorf("dim flags = %v, %v", rows[0].Dim, rows[1].Dim)
	}
	if rows[1].Cells[2] != "Team" {
		t.Errorf("room = %q", rows[1].Cells[2])
	}
}

func TestDirectoryViews(t *testing.T) {
	cv := NewContactsView(ui.DefaultTheme())
	cv.Update([]protocol.Contact{{ID: "a@s", Name: "Ann", Friend: true, Gender: protocol.GenderFemale}})
	if got := cv.Visible()[0].Cells; got[0] != "Ann" || got[3] != "yes" {
		t.Errorf("contact cells = %v", got)
	}

	rv := NewRoomsView(ui.DefaultTheme())
	rv.Update([]protocol.Room{{ID: "g@g", Name: "Team", Members: []string{"a", "b"}}})
	if got := rv.Visible()[0].Cells[2]; got != "2" {
		t.Errorf("members = %q", got)
	}
}

func TestDashboardText(t *testing.T) {
	dv := NewDashboardView(ui.DefaultTheme())
	text := dv.text(DashboardData{
		Status: bot.Status{LoggedIn: true, State: status.Ready},
		User:   protocol.User{ID: "5511999", Name: "Bot"},
		Stats:  stats.Stats{ContactCount: 4, AutoReplyCount: 2},
		Messages: []msglog.Entry{
			{ID: "1", Sender: "Ann", Content: "first line\nsecond", Type: msglog.KindText},
			{ID: "2", Sender: "Ann", Type: msglog.KindImage},
		},
	})

	for _, want := range []string{"READY", "Bot (5511999)", "first line", "<image>"} {
		if !strings.Contains(text, want) {
			t.Errorf("dashboard missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "second") {
		t.Error("dashboard should only preview the first line")
	}
}

func TestScanHint(t *testing.T) {
	if got := scanHint(protocol.ScanTimeout); !strings.Contains(got, "expired") {
		t.Errorf("scanHint(timeout) = %q", got)
	}
	if got := scanHint(""); got != "Waiting for scan..." {
		t.Errorf("scanHint(\"\") = %q", got)
	}
}
