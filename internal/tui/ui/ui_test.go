package ui

import (
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0m"},
		{59 * time.Second, "0m"},
		{45 * time.Minute, "45m"},
		{2*time.Hour + 5*time.Minute, "2h5m"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStateColor(t *testing.T) {
	th := DefaultTheme()
	tests := []struct {
		state string
		want  string
	}{
		{"READY", "ok"},
		{"SCANNING", "busy"},
		{"LOGGED_IN", "busy"},
		{"IDLE", "idle"},
		{"STOPPED", "idle"},
	}
	colors := map[string]any{"ok": th.StateOkColor, "busy": th.StateBusyColor, "idle": th.StateIdleColor}
	for _, tt := range tests {
		if got := th.StateColor(tt.state); got != colors[tt.want] {
			t.Errorf("StateColor(%s) = %v, want %s", tt.state, got, tt.want)
		}
	}
}

func TestPagesStack(t *testing.T) {
	p := NewPages()
	for _, name := range []string{"dashboard", "rules", "help"} {
		p.AddPage(name, tview.NewBox(), true, false)
	}
	var changes [][]string
	p.SetOnChange(func(stack []string) { changes = append(changes, stack) })

	p.Reset("dashboard")
	p.Push("help")
	if p.Current() != "help" || p.Depth() != 2 || !p.Contains("dashboard") {
		t.Fatalf("stack = %v", p.Stack())
	}
	if got := p.Pop(); got != "help" {
		t.Errorf("Pop = %q", got)
	}
	p.Reset("rules")
	if !slices.Equal(p.Stack(), []string{"rules"}) {
		t.Errorf("stack = %v", p.Stack())
	}
	if len(changes) != 4 {
		t.Errorf("changes = %d, want 4", len(changes))
	}

	p.Pop()
	if p.Pop() != "" {
		t.Error("Pop on empty stack should return empty")
	}
}

func TestMenuLayout(t *testing.T) {
	m := NewMenu(DefaultTheme())
	var hints []MenuHint
	for i := range 8 {
		hints = append(hints, MenuHint{Key: string(rune('a' + i)), Description: "act"})
	}
	lines := strings.Split(m.layout(hints), "\n")
	if len(lines) != menuRows {
		t.Fatalf("lines = %d, want %d", len(lines), menuRows)
	}
	if !strings.Contains(lines[0], "<a>") || !strings.Contains(lines[0], "<g>") {
		t.Errorf("first line = %q", lines[0])
	}
	if strings.Contains(lines[2], "<g>") {
		t.Errorf("third line = %q", lines[2])
	}

	if got := m.layout(hints[:2]); strings.Count(got, "\n") != 1 {
		t.Errorf("two hints should take two lines: %q", got)
	}
}

func TestFlashModel(t *testing.T) {
	f := NewFlashModel()
	if f.Get() != "" || f.GetMessage() != nil {
		t.Fatal("new model should be empty")
	}

	f.Err(errors.New("boom"))
	msg := f.GetMessage()
	if msg == nil || msg.Text != "boom" || msg.Level != FlashErr {
		t.Fatalf("message = %+v", msg)
	}
	select {
	case got := <-f.Watch():
		if got.Text != "boom" {
			t.Errorf("watched = %q", got.Text)
		}
	default:
		t.Error("expected watched message")
	}

	f.Set("gone", -time.Second)
	if f.Get() != "" {
		t.Error("expired message should not show")
	}

	f.Info("hello")
	f.Clear()
	if f.Get() != "" {
		t.Error("Clear should drop the message")
	}
}

func TestPromptHistory(t *testing.T) {
	p := NewPrompt(DefaultTheme())
	var got []string
	p.SetOnSubmit(func(mode PromptMode, text string) { got = append(got, text) })

	p.Activate(PromptCommand)
	for _, cmd := range []string{"start", "rules", "rules", "stop"} {
		p.SetText(cmd)
		p.done(tcell.KeyEnter)
	}
	if len(got) != 4 {
		t.Fatalf("submitted = %v", got)
	}
	if !slices.Equal(p.history, []string{"start", "rules", "stop"}) {
		t.Fatalf("history = %v", p.history)
	}

	steps := []struct {
		delta int
		want  string
	}{
		{-1, "stop"},
		{-1, "rules"},
		{-1, "start"},
		{-1, "start"},
		{1, "rules"},
		{1, "stop"},
		{1, ""},
		{1, ""},
	}
	for i, s := range steps {
		if r := p.recall(s.delta); r != s.want {
			t.Errorf("step %d: recall(%d) = %q, want %q", i, s.delta, r, s.want)
		}
	}

	p.Activate(PromptFilter)
	p.SetText("ann")
	p.done(tcell.KeyEnter)
	if len(p.history) != 3 {
		t.Error("filters should not enter the history")
	}
}
