package ui

import (
	"fmt"
	"time"

	"github.com/rivo/tview"
)

// SessionData holds session information for display.
type SessionData struct {
	Session  string
	User     string
	State    string
	Contacts int
	Rooms    int
	Rules    int
	Uptime   time.Duration
}

// SessionInfo displays session metadata in the header.
type SessionInfo struct {
	*tview.TextView
	theme *Theme
}

// NewSessionInfo creates a new session info panel.
func NewSessionInfo(theme *Theme) *SessionInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 1, 1)

	return &SessionInfo{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders the session info.
func (si *SessionInfo) Update(data *SessionData) {
	si.Clear()
	if data == nil {
		return
	}

	fg := ColorName(si.theme.FgColor)
	counter := ColorName(si.theme.CounterColor)
	state := ColorName(si.theme.StateColor(data.State))

	user := data.User
	if user == "" {
		user = "-"
	}

	_, _ = fmt.Fprintf(si,
		"[%s::b]Session:[-:-:-]  [%s]%s[-]\n"+
			"[%s::b]User:[-:-:-]     [%s]%s[-]\n"+
			"[%s::b]State:[-:-:-]    [%s::b]%s[-:-:-]\n"+
			"[%s::b]Contacts:[-:-:-] [%s]%d[-]  [%s::b]Rooms:[-:-:-] [%s]%d[-]\n"+
			"[%s::b]Rules:[-:-:-]    [%s]%d[-]\n"+
			"[%s::b]Uptime:[-:-:-]   [%s]%s[-]",
		fg, counter, tview.Escape(data.Session),
		fg, counter, tview.Escape(user),
		fg, state, data.State,
		fg, counter, data.Contacts, fg, counter, data.Rooms,
		fg, counter, data.Rules,
		fg, counter, FormatDuration(data.Uptime),
	)
}

// FormatDuration renders d as hours and minutes, or minutes alone below an
// hour.
func FormatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
