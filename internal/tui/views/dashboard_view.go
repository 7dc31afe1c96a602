package views

import (
	"fmt"
	"strings"

	"github.com/matheus3301/botpanel/internal/bot"
	"github.com/matheus3301/botpanel/internal/msglog"
	"github.com/matheus3301/botpanel/internal/protocol"
	"github.com/matheus3301/botpanel/internal/stats"
	"github.com/matheus3301/botpanel/internal/tui/ui"
	"github.com/rivo/tview"
)

// recentMessages is how many log entries the dashboard previews.
const recentMessages = 8

// DashboardData is everything the dashboard renders.
type DashboardData struct {
	Status   bot.Status
	User     protocol.User
	Stats    stats.Stats
	Logout   *bot.Logout
	Messages []msglog.Entry
}

// DashboardView summarizes the bot at a glance.
type DashboardView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewDashboardView creates the dashboard.
func NewDashboardView(theme *ui.Theme) *DashboardView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Dashboard ")
	tv.SetTitleColor(theme.TitleColor)

	return &DashboardView{TextView: tv, theme: theme}
}

// Name implements Component.
func (dv *DashboardView) Name() string { return "Dashboard" }

// Init implements Component.
func (dv *DashboardView) Init() {}

// Start implements Component.
func (dv *DashboardView) Start() {}

// Stop implements Component.
func (dv *DashboardView) Stop() {}

// Hints implements Component.
func (dv *DashboardView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "s", Description: "Start bot"},
		{Key: "x", Description: "Stop bot"},
		{Key: "Ctrl-R", Description: "Reload"},
	}
}

// Update re-renders the dashboard.
func (dv *DashboardView) Update(d DashboardData) {
	dv.Clear()
	_, _ = fmt.Fprint(dv, dv.text(d))
}

func (dv *DashboardView) text(d DashboardData) string {
	label := ui.ColorName(dv.theme.FgColor)
	value := ui.ColorName(dv.theme.CounterColor)
	state := ui.ColorName(dv.theme.StateColor(string(d.Status.State)))

	var sb strings.Builder
	fmt.Fprintf(&sb, "\n [%s::b]State:[-:-:-]      [%s::b]%s[-:-:-]\n", label, state, d.Status.State)
	if d.User.ID != "" {
		fmt.Fprintf(&sb, " [%s::b]Account:[-:-:-]    [%s]%s (%s)[-]\n", label, value, tview.Escape(d.User.Name), d.User.ID)
	} else {
		fmt.Fprintf(&sb, " [%s::b]Account:[-:-:-]    [%s]not logged in[-]\n", label, value)
	}
	if d.Logout != nil && d.User.ID == "" {
		fmt.Fprintf(&sb, " [%s::b]Last logout:[-:-:-] [%s]%s[-]\n", label, value, tview.Escape(d.Logout.Reason))
	}

	sb.WriteString("\n")
	counters := []struct {
		name string
		n    int
	}{
		{"Contacts", d.Stats.ContactCount},
		{"Friends", d.Stats.FriendCount},
		{"Rooms", d.Stats.GroupCount},
		{"Auto replies", d.Stats.AutoReplyCount},
	}
	for _, c := range counters {
		fmt.Fprintf(&sb, " [%s::b]%-12s[-:-:-] [%s]%d[-]\n", label, c.name+":", value, c.n)
	}

	fmt.Fprintf(&sb, "\n [%s::b]Recent messages[-:-:-]\n", label)
	if len(d.Messages) == 0 {
		sb.WriteString("  [::d]none yet[-:-:-]\n")
	}
	for _, e := range d.Messages[:min(len(d.Messages), recentMessages)] {
		where := e.Sender
		if e.Room != nil {
			where = *e.Room + "/" + e.Sender
		}
		fmt.Fprintf(&sb, "  [::d]%s[-:-:-] [%s]%s[-] %s\n",
			formatTimestamp(e.Timestamp), value, tview.Escape(sanitizeForTerminal(where)),
			tview.Escape(sanitizeForTerminal(preview(e))))
	}
	return sb.String()
}

func preview(e msglog.Entry) string {
	if e.Type != msglog.KindText && e.Content == "" {
		return "<" + string(e.Type) + ">"
	}
	line, _, _ := strings.Cut(e.Content, "\n")
	return line
}
