package views

import (
	"fmt"
	"strings"

	"github.com/matheus3301/botpanel/internal/tui/ui"
	"github.com/rivo/tview"
)

// HelpView displays key binding reference.
type HelpView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewHelpView creates a new help view.
func NewHelpView(theme *ui.Theme) *HelpView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Help ")
	tv.SetTitleColor(theme.TitleColor)

	hv := &HelpView{
		TextView: tv,
		theme:    theme,
	}
	hv.render()
	return hv
}

// Name implements Component.
func (hv *HelpView) Name() string { return "Help" }

// Init implements Component.
func (hv *HelpView) Init() {}

// Start implements Component.
func (hv *HelpView) Start() {}

// Stop implements Component.
func (hv *HelpView) Stop() {}

// Hints implements Component.
func (hv *HelpView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Esc", Description: "Back"},
	}
}

type helpSection struct {
	title string
	keys  [][2]string
}

var helpSections = []helpSection{
	{"Global", [][2]string{
		{"1-6", "Dashboard, messages, rules, contacts, rooms, knowledge"},
		{":", "Command mode"},
		{"/", "Filter the current table"},
		{"s / x", "Start / stop the bot"},
		{"l", "Show the login code"},
		{"Ctrl-R", "Reload everything from the daemon"},
		{"?", "This help"},
		{"q", "Quit"},
	}},
	{"Rules", [][2]string{
		{"t", "Enable or disable the selected rule"},
		{"Ctrl-D", "Delete the selected rule"},
	}},
	{"Contacts / Rooms", [][2]string{
		{"R", "Re-read the directory from the account"},
	}},
	{"Login", [][2]string{
		{"r", "Request a new login code"},
	}},
	{"Commands", [][2]string{
		{":add kw1,kw2 = reply", "Add a rule matching any keyword"},
		{":exact kw = reply", "Add a rule matching the whole message"},
		{":rm <id>", "Delete a rule"},
		{":toggle <id>", "Enable or disable a rule"},
		{":learn question = answer", "Add a knowledge answer"},
		{":start / :stop / :qr", "Bot lifecycle"},
		{":reload", "Reload everything from the daemon"},
		{"Up / Down", "Recall earlier commands"},
		{":quit / :q", "Quit"},
	}},
}

func (hv *HelpView) render() {
	kc := ui.ColorName(hv.theme.MenuKeyColor)

	var sb strings.Builder
	for _, s := range helpSections {
		fmt.Fprintf(&sb, "\n  [::b]%s[-:-:-]\n\n", s.title)
		for _, k := range s.keys {
			fmt.Fprintf(&sb, "  [%s]%-26s[-:-:-] %s\n", kc, tview.Escape(k[0]), k[1])
		}
	}
	_, _ = fmt.Fprint(hv, sb.String())
}
