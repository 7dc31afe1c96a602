package views

import (
	"fmt"

	"github.com/matheus3301/botpanel/internal/bot"
	"github.com/matheus3301/botpanel/internal/protocol"
	"github.com/matheus3301/botpanel/internal/qr"
	"github.com/matheus3301/botpanel/internal/tui/ui"
	"github.com/rivo/tview"
)

// AuthView displays the login QR code.
type AuthView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewAuthView creates a new auth view.
func NewAuthView(theme *ui.Theme) *AuthView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Login ")
	tv.SetTitleColor(theme.TitleColor)

	return &AuthView{
		TextView: tv,
		theme:    theme,
	}
}

// Name implements Component.
func (av *AuthView) Name() string { return "Login" }

// Init implements Component.
func (av *AuthView) Init() {}

// Start implements Component.
func (av *AuthView) Start() {}

// Stop implements Component.
func (av *AuthView) Stop() {}

// Hints implements Component.
func (av *AuthView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "r", Description: "New code"},
		{Key: "Esc", Description: "Back"},
	}
}

// ShowQR renders the login code with its scan status.
func (av *AuthView) ShowQR(code bot.QRCode) {
	if code.Payload == "" {
		av.ShowMessage("No login code yet. Press s to start the bot.")
		return
	}
	art, err := qr.Terminal(code.Payload, "")
	if err != nil {
		av.ShowMessage("QR generation failed: " + err.Error())
		return
	}

	av.Clear()
	_, _ = fmt.Fprintf(av, "\nScan this code with WhatsApp on your phone:\n\n%s\n[::d]%s[-:-:-]", art, scanHint(code.Status))
}

// ShowMessage displays a status message.
func (av *AuthView) ShowMessage(msg string) {
	av.Clear()
	_, _ = fmt.Fprintf(av, "\n\n%s", tview.Escape(msg))
}

func scanHint(s protocol.ScanStatus) string {
	switch s {
	case protocol.ScanScanned:
		return "Scanned, confirm on your phone..."
	case protocol.ScanConfirmed:
		return "Confirmed, logging in..."
	case protocol.ScanTimeout:
		return "Code expired, press r for a new one."
	default:
		return "Waiting for scan..."
	}
}
