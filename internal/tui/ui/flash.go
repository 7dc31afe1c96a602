package ui

import (
	"fmt"
	"sync"
	"time"

	"github.com/rivo/tview"
)

// FlashLevel picks the color and lifetime of a message.
type FlashLevel int

const (
	FlashInfo FlashLevel = iota
	FlashWarn
	FlashErr
)

// flashTTL is how long each level stays on screen.
var flashTTL = map[FlashLevel]time.Duration{
	FlashInfo: 5 * time.Second,
	FlashWarn: 8 * time.Second,
	FlashErr:  10 * time.Second,
}

// FlashMessage is one notification.
type FlashMessage struct {
	Text    string
	Level   FlashLevel
	Expires time.Time
}

func (m FlashMessage) live(now time.Time) bool {
	return m.Text != "" && now.Before(m.Expires)
}

// FlashModel holds the latest notification. Writers never block; the
// watch channel drops messages nobody is reading.
type FlashModel struct {
	mu      sync.RWMutex
	current FlashMessage
	watchCh chan FlashMessage
}

// NewFlashModel returns an empty model.
func NewFlashModel() *FlashModel {
	return &FlashModel{watchCh: make(chan FlashMessage, 8)}
}

// Info posts a routine notice.
func (f *FlashModel) Info(msg string) { f.post(msg, FlashInfo, flashTTL[FlashInfo]) }

// Warn posts a warning.
func (f *FlashModel) Warn(msg string) { f.post(msg, FlashWarn, flashTTL[FlashWarn]) }

// Err posts err as an error.
func (f *FlashModel) Err(err error) { f.post(err.Error(), FlashErr, flashTTL[FlashErr]) }

// Set posts an info-level message that lasts d.
func (f *FlashModel) Set(msg string, d time.Duration) { f.post(msg, FlashInfo, d) }

func (f *FlashModel) post(text string, level FlashLevel, d time.Duration) {
	m := FlashMessage{Text: text, Level: level, Expires: time.Now().Add(d)}
	f.mu.Lock()
	f.current = m
	f.mu.Unlock()
	select {
	case f.watchCh <- m:
	default:
	}
}

// Clear drops the current message.
func (f *FlashModel) Clear() {
	f.mu.Lock()
	f.current = FlashMessage{}
	f.mu.Unlock()
}

// Get returns the current flash text, or empty if expired.
func (f *FlashModel) Get() string {
	if m := f.GetMessage(); m != nil {
		return m.Text
	}
	return ""
}

// GetMessage returns a copy of the live message, or nil.
func (f *FlashModel) GetMessage() *FlashMessage {
	f.mu.RLock()
	m := f.current
	f.mu.RUnlock()
	if !m.live(time.Now()) {
		return nil
	}
	return &m
}

// Watch returns a channel that receives flash messages as they are posted.
func (f *FlashModel) Watch() <-chan FlashMessage {
	return f.watchCh
}

// FlashBar is the one-line notification area.
type FlashBar struct {
	*tview.TextView
	colors map[FlashLevel]string
}

// NewFlashBar creates the bar below the page crumbs.
func NewFlashBar(theme *Theme) *FlashBar {
	tv := tview.NewTextView().SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)

	return &FlashBar{
		TextView: tv,
		colors: map[FlashLevel]string{
			FlashInfo: ColorName(theme.FlashInfoColor),
			FlashWarn: ColorName(theme.FlashWarnColor),
			FlashErr:  ColorName(theme.FlashErrColor),
		},
	}
}

// Update renders msg, or blanks the bar when msg is nil.
func (fb *FlashBar) Update(msg *FlashMessage) {
	fb.Clear()
	if msg == nil {
		return
	}
	_, _ = fmt.Fprintf(fb, " [%s]%s[-]", fb.colors[msg.Level], tview.Escape(msg.Text))
}
