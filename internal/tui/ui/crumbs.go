package ui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// Crumbs renders the page stack as a breadcrumb trail.
type Crumbs struct {
	*tview.TextView
	active   string
	inactive string
}

// NewCrumbs creates a breadcrumb bar.
func NewCrumbs(theme *Theme) *Crumbs {
	tv := tview.NewTextView().SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)

	return &Crumbs{
		TextView: tv,
		active:   fmt.Sprintf("[%s:%s:b]", ColorName(theme.CrumbActiveFg), ColorName(theme.CrumbActiveBg)),
		inactive: fmt.Sprintf("[%s:%s:]", ColorName(theme.CrumbInactiveFg), ColorName(theme.CrumbInactiveBg)),
	}
}

// Update redraws the trail for stack; the last entry is highlighted.
func (c *Crumbs) Update(stack []string) {
	c.Clear()

	var b strings.Builder
	for i, name := range stack {
		if i > 0 {
			b.WriteString(" > ")
		}
		tag := c.inactive
		if i == len(stack)-1 {
			tag = c.active
		}
		fmt.Fprintf(&b, "%s %s [-:-:-]", tag, name)
	}
	_, _ = fmt.Fprint(c, b.String())
}

// ColorName returns a color name tview's style tags understand.
func ColorName(c tcell.Color) string {
	for name, val := range tcell.ColorNames {
		if val == c {
			return name
		}
	}
	return fmt.Sprintf("#%06x", c.Hex())
}
