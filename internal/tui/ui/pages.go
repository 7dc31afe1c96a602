package ui

import (
	"slices"

	"github.com/rivo/tview"
)

// Pages keeps a navigation stack on top of tview.Pages. Only the top of the
// stack is visible; every change is reported to the OnChange callback.
type Pages struct {
	*tview.Pages
	stack    []string
	onChange func(stack []string)
}

// NewPages creates an empty page stack.
func NewPages() *Pages {
	return &Pages{Pages: tview.NewPages()}
}

// SetOnChange registers fn to receive a copy of the stack after each change.
func (p *Pages) SetOnChange(fn func(stack []string)) {
	p.onChange = fn
}

// Push shows name above the current page.
func (p *Pages) Push(name string) {
	p.swap(append(p.stack, name))
}

// Pop drops the top page and returns it. An empty stack yields "".
func (p *Pages) Pop() string {
	top := p.Current()
	if top != "" {
		p.swap(p.stack[:len(p.stack)-1])
	}
	return top
}

// Reset replaces the whole stack with name.
func (p *Pages) Reset(name string) {
	p.swap([]string{name})
}

// swap hides the old top, installs next and brings its top forward.
func (p *Pages) swap(next []string) {
	if cur := p.Current(); cur != "" {
		p.HidePage(cur)
	}
	p.stack = next
	if cur := p.Current(); cur != "" {
		p.ShowPage(cur)
		p.SendToFront(cur)
	}
	if p.onChange != nil {
		p.onChange(p.Stack())
	}
}

// Current returns the visible page name, or "" when the stack is empty.
func (p *Pages) Current() string {
	if n := len(p.stack); n > 0 {
		return p.stack[n-1]
	}
	return ""
}

// Stack returns a copy of the stack, bottom first.
func (p *Pages) Stack() []string {
	return slices.Clone(p.stack)
}

// Contains reports whether name is on the stack.
func (p *Pages) Contains(name string) bool {
	return slices.Contains(p.stack, name)
}

// Depth returns the number of stacked pages.
func (p *Pages) Depth() int {
	return len(p.stack)
}
