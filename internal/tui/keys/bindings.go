package keys

import "github.com/gdamore/tcell/v2"

// Action binds a key to a handler.
type Action struct {
	Key         tcell.Key
	Rune        rune
	Description string
	Handler     func()
}

// Matches reports whether ev triggers a. Rune actions compare the rune,
// the others only the key.
func (a *Action) Matches(ev *tcell.EventKey) bool {
	if ev.Key() != a.Key {
		return false
	}
	return a.Key != tcell.KeyRune || ev.Rune() == a.Rune
}

// Registry holds the global bindings and those of each view.
type Registry struct {
	Global map[string]*Action
	Views  map[string]map[string]*Action
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		Global: make(map[string]*Action),
		Views:  make(map[string]map[string]*Action),
	}
}

// AddGlobal binds action on every page, replacing name if taken.
func (r *Registry) AddGlobal(name string, action *Action) {
	r.Global[name] = action
}

// AddView binds action on view only.
func (r *Registry) AddView(view, name string, action *Action) {
	if r.Views[view] == nil {
		r.Views[view] = make(map[string]*Action)
	}
	r.Views[view][name] = action
}

// HandleEvent runs the first action bound to ev, looking at the view's
// bindings before the global ones. It reports whether anything ran.
func (r *Registry) HandleEvent(view string, ev *tcell.EventKey) bool {
	for _, scope := range []map[string]*Action{r.Views[view], r.Global} {
		for _, a := range scope {
			if a.Matches(ev) {
				a.Handler()
				return true
			}
		}
	}
	return false
}
