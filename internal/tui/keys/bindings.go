package keys

import (
	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/bcast/internal/tui/ui"
)

// Action represents a keybinding action.
type Action struct {
	Key         tcell.Key
	Rune        rune
	Description string
	Handler     func()
	Hidden      bool
}

// Matches returns true if the event matches this action.
func (a *Action) Matches(ev *tcell.EventKey) bool {
	if a.Key != tcell.KeyRune {
		return ev.Key() == a.Key
	}
	return ev.Key() == tcell.KeyRune && ev.Rune() == a.Rune
}

// Label is the key as shown in the menu.
func (a *Action) Label() string {
	if a.Key != tcell.KeyRune {
		if name, ok := tcell.KeyNames[a.Key]; ok {
			return name
		}
		return "?"
	}
	if a.Rune == ' ' {
		return "Space"
	}
	return string(a.Rune)
}

// Registry holds keybindings in registration order, globally and per view.
type Registry struct {
	global []*Action
	views  map[string][]*Action
}

// NewRegistry creates a new keybinding registry.
func NewRegistry() *Registry {
	return &Registry{views: make(map[string][]*Action)}
}

// Rune builds an action bound to a printable key.
func Rune(r rune, description string, handler func()) *Action {
	return &Action{Key: tcell.KeyRune, Rune: r, Description: description, Handler: handler}
}

// AddGlobal registers bindings active on every view.
func (r *Registry) AddGlobal(actions ...*Action) {
	r.global = append(r.global, actions...)
}

// AddView registers bindings active only on view.
func (r *Registry) AddView(view string, actions ...*Action) {
	r.views[view] = append(r.views[view], actions...)
}

// Hints returns the visible bindings for view, view bindings first.
func (r *Registry) Hints(view string) []ui.MenuHint {
	var hints []ui.MenuHint
	for _, set := range [][]*Action{r.views[view], r.global} {
		for _, a := range set {
			if !a.Hidden {
				hints = append(hints, ui.MenuHint{Key: a.Label(), Description: a.Description})
			}
		}
	}
	return hints
}

// HandleEvent dispatches ev to the first matching action, view bindings
// before global ones. Returns true if a handler ran.
func (r *Registry) HandleEvent(view string, ev *tcell.EventKey) bool {
	for _, set := range [][]*Action{r.views[view], r.global} {
		for _, a := range set {
			if a.Matches(ev) {
				a.Handler()
				return true
			}
		}
	}
	return false
}
