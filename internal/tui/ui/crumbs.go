package ui

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"
)

// Crumbs shows the page stack followed by an optional context note,
// such as the active contact filter.
type Crumbs struct {
	*tview.TextView
	theme *Theme
	stack []string
	note  string
}

// NewCrumbs creates a new breadcrumb bar.
func NewCrumbs(theme *Theme) *Crumbs {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)

	return &Crumbs{
		TextView: tv,
		theme:    theme,
	}
}

// SetStack replaces the page trail.
func (c *Crumbs) SetStack(stack []string) {
	c.stack = stack
	c.render()
}

// SetNote replaces the text after the trail. Empty hides it.
func (c *Crumbs) SetNote(note string) {
	c.note = note
	c.render()
}

func (c *Crumbs) render() {
	c.Clear()

	parts := make([]string, 0, len(c.stack))
	for i, name := range c.stack {
		fg, bg, attr := c.theme.CrumbInactiveFg, c.theme.CrumbInactiveBg, ""
		if i == len(c.stack)-1 {
			fg, bg, attr = c.theme.CrumbActiveFg, c.theme.CrumbActiveBg, "b"
		}
		parts = append(parts, fmt.Sprintf("[%s:%s:%s] %s [-:-:-]", colorName(fg), colorName(bg), attr, name))
	}
	line := strings.Join(parts, " ")
	if c.note != "" {
		line += fmt.Sprintf("  [%s]%s[-]", colorName(c.theme.CounterColor), tview.Escape(c.note))
	}
	_, _ = fmt.Fprint(c, line)
}
