package views

import (
	"fmt"

	"github.com/matheus3301/bcast/internal/broadcast"
	"github.com/matheus3301/bcast/internal/tui/ui"
	"github.com/rivo/tview"
)

// Composer is the multi-line broadcast message editor.
type Composer struct {
	*tview.TextArea
	theme    *ui.Theme
	onChange func(text string)
	quiet    bool
}

// NewComposer creates a new message composer.
func NewComposer(theme *ui.Theme) *Composer {
	ta := tview.NewTextArea().
		SetPlaceholder("Type a message or pick a template (t)")
	ta.SetBorder(true)
	ta.SetBorderColor(theme.BorderColor)
	ta.SetTitleColor(theme.TitleColor)

	c := &Composer{TextArea: ta, theme: theme}
	ta.SetChangedFunc(func() {
		c.updateTitle()
		if !c.quiet && c.onChange != nil {
			c.onChange(c.GetText())
		}
	})
	c.updateTitle()
	return c
}

// SetOnChange sets the callback for operator edits. It is not called
// for text set through SetMessage.
func (c *Composer) SetOnChange(fn func(text string)) {
	c.onChange = fn
}

// SetMessage replaces the text without reporting it as an edit.
func (c *Composer) SetMessage(text string) {
	if text == c.GetText() {
		return
	}
	c.quiet = true
	c.SetText(text, true)
	c.quiet = false
	c.updateTitle()
}

func (c *Composer) updateTitle() {
	chars, lines := broadcast.Counts(c.GetText())
	c.SetTitle(fmt.Sprintf(" Message (%d chars, %d lines) ", chars, lines))
}
