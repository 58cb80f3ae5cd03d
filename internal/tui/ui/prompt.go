package ui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// PromptMode selects how submitted prompt text is interpreted.
type PromptMode int

const (
	PromptCommand PromptMode = iota
	PromptFilter
)

// Prompt is the command/filter input bar shown above the pages.
type Prompt struct {
	*tview.InputField
	theme    *Theme
	mode     PromptMode
	active   bool
	onSubmit func(mode PromptMode, text string)
	onClose  func()
}

// NewPrompt creates a new prompt input bar.
func NewPrompt(theme *Theme) *Prompt {
	input := tview.NewInputField()
	input.SetBorder(true)
	input.SetBorderColor(theme.PromptBorderColor)
	input.SetBackgroundColor(theme.BgColor)
	input.SetFieldBackgroundColor(theme.BgColor)
	input.SetFieldTextColor(theme.FgColor)
	input.SetLabelColor(theme.MenuKeyColor)

	p := &Prompt{
		InputField: input,
		theme:      theme,
	}

	input.SetDoneFunc(func(key tcell.Key) {
		switch key {
		case tcell.KeyEnter:
			text := p.GetText()
			p.close()
			// An empty filter clears the current one.
			if p.onSubmit != nil && (text != "" || p.mode == PromptFilter) {
				p.onSubmit(p.mode, text)
			}
		case tcell.KeyEscape:
			p.close()
		}
	})

	return p
}

// SetOnSubmit sets the callback when the prompt is submitted.
func (p *Prompt) SetOnSubmit(fn func(mode PromptMode, text string)) {
	p.onSubmit = fn
}

// SetOnClose sets the callback run whenever the prompt is dismissed.
func (p *Prompt) SetOnClose(fn func()) {
	p.onClose = fn
}

// Activate opens the prompt in mode with initial text.
func (p *Prompt) Activate(mode PromptMode, initial string) {
	p.mode = mode
	p.active = true
	p.SetText(initial)
	switch mode {
	case PromptCommand:
		p.SetLabel(":")
		p.SetTitle(" Command ")
	case PromptFilter:
		p.SetLabel("/")
		p.SetTitle(" Filter (status:online|offline|pending|unknown) ")
	}
}

// Active reports whether the prompt is open.
func (p *Prompt) Active() bool {
	return p.active
}

func (p *Prompt) close() {
	p.active = false
	p.SetText("")
	if p.onClose != nil {
		p.onClose()
	}
}
