package ui

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"
)

// menuRows is how many hints fit in one header column.
const menuRows = 5

// Menu displays keyboard shortcut hints in columns.
type Menu struct {
	*tview.TextView
	theme *Theme
}

// NewMenu creates a new menu hint panel.
func NewMenu(theme *Theme) *Menu {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 2, 0)

	return &Menu{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders hints top to bottom, then left to right.
func (m *Menu) Update(hints []MenuHint) {
	m.Clear()

	width := 0
	for _, h := range hints {
		width = max(width, len(h.Key)+len(h.Description)+3)
	}
	keyColor := colorName(m.theme.MenuKeyColor)

	lines := make([]strings.Builder, menuRows)
	for i, h := range hints {
		cell := fmt.Sprintf("<%s> %s", h.Key, h.Description)
		pad := strings.Repeat(" ", width-len(cell)+2)
		fmt.Fprintf(&lines[i%menuRows], "[%s::b]<%s>[-:-:-] %s%s",
			keyColor, tview.Escape(h.Key), h.Description, pad)
	}
	for i := range lines {
		_, _ = fmt.Fprintln(m, lines[i].String())
	}
}
