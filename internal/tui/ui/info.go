package ui

import (
	"fmt"

	"github.com/rivo/tview"
)

// InfoData is what the header info panel shows.
type InfoData struct {
	Total    int
	Filtered int
	Selected int
	Online   int
	Page     int
	Pages    int
	Template string
	Link     string
}

// Info displays contact counters in the header.
type Info struct {
	*tview.TextView
	theme *Theme
}

// NewInfo creates a new info panel.
func NewInfo(theme *Theme) *Info {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 1, 1)

	return &Info{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders d.
func (i *Info) Update(d InfoData) {
	i.Clear()

	fg := colorName(i.theme.FgColor)
	counter := colorName(i.theme.CounterColor)
	selected := colorName(i.theme.SelectedColor)

	template := d.Template
	if template == "" {
		template = "-"
	}

	_, _ = fmt.Fprintf(i,
		"[%s::b]Contacts:[-:-:-] [%s]%d[-] ([%s]%d[-] shown)\n"+
			"[%s::b]Online:[-:-:-]   [%s]%d[-]\n"+
			"[%s::b]Selected:[-:-:-] [%s::b]%d[-:-:-]\n"+
			"[%s::b]Page:[-:-:-]     [%s]%d/%d[-]\n"+
			"[%s::b]Template:[-:-:-] [%s]%s[-]\n"+
			"[%s::b]Link:[-:-:-]     [%s]%s[-]",
		fg, counter, d.Total, counter, d.Filtered,
		fg, counter, d.Online,
		fg, selected, d.Selected,
		fg, counter, d.Page, max(d.Pages, 1),
		fg, counter, tview.Escape(template),
		fg, counter, tview.Escape(d.Link),
	)
}
