package views

import (
	"fmt"
	"strings"

	"github.com/matheus3301/bcast/internal/tui/ui"
	"github.com/rivo/tview"
)

// HelpView displays key binding reference.
type HelpView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewHelpView creates a new help view.
func NewHelpView(theme *ui.Theme) *HelpView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Help ")
	tv.SetTitleColor(theme.TitleColor)

	hv := &HelpView{
		TextView: tv,
		theme:    theme,
	}
	hv.render()
	return hv
}

// Name implements ui.Component.
func (hv *HelpView) Name() string { return "help" }

// Hints implements ui.Component.
func (hv *HelpView) Hints() []ui.MenuHint {
	return []ui.MenuHint{{Key: "Esc", Description: "back"}}
}

var helpSections = []struct {
	title string
	rows  [][2]string
}{
	{"Contacts", [][2]string{
		{"Space", "toggle selection"},
		{"a / A", "select all / clear selection"},
		{"o", "select online only"},
		{"/", "filter by name or phone, status:<s> filters by status"},
		{"n / N", "next / previous page"},
		{"r", "reload from the directory"},
		{"Tab", "edit the message"},
	}},
	{"Broadcast", [][2]string{
		{"t", "pick a template"},
		{"p", "prepare"},
		{"s", "send the prepared broadcast"},
		{"x", "cancel a send, or reset a prepared broadcast"},
		{"c", "clear the message"},
	}},
	{"Commands (:)", [][2]string{
		{":add <name>, <phone>", "add a contact"},
		{":link <url>", "change the template link"},
		{":save <name>", "save the message as a template"},
		{":page <n>", "jump to page n"},
		{":help / :quit", ""},
	}},
}

func (hv *HelpView) render() {
	kc := ui.Tag(hv.theme.MenuKeyColor)

	var b strings.Builder
	for _, s := range helpSections {
		fmt.Fprintf(&b, "\n  [::b]%s[-:-:-]\n\n", s.title)
		for _, r := range s.rows {
			fmt.Fprintf(&b, "  [%s]%-24s[-] %s\n", kc, tview.Escape(r[0]), r[1])
		}
	}
	_, _ = fmt.Fprint(hv, b.String())
}
