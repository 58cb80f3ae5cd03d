package views

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/bcast/internal/contacts"
	"github.com/matheus3301/bcast/internal/directory"
	"github.com/matheus3301/bcast/internal/tui/ui"
	"github.com/rivo/tview"
)

// ContactTable lists one page of the filtered contacts.
type ContactTable struct {
	*tview.Table
	theme *ui.Theme
	page  contacts.Page
}

// NewContactTable creates an empty contact table.
func NewContactTable(theme *ui.Theme) *ContactTable {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	table.SetTitleColor(theme.TitleColor)

	ct := &ContactTable{Table: table, theme: theme}
	ct.render()
	return ct
}

// Name implements ui.Component.
func (ct *ContactTable) Name() string { return "contacts" }

// Hints implements ui.Component.
func (ct *ContactTable) Hints() []ui.MenuHint { return nil }

// Update shows p, keeping the cursor row where possible.
func (ct *ContactTable) Update(p contacts.Page) {
	row, _ := ct.GetSelection()
	ct.page = p
	ct.render()
	if n := len(p.Contacts); n > 0 {
		ct.Select(max(1, min(row, n)), 0)
	}
}

// Selected returns the contact under the cursor.
func (ct *ContactTable) Selected() (contacts.Contact, bool) {
	row, _ := ct.GetSelection()
	idx := row - 1
	if idx < 0 || idx >= len(ct.page.Contacts) {
		return contacts.Contact{}, false
	}
	return ct.page.Contacts[idx], true
}

func (ct *ContactTable) render() {
	ct.Clear()

	headers := []struct {
		text string
		exp  int
	}{
		{" ", 0},
		{" NAME", 2},
		{" PHONE", 1},
		{" STATUS", 0},
		{" SOURCE", 0},
	}
	for col, h := range headers {
		ct.SetCell(0, col, tview.NewTableCell(h.text).
			SetSelectable(false).
			SetTextColor(ct.theme.TableHeaderFg).
			SetBackgroundColor(ct.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(h.exp))
	}

	for i, c := range ct.page.Contacts {
		row := i + 1
		mark, markColor := "[ ]", ct.theme.FgColor
		if c.Selected {
			mark, markColor = "[x]", ct.theme.SelectedColor
		}
		source := "modern"
		if c.Source == directory.SourceLegacy {
			source = "legacy"
		}
		ct.SetCell(row, 0, tview.NewTableCell(" "+mark).SetTextColor(markColor))
		ct.SetCell(row, 1, tview.NewTableCell(" "+tview.Escape(sanitizeForTerminal(c.Name))).SetExpansion(2).SetTextColor(ct.theme.FgColor))
		ct.SetCell(row, 2, tview.NewTableCell(" "+tview.Escape(c.Phone)).SetExpansion(1).SetTextColor(ct.theme.FgColor))
		ct.SetCell(row, 3, tview.NewTableCell(" "+string(c.Status)).SetTextColor(ct.statusColor(c.Status)))
		ct.SetCell(row, 4, tview.NewTableCell(" "+source).SetTextColor(ct.theme.FgColor))
	}

	if ct.page.Total == 0 {
		ct.SetTitle(" Contacts (0) ")
		return
	}
	ct.SetTitle(fmt.Sprintf(" Contacts (%d) page %d/%d ", ct.page.Total, ct.page.Number, ct.page.Count))
}

func (ct *ContactTable) statusColor(s contacts.Status) tcell.Color {
	switch s {
	case contacts.StatusOnline:
		return ct.theme.OnlineColor
	case contacts.StatusOffline:
		return ct.theme.OfflineColor
	case contacts.StatusPending:
		return ct.theme.PendingColor
	default:
		return ct.theme.UnknownColor
	}
}
