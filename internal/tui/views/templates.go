package views

import (
	"fmt"

	"github.com/matheus3301/bcast/internal/templates"
	"github.com/matheus3301/bcast/internal/tui/ui"
	"github.com/rivo/tview"
)

// TemplateView lists templates next to a QR code of the configured link.
type TemplateView struct {
	*tview.Flex
	list  *tview.List
	qr    *tview.TextView
	theme *ui.Theme
	keys  []string
	link  string
	onUse func(key string)
}

// NewTemplateView creates the template picker.
func NewTemplateView(theme *ui.Theme) *TemplateView {
	list := tview.NewList().
		ShowSecondaryText(true).
		SetHighlightFullLine(true).
		SetSelectedBackgroundColor(theme.TableCursorBg).
		SetSelectedTextColor(theme.TableCursorFg).
		SetMainTextColor(theme.FgColor)
	list.SetBorder(true)
	list.SetBorderColor(theme.BorderColor)
	list.SetTitle(" Templates ")
	list.SetTitleColor(theme.TitleColor)

	qr := tview.NewTextView().
		SetDynamicColors(false).
		SetWrap(false)
	qr.SetBorder(true)
	qr.SetBorderColor(theme.BorderColor)
	qr.SetTitleColor(theme.TitleColor)

	tv := &TemplateView{
		Flex:  tview.NewFlex().AddItem(list, 0, 1, true).AddItem(qr, 0, 1, false),
		list:  list,
		qr:    qr,
		theme: theme,
	}
	list.SetSelectedFunc(func(index int, _, _ string, _ rune) {
		if tv.onUse != nil && index < len(tv.keys) {
			tv.onUse(tv.keys[index])
		}
	})
	return tv
}

// Name implements ui.Component.
func (tv *TemplateView) Name() string { return "templates" }

// Hints implements ui.Component.
func (tv *TemplateView) Hints() []ui.MenuHint {
	return []ui.MenuHint{{Key: "Enter", Description: "use template"}}
}

// List returns the focusable list.
func (tv *TemplateView) List() *tview.List {
	return tv.list
}

// SetOnUse sets the callback for Enter on a template.
func (tv *TemplateView) SetOnUse(fn func(key string)) {
	tv.onUse = fn
}

// Update replaces the list. The QR code is redrawn only when link changes.
func (tv *TemplateView) Update(all []templates.Template, active, link string) {
	current := tv.list.GetCurrentItem()
	tv.list.Clear()
	tv.keys = tv.keys[:0]
	for _, t := range all {
		name := t.Name
		if t.Key == active {
			name = "● " + name
		}
		kind := "built-in"
		if !t.Builtin {
			kind = t.Category
		}
		tv.list.AddItem(tview.Escape(name), fmt.Sprintf("  %s · %s", kind, tview.Escape(preview(t.Body))), 0, nil)
		tv.keys = append(tv.keys, t.Key)
	}
	if n := tv.list.GetItemCount(); n > 0 {
		tv.list.SetCurrentItem(min(current, n-1))
	}

	if link != tv.link {
		tv.link = link
		tv.qr.Clear()
		tv.qr.SetTitle(" " + tview.Escape(link) + " ")
		_, _ = fmt.Fprint(tv.qr, renderQR(link))
	}
}

// Keys returns the template keys in display order.
func (tv *TemplateView) Keys() []string {
	return append([]string(nil), tv.keys...)
}

func preview(body string) string {
	const limit = 60
	r := []rune(sanitizeForTerminal(body))
	for i, c := range r {
		if c == '\n' {
			r[i] = ' '
		}
	}
	if len(r) <= limit {
		return string(r)
	}
	return string(r[:limit-1]) + "…"
}
