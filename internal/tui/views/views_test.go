package views

import (
	"strings"
	"testing"

	"github.com/matheus3301/bcast/internal/broadcast"
	"github.com/matheus3301/bcast/internal/contacts"
	"github.com/matheus3301/bcast/internal/directory"
	"github.com/matheus3301/bcast/internal/templates"
	"github.com/matheus3301/bcast/internal/tui/ui"
)

func TestSanitizeForTerminal(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"👍\U0001F3FB", "👍"},
		{"a\u200db", "ab"},
		{"x\ufe0f", "x"},
		{"tab\there", "tab here"},
		{"keep\nnewline", "keep\nnewline"},
	}
	for _, tt := range tests {
		if got := sanitizeForTerminal(tt.in); got != tt.want {
			t.Errorf("sanitizeForTerminal(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderQR(t *testing.T) {
	out := renderQR("https://t.me/example")
	if out == "" || !strings.ContainsAny(out, "█▀▄") {
		t.Fatalf("expected block characters, got %q", out)
	}
	if renderQR("") != "" {
		t.Error("empty content should render nothing")
	}
}

func TestComposerTitleMatchesSnapshotCounts(t *testing.T) {
	c := NewComposer(ui.DefaultTheme())
	if !strings.Contains(c.GetTitle(), "0 chars, 1 lines") {
		t.Errorf("empty title = %q", c.GetTitle())
	}
	c.SetMessage("olá\nmundo")
	if !strings.Contains(c.GetTitle(), "9 chars, 2 lines") {
		t.Errorf("title = %q", c.GetTitle())
	}
}

func TestComposerSetMessageIsQuiet(t *testing.T) {
	c := NewComposer(ui.DefaultTheme())
	var edits []string
	c.SetOnChange(func(text string) { edits = append(edits, text) })

	c.SetMessage("from template")
	if len(edits) != 0 {
		t.Errorf("SetMessage reported edits: %v", edits)
	}
	if c.GetText() != "from template" {
		t.Errorf("GetText() = %q", c.GetText())
	}
	if !strings.Contains(c.GetTitle(), "13 chars") {
		t.Errorf("title = %q", c.GetTitle())
	}
}

func TestContactTableSelected(t *testing.T) {
	ct := NewContactTable(ui.DefaultTheme())
	if _, ok := ct.Selected(); ok {
		t.Fatal("empty table should have no selection")
	}

	page := contacts.Paginate([]contacts.Contact{
		{ID: "1", Name: "Ana", Phone: "+1", Status: contacts.StatusOnline},
		{ID: "2", Name: "Bia", Phone: "+2", Status: contacts.StatusUnknown, Source: directory.SourceLegacy, Selected: true},
	}, 1, 10)
	ct.Update(page)

	ct.Select(2, 0)
	c, ok := ct.Selected()
	if !ok || c.ID != "2" {
		t.Fatalf("Selected() = %+v, %v", c, ok)
	}
	if got := ct.GetCell(2, 0).Text; !strings.Contains(got, "[x]") {
		t.Errorf("selection mark = %q", got)
	}
	if got := ct.GetCell(2, 4).Text; !strings.Contains(got, "legacy") {
		t.Errorf("source = %q", got)
	}
	if !strings.Contains(ct.GetTitle(), "page 1/1") {
		t.Errorf("title = %q", ct.GetTitle())
	}
}

func TestTemplateViewUse(t *testing.T) {
	tv := NewTemplateView(ui.DefaultTheme())
	var used string
	tv.SetOnUse(func(key string) { used = key })

	store := templates.NewStore("https://t.me/x", nil, nil)
	tv.Update(store.All(), "", store.Link())

	keys := tv.Keys()
	if len(keys) != len(store.All()) || keys[0] != "realNumber" {
		t.Fatalf("Keys() = %v", keys)
	}
	tv.List().SetCurrentItem(2)
	tv.onUse(keys[tv.List().GetCurrentItem()])
	if used != "telegramCTA" {
		t.Errorf("used = %q", used)
	}
}

func TestStatusBarShowsCountdown(t *testing.T) {
	sb := NewStatusBar(ui.DefaultTheme())
	sb.Update(broadcast.Snapshot{State: broadcast.Prepared, Recipients: 3, Countdown: 2_000_000_000})
	text := sb.GetText(true)
	for _, want := range []string{"PREPARED", "3 recipients", "confirm in 2s"} {
		if !strings.Contains(text, want) {
			t.Errorf("status %q missing %q", text, want)
		}
	}
}
