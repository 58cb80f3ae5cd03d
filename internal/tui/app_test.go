package tui

import (
	"context"
	"testing"

	"github.com/matheus3301/bcast/internal/broadcast"
	"github.com/matheus3301/bcast/internal/bus"
	"github.com/matheus3301/bcast/internal/config"
	"github.com/matheus3301/bcast/internal/contacts"
	"github.com/matheus3301/bcast/internal/directory"
	"github.com/matheus3301/bcast/internal/templates"
)

type stubDirectory struct {
	records []directory.Record
	sent    [][]string
}

func (d *stubDirectory) FetchContacts(context.Context) ([]directory.Record, error) {
	return d.records, nil
}

func (d *stubDirectory) AddContact(context.Context, string, string) error { return nil }

func (d *stubDirectory) SendBroadcast(_ context.Context, numbers []string, _ string) error {
	d.sent = append(d.sent, numbers)
	return nil
}

func newTestApp(t *testing.T) (*App, *contacts.Store, *templates.Store, *broadcast.Controller) {
	t.Helper()
	dir := &stubDirectory{records: []directory.Record{
		{ID: "1", Name: "Ana", Phone: "+5511900", Active: true, Interview: true, Source: directory.SourceModern},
		{ID: "2", Name: "Bruno", Phone: "+5511901", Source: directory.SourceModern},
		{ID: "3", Name: "Carla", Phone: "+5511902", Active: true, Source: directory.SourceModern},
	}}
	b := bus.New()
	cs := contacts.NewStore(dir, config.Contacts{PageSize: 2, Identity: config.IdentityEphemeral, LegacyStatus: config.LegacyStatusUnknown}, b, nil)
	if err := cs.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	ts := templates.NewStore("https://t.me/x", b, nil)
	ctrl := broadcast.NewController(broadcast.Params{Sender: dir, Recipients: cs, Templates: ts, Bus: b})

	a := NewApp(Params{Contacts: cs, Templates: ts, Broadcast: ctrl, Bus: b})
	t.Cleanup(a.cancel)
	return a, cs, ts, ctrl
}

func TestToggleSelectsRowUnderCursor(t *testing.T) {
	a, cs, _, _ := newTestApp(t)

	a.table.Select(2, 0)
	a.toggle()
	if got := cs.SelectedPhones(); len(got) != 1 || got[0] != "+5511901" {
		t.Fatalf("selected = %v", got)
	}

	a.refresh()
	a.toggle()
	if n := cs.Stats().Selected; n != 0 {
		t.Errorf("second toggle left %d selected", n)
	}
}

func TestApplyFilter(t *testing.T) {
	a, cs, _, _ := newTestApp(t)

	a.applyFilter("status:online")
	if got := cs.Filtered(); len(got) != 1 || got[0].Name != "Ana" {
		t.Fatalf("filtered = %+v", got)
	}

	a.applyFilter("status:bogus")
	if a.flash.Current() == nil {
		t.Error("expected a flash for an unknown status")
	}

	a.applyFilter("")
	if n := len(cs.Filtered()); n != 3 {
		t.Errorf("empty filter kept %d contacts", n)
	}
}

func TestTurnPage(t *testing.T) {
	a, cs, _, _ := newTestApp(t)

	a.turnPage(1)
	if p := cs.CurrentPage(); p.Number != 2 || len(p.Contacts) != 1 {
		t.Fatalf("page = %+v", p)
	}
	a.turnPage(1)
	if p := cs.CurrentPage(); p.Number != 2 {
		t.Errorf("page past the end = %d, want clamp to 2", p.Number)
	}
}

func TestCommands(t *testing.T) {
	a, cs, ts, ctrl := newTestApp(t)

	a.runCommand(ParseCommand("link https://example.com/join"))
	if ts.Link() != "https://example.com/join" {
		t.Errorf("link = %q", ts.Link())
	}

	ctrl.SetMessage("custom body")
	a.runCommand(ParseCommand("save Promo"))
	found := false
	for _, tpl := range ts.All() {
		if tpl.Name == "Promo" && tpl.Body == "custom body" {
			found = true
		}
	}
	if !found {
		t.Error("saved template missing")
	}

	a.runCommand(ParseCommand("page 2"))
	if cs.CurrentPage().Number != 2 {
		t.Errorf("page = %d", cs.CurrentPage().Number)
	}

	a.runCommand(ParseCommand("nope"))
	if m := a.flash.Current(); m == nil || m.Text != "unknown command :nope" {
		t.Errorf("flash = %+v", m)
	}
}

func TestPrepareAndReset(t *testing.T) {
	a, cs, _, ctrl := newTestApp(t)

	a.prepare()
	if ctrl.State() != broadcast.Idle {
		t.Fatal("prepare without message should fail")
	}

	cs.SelectAll(true)
	ctrl.UseTemplate("realNumber")
	a.prepare()
	if ctrl.State() != broadcast.Prepared {
		t.Fatalf("state = %s, want PREPARED", ctrl.State())
	}

	a.cancelOrReset()
	if ctrl.State() != broadcast.Idle {
		t.Errorf("state after x = %s, want IDLE", ctrl.State())
	}
}

func TestComposerEditsReachController(t *testing.T) {
	a, _, _, ctrl := newTestApp(t)

	a.composer.SetText("typed by hand", true)
	if got := ctrl.Composer(); got != "typed by hand" {
		t.Errorf("controller composer = %q", got)
	}

	ctrl.UseTemplate("telegramCTA")
	a.refresh()
	if got := a.composer.GetText(); got != ctrl.Composer() {
		t.Errorf("composer = %q, want controller text", got)
	}
}
