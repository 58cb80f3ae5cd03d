package templates

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/matheus3301/bcast/internal/bus"
	"github.com/matheus3301/bcast/internal/validate"
)

const testLink = "https://t.me/tradetabofficial"

func TestBuiltinsOrderAndLink(t *testing.T) {
	s := NewStore(testLink, nil, nil)
	got := s.Builtins()

	wantKeys := []string{"realNumber", "privacyRequest", "telegramCTA", "fullStrategy"}
	if len(got) != len(wantKeys) {
		t.Fatalf("len(Builtins()) = %d, want %d", len(got), len(wantKeys))
	}
	for i, key := range wantKeys {
		if got[i].Key != key {
			t.Errorf("Builtins()[%d].Key = %q, want %q", i, got[i].Key, key)
		}
		if !got[i].Builtin {
			t.Errorf("%s not marked builtin", key)
		}
		if strings.Contains(got[i].Body, "{{link}}") {
			t.Errorf("%s body still has placeholder", key)
		}
	}
	if !strings.HasSuffix(got[2].Body, testLink) {
		t.Errorf("telegramCTA body = %q, want link suffix", got[2].Body)
	}
	if got[3].Name != "Full Strategy" {
		t.Errorf("Name = %q, want Full Strategy", got[3].Name)
	}
}

func TestSetLinkRerendersBuiltins(t *testing.T) {
	s := NewStore(testLink, nil, nil)
	s.Select("fullStrategy")

	s.SetLink("https://t.me/other")

	if s.Link() != "https://t.me/other" {
		t.Errorf("Link() = %q", s.Link())
	}
	body := s.ActiveBody()
	if !strings.HasSuffix(body, "https://t.me/other") || strings.Contains(body, testLink) {
		t.Errorf("ActiveBody() = %q, want new link only", body)
	}
	if tpl, _ := s.Get("realNumber"); strings.Contains(tpl.Body, "t.me") {
		t.Errorf("realNumber should not reference the link: %q", tpl.Body)
	}
}

func TestSelectUnknownIsNoop(t *testing.T) {
	s := NewStore(testLink, nil, nil)
	if !s.Select("privacyRequest") {
		t.Fatal("Select(privacyRequest) = false")
	}
	if s.Select("nope") {
		t.Error("Select(nope) = true, want false")
	}
	if s.ActiveKey() != "privacyRequest" {
		t.Errorf("ActiveKey() = %q, want privacyRequest", s.ActiveKey())
	}
}

func TestActiveBodyEmptyWithoutSelection(t *testing.T) {
	s := NewStore(testLink, nil, nil)
	if got := s.ActiveBody(); got != "" {
		t.Errorf("ActiveBody() = %q, want empty", got)
	}
	s.Select("realNumber")
	s.Clear()
	if got := s.ActiveBody(); got != "" {
		t.Errorf("ActiveBody() after Clear = %q, want empty", got)
	}
}

func TestCreate(t *testing.T) {
	s := NewStore(testLink, nil, nil)
	s.now = func() time.Time { return time.UnixMilli(1700000000000) }

	key, err := s.Create(" Welcome ", "", " Hello {{link}} ")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if key != "custom_1700000000000" {
		t.Errorf("key = %q", key)
	}

	tpl, ok := s.Get(key)
	if !ok {
		t.Fatalf("Get(%q) not found", key)
	}
	if tpl.Name != "Welcome" || tpl.Category != DefaultCategory || tpl.Builtin {
		t.Errorf("template = %+v", tpl)
	}
	if tpl.Body != "Hello "+testLink {
		t.Errorf("Body = %q", tpl.Body)
	}
	if s.Name(key) != "Welcome" {
		t.Errorf("Name() = %q", s.Name(key))
	}
	if s.Name("missing") != "Template" {
		t.Errorf("Name(missing) = %q, want Template", s.Name("missing"))
	}
}

func TestCreateKeysUnique(t *testing.T) {
	s := NewStore(testLink, nil, nil)
	s.now = func() time.Time { return time.UnixMilli(42) }

	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		key, err := s.Create("t", "promo", "body")
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if seen[key] {
			t.Fatalf("duplicate key %q", key)
		}
		seen[key] = true
	}

	all := s.All()
	if len(all) != 7 {
		t.Fatalf("len(All()) = %d, want 7", len(all))
	}
	if all[4].Key != "custom_42" || all[6].Key != "custom_44" {
		t.Errorf("custom order = %q..%q", all[4].Key, all[6].Key)
	}
}

func TestCreateValidation(t *testing.T) {
	s := NewStore(testLink, nil, nil)
	for _, tc := range [][2]string{{"", "body"}, {"name", "  "}} {
		_, err := s.Create(tc[0], "", tc[1])
		var ve *validate.ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("Create(%q, %q) error = %v, want ValidationError", tc[0], tc[1], err)
		}
	}
	if len(s.All()) != 4 {
		t.Error("invalid template was stored")
	}
}

func TestSelectPublishes(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe("templates.", 4)
	defer unsub()

	s := NewStore(testLink, b, nil)
	s.Select("telegramCTA")

	select {
	case evt := <-ch:
		if evt.Kind != bus.TemplatesChanged {
			t.Errorf("Kind = %q", evt.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for templates.changed")
	}
}
