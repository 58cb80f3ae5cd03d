package directory

import (
	"errors"
	"testing"
)

func TestDecodeModernEnvelope(t *testing.T) {
	body := `{"numbers":[
		{"name":"Ana","number":"+5511999990001","active":false,"interview":true,"suscription":true},
		{"name":"Bruno","number":5511999990002,"active":true,"interview":true},
		{"userName":"Carla","phone":"+5511999990003","active":"true","suscription":1}
	]}`

	records, source, err := Decode([]byte(body))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if source != SourceModern {
		t.Errorf("source = %q, want %q", source, SourceModern)
	}
	if len(records) != 3 {
		t.Fatalf("len(records) = %d, want 3", len(records))
	}

	if records[0].Active || !records[0].Interview || !records[0].Subscription {
		t.Errorf("records[0] flags = %+v", records[0])
	}
	if records[1].Phone != "5511999990002" {
		t.Errorf("numeric number decoded as %q", records[1].Phone)
	}
	if records[2].Name != "Carla" || records[2].Phone != "+5511999990003" {
		t.Errorf("fallback fields = %q/%q", records[2].Name, records[2].Phone)
	}
	if !records[2].Active || !records[2].Subscription {
		t.Errorf("string/number flags not decoded: %+v", records[2])
	}
}

func TestDecodeBareArray(t *testing.T) {
	records, source, err := Decode([]byte(`[{"name":"Ana","contact":"123","id":"n1"}]`))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if source != SourceModern {
		t.Errorf("source = %q, want modern", source)
	}
	if records[0].Phone != "123" || records[0].ID != "n1" {
		t.Errorf("record = %+v", records[0])
	}
}

func TestDecodeLegacy(t *testing.T) {
	body := `{"phones":[{"json":{"userName":"Ana","phone":"+551100"}},{"json":{"name":"Bia","number":"+551101"}},{"json":{}}]}`

	records, source, err := Decode([]byte(body))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if source != SourceLegacy {
		t.Errorf("source = %q, want legacy", source)
	}
	want := []Record{
		{Name: "Ana", Phone: "+551100", Source: SourceLegacy},
		{Name: "Bia", Phone: "+551101", Source: SourceLegacy},
		{Source: SourceLegacy},
	}
	if len(records) != len(want) {
		t.Fatalf("len(records) = %d, want %d", len(records), len(want))
	}
	for i := range want {
		if records[i] != want[i] {
			t.Errorf("records[%d] = %+v, want %+v", i, records[i], want[i])
		}
	}
}

func TestDecodeUnknownShape(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty", ""},
		{"other object", `{"contacts":[]}`},
		{"scalar", `42`},
		{"numbers not array", `{"numbers":"nope"}`},
		{"invalid json", `{"numbers":[`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Decode([]byte(tt.body))
			var fe *FormatError
			if !errors.As(err, &fe) {
				t.Errorf("Decode(%q) error = %v, want FormatError", tt.body, err)
			}
		})
	}
}
