package templates

import (
	"slices"
	"testing"
)

func TestPlaceholders(t *testing.T) {
	got := Placeholders("Hi {{name}}, join {{link}} or {{link}}")
	want := []string{"link", "name"}
	if !slices.Equal(got, want) {
		t.Errorf("Placeholders() = %v, want %v", got, want)
	}
}

func TestFill(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		values map[string]string
		want   string
	}{
		{"single", "go {{link}}", map[string]string{"link": "x"}, "go x"},
		{"repeated", "{{link}} {{link}}", map[string]string{"link": "x"}, "x x"},
		{"missing kept", "hi {{name}}", map[string]string{"link": "x"}, "hi {{name}}"},
		{"no placeholders", "plain", nil, "plain"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fill(tt.body, tt.values); got != tt.want {
				t.Errorf("Fill() = %q, want %q", got, tt.want)
			}
		})
	}
}
