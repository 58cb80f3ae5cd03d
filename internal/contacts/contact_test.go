package contacts

import "testing"

func TestDeriveStatusInactiveAlwaysOffline(t *testing.T) {
	for _, interviewed := range []bool{false, true} {
		for _, subscribed := range []bool{false, true} {
			got := DeriveStatus(Flags{Active: false, Interviewed: interviewed, Subscribed: subscribed})
			if got != StatusOffline {
				t.Errorf("DeriveStatus(inactive, %v, %v) = %q, want offline", interviewed, subscribed, got)
			}
		}
	}
}

func TestDeriveStatusActive(t *testing.T) {
	tests := []struct {
		interviewed, subscribed bool
		want                    Status
	}{
		{false, false, StatusPending},
		{true, false, StatusOnline},
		{false, true, StatusOnline},
		{true, true, StatusOnline},
	}
	for _, tt := range tests {
		got := DeriveStatus(Flags{Active: true, Interviewed: tt.interviewed, Subscribed: tt.subscribed})
		if got != tt.want {
			t.Errorf("DeriveStatus(active, %v, %v) = %q, want %q", tt.interviewed, tt.subscribed, got, tt.want)
		}
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{"", "", false},
		{"all", "", false},
		{"Online", StatusOnline, false},
		{"unknown", StatusUnknown, false},
		{"busy", "", true},
	}
	for _, tt := range tests {
		got, err := ParseStatus(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseStatus(%q) = %q, %v; want %q, wantErr %v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}
