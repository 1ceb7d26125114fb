package habit

import (
	"testing"
	"time"
)

func TestKeyRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"mid month", time.Date(2025, time.March, 15, 23, 59, 0, 0, time.Local), "2025-03-15"},
		{"single digit padding", time.Date(2025, time.January, 2, 0, 0, 0, 0, time.Local), "2025-01-02"},
		{"leap day", time.Date(2024, time.February, 29, 8, 0, 0, 0, time.Local), "2024-02-29"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Key(tt.t)
			if got != tt.want {
				t.Fatalf("Key() = %q, want %q", got, tt.want)
			}
			parsed, err := ParseKey(got)
			if err != nil {
				t.Fatalf("ParseKey(%q): %v", got, err)
			}
			if Key(parsed) != tt.want {
				t.Errorf("round trip = %q, want %q", Key(parsed), tt.want)
			}
		})
	}
}

func TestValidKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"2025-03-15", true},
		{"2025-3-15", false},
		{"15-03-2025", false},
		{"2025-13-01", false},
		{"", false},
		{"not-a-date", false},
	}

	for _, tt := range tests {
		if got := ValidKey(tt.key); got != tt.want {
			t.Errorf("ValidKey(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}
