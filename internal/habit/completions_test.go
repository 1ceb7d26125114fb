package habit

import (
	"reflect"
	"testing"
)

func TestToggleDoubleFlipRestoresMap(t *testing.T) {
	tests := []struct {
		name    string
		initial map[string]bool
		key     string
	}{
		{
			name:    "absent key",
			initial: map[string]bool{},
			key:     "2025-03-15",
		},
		{
			name:    "marked key",
			initial: map[string]bool{"2025-03-14": true, "2025-03-15": true},
			key:     "2025-03-15",
		},
		{
			name:    "unrelated keys untouched",
			initial: map[string]bool{"2025-01-01": true},
			key:     "2025-03-15",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Toggle(Toggle(tt.initial, tt.key), tt.key)
			if !reflect.DeepEqual(got, tt.initial) {
				t.Errorf("double toggle = %v, want %v", got, tt.initial)
			}
		})
	}
}

func TestToggleDoesNotMutateInput(t *testing.T) {
	initial := map[string]bool{"2025-03-14": true}

	next := Toggle(initial, "2025-03-15")

	if len(initial) != 1 || !initial["2025-03-14"] {
		t.Errorf("input map mutated: %v", initial)
	}
	if !next["2025-03-15"] || !next["2025-03-14"] {
		t.Errorf("toggled map missing entries: %v", next)
	}
}

func TestToggleFirstFlipMarksComplete(t *testing.T) {
	next := Toggle(nil, "2025-03-15")
	if !next["2025-03-15"] {
		t.Error("first toggle of absent key should mark the date complete")
	}
}

func TestToggleUncompleteRemovesKey(t *testing.T) {
	next := Toggle(map[string]bool{"2025-03-15": true}, "2025-03-15")
	if _, ok := next["2025-03-15"]; ok {
		t.Errorf("un-completing should remove the key, got %v", next)
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b map[string]bool
		want bool
	}{
		{"both empty", map[string]bool{}, nil, true},
		{"same marks", map[string]bool{"a": true}, map[string]bool{"a": true}, true},
		{"explicit false equals absent", map[string]bool{"a": true, "b": false}, map[string]bool{"a": true}, true},
		{"different marks", map[string]bool{"a": true}, map[string]bool{"b": true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}
