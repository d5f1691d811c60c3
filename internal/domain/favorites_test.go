package domain

import (
	"reflect"
	"testing"
)

func TestDiffFavorites(t *testing.T) {
	tests := []struct {
		name       string
		desired    []string
		current    []string
		wantAdd    []string
		wantRemove []string
	}{
		{"empty remote", []string{"a", "b"}, nil, []string{"a", "b"}, nil},
		{"clear remote", nil, []string{"a"}, nil, []string{"a"}},
		{"mixed", []string{"a", "c", "c"}, []string{"a", "b"}, []string{"c"}, []string{"b"}},
		{"identical", []string{"x", "y"}, []string{"y", "x"}, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			add, remove := DiffFavorites(tt.desired, tt.current)
			if !reflect.DeepEqual(add, tt.wantAdd) {
				t.Errorf("add = %v, want %v", add, tt.wantAdd)
			}
			if !reflect.DeepEqual(remove, tt.wantRemove) {
				t.Errorf("remove = %v, want %v", remove, tt.wantRemove)
			}
		})
	}
}

func TestSameFavorites(t *testing.T) {
	if !SameFavorites([]string{"a", "b"}, []string{"b", "a"}) {
		t.Error("order should not matter")
	}
	if SameFavorites([]string{"a"}, []string{"a", "b"}) {
		t.Error("different sets reported equal")
	}
}
