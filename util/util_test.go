package util

import (
	"reflect"
	"testing"
)

func TestSortedKeys(t *testing.T) {
	got := SortedKeys(map[string]int{"c": 3, "a": 1, "b": 2})
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SortedKeys = %v, want %v", got, want)
	}
	if len(SortedKeys(map[string]bool{})) != 0 {
		t.Error("expected no keys for empty map")
	}
}

func TestUnique(t *testing.T) {
	got := Unique([]string{"b", "a", "b", "c", "a"})
	want := []string{"b", "a", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Unique = %v, want %v", got, want)
	}
}

func TestDuplicates(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{"none", []string{"a", "b"}, nil},
		{"one", []string{"a", "b", "a"}, []string{"a"}},
		{"reported once", []string{"a", "a", "a", "b", "b"}, []string{"a", "b"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Duplicates(tc.input); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Duplicates(%v) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestFilter(t *testing.T) {
	evens := Filter([]int{1, 2, 3, 4, 5, 6}, func(n int) bool { return n%2 == 0 })
	if !reflect.DeepEqual(evens, []int{2, 4, 6}) {
		t.Errorf("unexpected result %v", evens)
	}
}

func TestParseScalar(t *testing.T) {
	tests := []struct {
		input string
		want  any
	}{
		{"true", true},
		{"false", false},
		{"42", int64(42)},
		{"-3", int64(-3)},
		{"1", int64(1)},
		{"2.5", 2.5},
		{"data", "data"},
		{" coord ", "coord"},
		{"null", nil},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			if got := ParseScalar(tc.input); got != tc.want {
				t.Errorf("ParseScalar(%q) = %#v, want %#v", tc.input, got, tc.want)
			}
		})
	}
}

func TestParseKeyValues(t *testing.T) {
	got, err := ParseKeyValues([]string{"final=true", "kind=data"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]any{"final": true, "kind": "data"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseKeyValues = %v, want %v", got, want)
	}

	for _, bad := range []string{"novalue", "=x"} {
		if _, err := ParseKeyValues([]string{bad}); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}
