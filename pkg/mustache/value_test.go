package mustache

import (
	"errors"
	"math"
	"testing"
)

type stringer struct{}

func (stringer) String() string { return "stringer" }

func TestIsFalsyForSection(t *testing.T) {
	var nilPtr *person
	var nilMap map[string]int
	var nilSlice []string

	testCases := []struct {
		name  string
		value any
		falsy bool
	}{
		{"nil", nil, true},
		{"false", false, true},
		{"true", true, false},
		{"zero int", 0, true},
		{"zero uint", uint(0), true},
		{"int", -1, false},
		{"zero float", 0.0, true},
		{"NaN", math.NaN(), true},
		{"float", 0.5, false},
		{"empty string", "", true},
		{"string", "0", false},
		{"empty slice", []any{}, true},
		{"nil slice", nilSlice, true},
		{"slice", []int{0}, false},
		{"empty array", [0]int{}, true},
		{"nil pointer", nilPtr, true},
		{"nil map", nilMap, true},
		{"empty map", map[string]any{}, false},
		{"struct", person{}, false},
	}
	for _, tc := range testCases {
		if got := IsFalsyForSection(tc.value); got != tc.falsy {
			t.Errorf("IsFalsyForSection(%s) = %v, want %v", tc.name, got, tc.falsy)
		}
	}
}

func TestToString(t *testing.T) {
	testCases := []struct {
		value    any
		expected string
	}{
		{"s", "s"},
		{[]byte("b"), "b"},
		{12, "12"},
		{int32(-3), "-3"},
		{uint64(9), "9"},
		{1.25, "1.25"},
		{float32(0.5), "0.5"},
		{100.0, "100"},
		{1e21, "1000000000000000000000"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
		{true, "true"},
		{stringer{}, "stringer"},
		{errors.New("e"), "e"},
	}
	for _, tc := range testCases {
		if got := toString(tc.value); got != tc.expected {
			t.Errorf("toString(%#v) = %q, want %q", tc.value, got, tc.expected)
		}
	}
}

func TestCall(t *testing.T) {
	if got := call(func() int { return 7 }); got != 7 {
		t.Errorf("call(func() int) = %v, want 7", got)
	}
	called := false
	if got := call(func() { called = true }); got != nil || called {
		t.Errorf("call(func()) = %v, called %v; want nil without calling", got, called)
	}
	if got := call(func() (string, error) { return "", errors.New("x") }); got != nil {
		t.Errorf("call(failing func) = %v, want nil", got)
	}
	takesArg := func(int) int { return 0 }
	if got := call(takesArg); got == nil {
		t.Error("call(func(int) int) should return the func unchanged")
	}
}

func TestProperty(t *testing.T) {
	type keyed map[string]int
	testCases := []struct {
		name  string
		view  any
		key   string
		want  any
		found bool
	}{
		{"map any", map[string]any{"a": 1}, "a", 1, true},
		{"typed map", keyed{"a": 2}, "a", 2, true},
		{"typed map miss", keyed{"a": 2}, "b", nil, false},
		{"struct field", person{Name: "Bo"}, "Name", "Bo", true},
		{"pointer field", &person{Name: "Bo"}, "Name", "Bo", true},
		{"slice index", []string{"x", "y"}, "1", "y", true},
		{"slice out of range", []string{"x"}, "3", nil, false},
		{"unexported method name", person{}, "greeting", nil, false},
		{"primitive", 5, "x", nil, false},
		{"nil pointer", (*person)(nil), "Name", nil, false},
	}
	for _, tc := range testCases {
		got, found := property(tc.view, tc.key)
		if found != tc.found || (found && got != tc.want) {
			t.Errorf("property(%s, %q) = %v, %v; want %v, %v", tc.name, tc.key, got, found, tc.want, tc.found)
		}
	}
}
