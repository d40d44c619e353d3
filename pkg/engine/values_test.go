package engine

import (
	"math"
	"testing"
)

func TestToFloat64(t *testing.T) {
	tests := []struct {
		in     any
		want   float64
		wantOK bool
	}{
		{int(3), 3, true},
		{int64(-7), -7, true},
		{2.5, 2.5, true},
		{true, 1, true},
		{false, 0, true},
		{"42", 42, true},
		{" 3.5 ", 3.5, true},
		{"-0.5", -0.5, true},
		{"junk", 0, false},
		{"", 0, false},
		{nil, 0, false},
		{[]int{1}, 0, false},
	}
	for _, tt := range tests {
		got, ok := toFloat64(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("toFloat64(%v) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestToInt64Rounds(t *testing.T) {
	tests := []struct {
		in   any
		want int64
	}{
		{2.4, 2},
		{2.5, 3},
		{-2.5, -3},
		{"7.9", 8},
		{true, 1},
	}
	for _, tt := range tests {
		if got, ok := toInt64(tt.in); !ok || got != tt.want {
			t.Errorf("toInt64(%v) = (%v, %v), want %v", tt.in, got, ok, tt.want)
		}
	}
	if _, ok := toInt64("nope"); ok {
		t.Error("toInt64(nope) should miss")
	}
}

func TestToNumberDegradesJunkToZero(t *testing.T) {
	if got := toNumber("garbage"); got != 0 {
		t.Errorf("toNumber(garbage) = %v, want 0", got)
	}
	if got := toNumber(math.NaN()); got != 0 {
		t.Errorf("toNumber(NaN) = %v, want 0", got)
	}
	if got := toNumber("12"); got != 12 {
		t.Errorf("toNumber(12) = %v, want 12", got)
	}
}

func TestToString(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"neko", "neko"},
		{int(3), "3"},
		{int64(-4), "-4"},
		{2.5, "2.5"},
		{float64(3), "3"},
		{true, "true"},
		{false, "false"},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := toString(tt.in); got != tt.want {
			t.Errorf("toString(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestToBool(t *testing.T) {
	trues := []any{true, 1, int64(2), 0.5, "yes", "TRUE-ish"}
	falses := []any{false, 0, int64(0), 0.0, math.NaN(), "", "false", "FALSE", "0", " 0 ", nil}
	for _, v := range trues {
		if !toBool(v) {
			t.Errorf("toBool(%v) = false, want true", v)
		}
	}
	for _, v := range falses {
		if toBool(v) {
			t.Errorf("toBool(%v) = true, want false", v)
		}
	}
}

func TestCompareValues(t *testing.T) {
	tests := []struct {
		a, b any
		want int
	}{
		{1.0, 2.0, -1},
		{2.0, 1.0, 1},
		{"10", 10.0, 0},
		{"10", "9", 1},
		{"apple", "Banana", -1},
		{"Cat", "cat", 0},
		{"apple", 5.0, 1},
	}
	for _, tt := range tests {
		if got := compareValues(tt.a, tt.b); got != tt.want {
			t.Errorf("compareValues(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
