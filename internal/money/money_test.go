package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{"1", "1"},
		{"1.2", "1.2"},
		{"1.23", "1.23"},
		{"1.234", "1.23"},
		{"1.235", "1.24"}, // half-up on the third digit
		{"-45.678", "-45.68"},
		{"0", "0"},
		{"", "0"},
		{"abc", "0"},
		{"1.2.3", "0"},
	}
	for _, tc := range cases {
		got := Parse(tc.in)
		want := decimal.RequireFromString(tc.out)
		if !got.Equal(want) {
			t.Errorf("Parse(%q) = %s, want %s", tc.in, got, want)
		}
	}
}

func TestNormalize(t *testing.T) {
	d := decimal.RequireFromString("10.005")
	if got := Normalize(d); !got.Equal(decimal.RequireFromString("10.01")) {
		t.Errorf("Normalize(10.005) = %s, want 10.01", got)
	}
	if got := Normalize(decimal.Zero); !got.Equal(decimal.Zero) {
		t.Errorf("Normalize(0) = %s, want 0", got)
	}
}

func TestAddSubRenormalize(t *testing.T) {
	// Repeated small additions must stay at two fractional digits.
	total := decimal.Zero
	step := decimal.RequireFromString("0.1")
	for i := 0; i < 10; i++ {
		total = Add(total, step)
	}
	if !total.Equal(decimal.NewFromInt(1)) {
		t.Errorf("10 x 0.1 = %s, want 1", total)
	}
	if got := Sub(total, decimal.RequireFromString("0.333")); !got.Equal(decimal.RequireFromString("0.67")) {
		t.Errorf("Sub = %s, want 0.67", got)
	}
}
