package server

import (
	"math/big"
	"testing"

	fpmath "github.com/GushALKDev/evm-synthetic-trading-protocol/internal/math"
)

func TestParseWad(t *testing.T) {
	cases := []struct {
		in   string
		want *big.Int
	}{
		{"0", big.NewInt(0)},
		{"1", fpmath.Wad(1)},
		{"50000", fpmath.Wad(50_000)},
		{"0.5", new(big.Int).Div(fpmath.Wad(1), big.NewInt(2))},
		{"-2.5", new(big.Int).Div(fpmath.Wad(-5), big.NewInt(2))},
		{"0.000000000000000001", big.NewInt(1)}, // smallest representable step
	}
	for _, tc := range cases {
		got, err := ParseWad(tc.in)
		if err != nil {
			t.Errorf("ParseWad(%q): %v", tc.in, err)
			continue
		}
		if got.Cmp(tc.want) != 0 {
			t.Errorf("ParseWad(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestParseWad_Rejects(t *testing.T) {
	for _, in := range []string{"", "abc", "1.2.3", "0.0000000000000000001"} {
		if _, err := ParseWad(in); err == nil {
			t.Errorf("ParseWad(%q) accepted, want rejection", in)
		}
	}
}

func TestFormatWad_RoundTrip(t *testing.T) {
	for _, in := range []string{"0", "1", "50000", "0.5", "123.456789"} {
		v, err := ParseWad(in)
		if err != nil {
			t.Fatalf("ParseWad(%q): %v", in, err)
		}
		if got := FormatWad(v); got != in {
			t.Errorf("FormatWad(ParseWad(%q)) = %q", in, got)
		}
	}
}

func TestFormatWad_Nil(t *testing.T) {
	if got := FormatWad(nil); got != "" {
		t.Errorf("FormatWad(nil) = %q, want empty", got)
	}
}
