package core

import (
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"50000", 50000, true},
		{" 200000 ", 200000, true},
		{"1.500.000", 1500000, true},
		{"Rp 1.234.567", 1234567, true},
		{"rp50000", 50000, true},
		{"1500000,00", 1500000, true},
		{"1500000.0", 1500000, true},
		{"1 000", 1000, true},
		{"12,50", 0, false},
		{"0", 0, false},
		{"-1000", 0, false},
		{"abc", 0, false},
		{"", 0, false},
		{"Rp", 0, false},
		{"99999999999999999999", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("%q expected ErrInvalidAmount, got %v", tc.in, err)
		}
	}
}

func TestFormatRupiah(t *testing.T) {
	cases := map[int64]string{
		0:       "Rp 0",
		500:     "Rp 500",
		50000:   "Rp 50.000",
		1234567: "Rp 1.234.567",
	}
	for in, want := range cases {
		if got := FormatRupiah(in); got != want {
			t.Fatalf("FormatRupiah(%d) = %q, want %q", in, got, want)
		}
	}
}
