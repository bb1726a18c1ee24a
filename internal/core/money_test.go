package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"1.٣", 0, false}, // Arabic-Indic digit
		{"١٢", 0, false},
		{"１.50", 0, false}, // fullwidth digit
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyString(t *testing.T) {
	cases := map[int64]string{
		8550:   "85.50",
		1:      "0.01",
		300000: "3000.00",
		-275:   "-2.75",
	}
	for cents, want := range cases {
		if got := (Money{Cents: cents}).String(); got != want {
			t.Errorf("Money{%d}.String() = %q, want %q", cents, got, want)
		}
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := Money{Cents: 8550}
	b := Money{Cents: 4500}
	if got := a.Add(b); got.Cents != 13050 {
		t.Fatalf("Add = %d, want 13050", got.Cents)
	}
	if got := b.Sub(a); got.Cents != -4050 {
		t.Fatalf("Sub = %d, want -4050", got.Cents)
	}
	if got := a.Decimal(); got != 85.5 {
		t.Fatalf("Decimal = %v, want 85.5", got)
	}
}

func TestParseMoney(t *testing.T) {
	m, err := ParseMoney("45")
	if err != nil || m.Cents != 4500 {
		t.Fatalf("ParseMoney(45) = %v, %v", m, err)
	}
	if _, err := ParseMoney("0.00"); err != ErrInvalidAmount {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}
