package users

import "testing"

func TestCalculateWithdrawalTax(t *testing.T) {
	cases := []struct {
		amount, percent, want float64
	}{
		{1000, 10, 100},
		{500, 10, 50},
		{333, 10, 33.3},
		{100, 0, 0},
		{999.99, 10, 100},
	}
	for _, c := range cases {
		if got := CalculateWithdrawalTax(c.amount, c.percent); got != c.want {
			t.Fatalf("tax(%v, %v%%) = %v, want %v", c.amount, c.percent, got, c.want)
		}
	}
}

func TestRound2(t *testing.T) {
	if got := round2(10.005); got != 10.01 {
		t.Fatalf("round2(10.005) = %v", got)
	}
	if got := round2(0.1 + 0.2); got != 0.3 {
		t.Fatalf("round2(0.1+0.2) = %v", got)
	}
}

func TestMaskAccountNumber(t *testing.T) {
	if got := MaskAccountNumber("123456789012"); got != "1234****9012" {
		t.Fatalf("mask = %q", got)
	}
	// Short values are returned as-is rather than over-masked.
	if got := MaskAccountNumber("123456"); got != "123456" {
		t.Fatalf("short mask = %q", got)
	}
}
