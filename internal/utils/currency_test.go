package utils

import "testing"

func TestNormalizeCurrency(t *testing.T) {
	got, ok := NormalizeCurrency(" eur ")
	if !ok || got != "EUR" {
		t.Fatalf("got=%q ok=%v want=EUR/true", got, ok)
	}
	if _, ok := NormalizeCurrency("eu"); ok {
		t.Fatal("two-letter code accepted")
	}
	if _, ok := NormalizeCurrency("euro"); ok {
		t.Fatal("four-letter code accepted")
	}
	if _, ok := NormalizeCurrency("e1r"); ok {
		t.Fatal("digit inside code accepted")
	}
	if _, ok := NormalizeCurrency(""); ok {
		t.Fatal("empty code accepted")
	}
}
