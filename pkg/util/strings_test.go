package util

import "testing"

func TestParseFloatOK(t *testing.T) {
	cases := map[string]bool{
		"83.2":  true,
		" 1e2 ": true,
		"":      false,
		"abc":   false,
		"NaN":   false,
		"Inf":   false,
		"-Inf":  false,
		".":     false,
	}
	for in, want := range cases {
		if _, ok := ParseFloatOK(in); ok != want {
			t.Fatalf("ParseFloatOK(%q) ok=%v, want %v", in, ok, want)
		}
	}
}

func TestIsDisabled(t *testing.T) {
	for _, s := range []string{"off", "OFF", "0", "False", " false "} {
		if !IsDisabled(s) {
			t.Fatalf("expected %q disabled", s)
		}
	}
	for _, s := range []string{"", "on", "1", "true", "no"} {
		if IsDisabled(s) {
			t.Fatalf("expected %q enabled", s)
		}
	}
}

func TestContainsAllTokens(t *testing.T) {
	name := "Nippon India ETF Gold BeES"
	if !ContainsAllTokens("NIPPON INDIA ETF GOLD BEES - Growth", name) {
		t.Fatalf("expected match")
	}
	if ContainsAllTokens("Nippon India ETF Silver BeES", name) {
		t.Fatalf("unexpected match")
	}
	if ContainsAllTokens("anything", "  ") {
		t.Fatalf("empty needle must not match")
	}
}
