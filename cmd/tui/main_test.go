package main

import "testing"

func TestExtractTokenID(t *testing.T) {
	cases := map[string]string{
		"12345":                                 "12345",
		" 777 ":                                 "777",
		"https://catapult.trade/tokens/4242":    "4242",
		"https://catapult.trade/tokens/99?x=1":  "99",
		"https://catapult.trade/tokens/":        "https://catapult.trade/tokens/",
	}
	for in, want := range cases {
		if got := extractTokenID(in); got != want {
			t.Fatalf("extractTokenID(%q) = %q, want %q", in, got, want)
		}
	}
}
