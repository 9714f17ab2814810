package odata

import "testing"

func TestPluralize_FullRules(t *testing.T) {
	cases := map[string]string{
		"account":     "accounts",
		"address":     "addresses",
		"batch":       "batches",
		"bush":        "bushes",
		"tax":         "taxes",
		"quiz":        "quizzes",
		"blitz":       "blitzs",
		"opportunity": "opportunities",
		"day":         "days",
		"leaf":        "leaves",
		"knife":       "knives",
		"hero":        "heroes",
		"video":       "videos",
	}
	for in, want := range cases {
		if got := Pluralize(in, false); got != want {
			t.Fatalf("Pluralize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPluralize_ForceSimple(t *testing.T) {
	cases := map[string]string{
		"opportunity": "opportunitys",
		"leaf":        "leafs",
		"account":     "accounts",
		// es suffixes still apply under simple pluralization
		"address": "addresses",
		"tax":     "taxes",
	}
	for in, want := range cases {
		if got := Pluralize(in, true); got != want {
			t.Fatalf("Pluralize(%q, simple) = %q, want %q", in, got, want)
		}
	}
}

func TestPluralize_Empty(t *testing.T) {
	if got := Pluralize("", false); got != "" {
		t.Fatalf("empty name = %q", got)
	}
}
