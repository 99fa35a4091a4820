package faq

import "testing"

func TestCleanVariant(t *testing.T) {
	cases := []struct {
		name string
		in   string
		out  string
	}{
		{name: "trims whitespace", in: "  How do I log in?  ", out: "How do I log in?"},
		{name: "collapses inner whitespace", in: "How   do\tI\n log in?", out: "How do I log in?"},
		{name: "strips double quotes", in: `"Where is my invoice?"`, out: "Where is my invoice?"},
		{name: "strips single quotes", in: `'Reset MFA?'`, out: "Reset MFA?"},
		{name: "strips quotes then spaces", in: `" spaced "`, out: "spaced"},
		{name: "keeps inner apostrophe", in: "What's my quota?", out: "What's my quota?"},
		{name: "only quotes", in: `""`, out: ""},
	}

	for _, tc := range cases {
		if got := cleanVariant(tc.in); got != tc.out {
			t.Fatalf("%s: expected %q got %q", tc.name, tc.out, got)
		}
	}
}

func TestNormalizeVariants(t *testing.T) {
	in := []string{"How do I reset it?", "how do i RESET it?", "  ", "Can I change it?", `"Can I change it?"`, "Third one?"}
	got := normalizeVariants(in, 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 variants got %v", got)
	}
	if got[0] != "How do I reset it?" || got[1] != "Can I change it?" {
		t.Fatalf("unexpected variants %v", got)
	}
}
