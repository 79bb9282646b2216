package sanitize

import "testing"

func TestStripHTML(t *testing.T) {
	cases := map[string]string{
		"plain":            "plain",
		"<b>bold</b> text": "bold text",
		"&lt;script&gt;alert(1)&lt;/script&gt;": "alert(1)",
		"  Tom &amp; Jerry  ":                    "Tom & Jerry",
	}
	for in, want := range cases {
		if got := StripHTML(in); got != want {
			t.Fatalf("StripHTML(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPromptLine(t *testing.T) {
	got := PromptLine("needs <i>urgent</i>\n\n  help\twith onboarding", 0)
	if got != "needs urgent help with onboarding" {
		t.Fatalf("unexpected prompt line %q", got)
	}

	if got := PromptLine("héllo wörld", 5); got != "héllo" {
		t.Fatalf("expected rune-safe truncation, got %q", got)
	}

	// "e" followed by a combining acute accent composes to a single rune.
	if got := PromptLine("cafe\u0301", 4); got != "caf\u00e9" {
		t.Fatalf("expected NFC composition before truncation, got %q", got)
	}
}

func TestTextPtr(t *testing.T) {
	if TextPtr(nil) != nil {
		t.Fatal("expected nil for nil input")
	}
	in := "<p>note</p>"
	if got := TextPtr(&in); got == nil || *got != "note" {
		t.Fatalf("unexpected result %v", got)
	}
}
