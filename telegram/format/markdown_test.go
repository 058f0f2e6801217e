package format

import "testing"

func TestEscapeMarkdownV2(t *testing.T) {
	got := EscapeMarkdownV2("a_b*c[d]e(f)g.h!i")
	want := `a\_b\*c\[d\]e\(f\)g\.h\!i`
	if got != want {
		t.Fatalf("EscapeMarkdownV2 = %q, want %q", got, want)
	}
}

func TestEscapeMarkdownV2LeavesPlainText(t *testing.T) {
	got := EscapeMarkdownV2("age 29, ok/5:x")
	want := `age 29, ok/5:x`
	if got != want {
		t.Fatalf("EscapeMarkdownV2 = %q, want %q", got, want)
	}
	if got := EscapeMarkdownV2("a-b+c=d"); got != `a\-b\+c\=d` {
		t.Fatalf("EscapeMarkdownV2 = %q", got)
	}
}

func TestEscapeMarkdownV2Backslash(t *testing.T) {
	if got := EscapeMarkdownV2(`a\b`); got != `a\\b` {
		t.Fatalf("EscapeMarkdownV2 = %q", got)
	}
}

func TestMention(t *testing.T) {
	if got := Mention("some_user", "Some User"); got != `@some\_user` {
		t.Fatalf("Mention with username = %q", got)
	}
	if got := Mention("", "Some User"); got != "Some User" {
		t.Fatalf("Mention without username = %q", got)
	}
}
