package form

import (
	"strings"
	"testing"
)

func TestRenderStatusBlocking(t *testing.T) {
	s := testSchema(t)
	var f Form
	got := f.RenderStatus(s)
	if !strings.Contains(got, "required left") {
		t.Fatalf("blocking status text missing required counter:\n%s", got)
	}
	if !strings.Contains(got, "Soundtrack attached: no") {
		t.Fatalf("status text missing soundtrack line:\n%s", got)
	}
	if !strings.Contains(got, StatusBlocking.Label()) {
		t.Fatalf("status text missing label:\n%s", got)
	}
}

func TestRenderStatusReturnedShowsNote(t *testing.T) {
	s := testSchema(t)
	var f Form
	fillRequired(t, &f, s)
	if err := f.Submit(s); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := f.Reject("blurry photo"); err != nil {
		t.Fatalf("reject: %v", err)
	}

	got := f.RenderStatus(s)
	if !strings.Contains(got, "Moderator note: blurry photo") {
		t.Fatalf("returned status text missing note:\n%s", got)
	}
	if strings.Contains(got, "Questions answered") {
		t.Fatalf("progress shown outside editing states:\n%s", got)
	}
}

func TestRenderBodyLayout(t *testing.T) {
	s := testSchema(t)
	var f Form
	fillRequired(t, &f, s)
	if err := f.SetAnswer(s, TagSelf, Input{Text: "I like hiking."}); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	if err := f.SetAnswer(s, "diet", Input{Text: "everything"}); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	if err := f.SetAnswer(s, TagSoundtrack, Input{Text: "Artist - Song"}); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}

	msgs := f.RenderBody(s, "@alice", 4096)
	if len(msgs) != 1 {
		t.Fatalf("message count = %d, want 1", len(msgs))
	}
	body := msgs[0]

	for _, want := range []string{
		`Alice \(29\), Moscow`,
		`I like hiking\.`,
		"everything",
		"Artist \\- Song",
		"*Nick*: @alice",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q:\n%s", want, body)
		}
	}
	// media answers travel as albums, not text
	if strings.Contains(body, "photo") {
		t.Fatalf("photo answer leaked into body:\n%s", body)
	}
}

func TestRenderBodyOmitsUploadedSoundtrack(t *testing.T) {
	s := testSchema(t)
	var f Form
	fillRequired(t, &f, s)
	if err := f.SetAnswer(s, TagSoundtrack, Input{Audio: "file-id"}); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	body := strings.Join(f.RenderBody(s, "@alice", 4096), "\n")
	if strings.Contains(body, "Soundtrack") {
		t.Fatalf("uploaded soundtrack must not render as text:\n%s", body)
	}
}

func TestRenderBodyChunksAtBlockBoundaries(t *testing.T) {
	s := testSchema(t)
	var f Form
	fillRequired(t, &f, s)
	if err := f.SetAnswer(s, "diet", Input{Text: strings.Repeat("x", 300)}); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}

	const maxLen = 350
	msgs := f.RenderBody(s, "@alice", maxLen)
	if len(msgs) < 2 {
		t.Fatalf("oversized body not chunked: %d message(s)", len(msgs))
	}
	for i, m := range msgs {
		if m == "" {
			t.Fatalf("message %d is empty", i)
		}
		// a single block may exceed maxLen, joined blocks may not
		if len(m) > maxLen && strings.Contains(m, blockDelim) {
			t.Fatalf("message %d joins blocks past the limit (%d bytes)", i, len(m))
		}
	}
	joined := strings.Join(msgs, blockDelim)
	if !strings.Contains(joined, strings.Repeat("x", 300)) {
		t.Fatal("chunking split a block in half")
	}
}
