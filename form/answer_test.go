package form

import (
	"errors"
	"testing"
)

func testSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := NewSchema([]Definition{
		{Tag: "diet", Prompt: "What do you eat?"},
	})
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	return s
}

func TestSetTextAnswer(t *testing.T) {
	s := testSchema(t)
	var answers AnswerSet

	if err := answers.Set(s, TagName, Input{Text: "Alice"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a, ok := answers.Get(TagName)
	if !ok || a.Text != "Alice" || a.Kind != KindText {
		t.Fatalf("stored answer = %+v", a)
	}

	if err := answers.Set(s, TagName, Input{Text: ""}); !IsValidation(err) {
		t.Fatalf("expected ValidationError for empty text, got %v", err)
	}
}

func TestSetDigitsAnswer(t *testing.T) {
	s := testSchema(t)
	var answers AnswerSet

	if err := answers.Set(s, TagAge, Input{Text: "29"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a, _ := answers.Get(TagAge)
	if a.Kind != KindNumber || a.Number != 29 {
		t.Fatalf("stored answer = %+v", a)
	}

	if err := answers.Set(s, TagAge, Input{Text: "abc"}); !IsValidation(err) {
		t.Fatalf("expected ValidationError for non-digits, got %v", err)
	}
	// failed validation must not clobber the stored value
	a, _ = answers.Get(TagAge)
	if a.Number != 29 {
		t.Fatalf("answer clobbered by failed validation: %+v", a)
	}
}

func TestSetPhotoAnswer(t *testing.T) {
	s := testSchema(t)
	var answers AnswerSet

	if err := answers.Set(s, TagPhoto, Input{Photos: []string{"f1", "f2"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a, _ := answers.Get(TagPhoto)
	if a.Kind != KindPhotos || len(a.Files) != 2 {
		t.Fatalf("stored answer = %+v", a)
	}

	if err := answers.Set(s, TagPhoto, Input{}); !IsValidation(err) {
		t.Fatalf("expected ValidationError for empty album, got %v", err)
	}
	six := []string{"1", "2", "3", "4", "5", "6"}
	if err := answers.Set(s, TagPhoto, Input{Photos: six}); !IsValidation(err) {
		t.Fatalf("expected ValidationError for oversized album, got %v", err)
	}
	if err := answers.Set(s, TagPhoto, Input{Photos: []string{"f1", ""}}); !IsValidation(err) {
		t.Fatalf("expected ValidationError for empty media ref, got %v", err)
	}
}

func TestSetAudioAnswer(t *testing.T) {
	s := testSchema(t)
	var answers AnswerSet

	if err := answers.Set(s, TagSoundtrack, Input{Audio: "file-id"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a, _ := answers.Get(TagSoundtrack)
	if a.Kind != KindAudio || len(a.Files) != 1 {
		t.Fatalf("uploaded variant = %+v", a)
	}

	if err := answers.Set(s, TagSoundtrack, Input{Text: "Artist - Song"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a, _ = answers.Get(TagSoundtrack)
	if a.Kind != KindTrack || a.Track != "Artist - Song" {
		t.Fatalf("named variant = %+v", a)
	}
	if len(a.Files) != 0 {
		t.Fatalf("variants must be mutually exclusive: %+v", a)
	}

	if err := answers.Set(s, TagSoundtrack, Input{}); !IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestSetUnknownTag(t *testing.T) {
	s := testSchema(t)
	var answers AnswerSet
	if err := answers.Set(s, "ghost", Input{Text: "x"}); !errors.Is(err, ErrUnknownQuestion) {
		t.Fatalf("expected ErrUnknownQuestion, got %v", err)
	}
}

func TestDeleteAnswer(t *testing.T) {
	s := testSchema(t)
	var answers AnswerSet
	if err := answers.Set(s, "diet", Input{Text: "everything"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !answers.Delete("diet") {
		t.Fatal("Delete reported missing answer")
	}
	if answers.Has("diet") {
		t.Fatal("answer still present after delete")
	}
	if answers.Delete("diet") {
		t.Fatal("second delete reported success")
	}
}
