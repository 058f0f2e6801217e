package form

import (
	"fmt"
	"strings"
)

// QuestionType defines what kind of answer a question accepts.
type QuestionType string

const (
	// TypeText accepts any non-empty text.
	TypeText QuestionType = "text"
	// TypeDigits accepts integer-parseable text only.
	TypeDigits QuestionType = "digits"
	// TypeAudio accepts one uploaded audio or a free-text track name.
	TypeAudio QuestionType = "audio"
	// TypePhoto accepts an album of up to MaxPhotos photos.
	TypePhoto QuestionType = "photo"
)

// ParseQuestionType normalizes a raw type string; empty means TypeText.
func ParseQuestionType(raw string) (QuestionType, error) {
	switch QuestionType(strings.ToLower(strings.TrimSpace(raw))) {
	case "":
		return TypeText, nil
	case TypeText:
		return TypeText, nil
	case TypeDigits:
		return TypeDigits, nil
	case TypeAudio:
		return TypeAudio, nil
	case TypePhoto:
		return TypePhoto, nil
	default:
		return "", fmt.Errorf("unrecognized question type %q", raw)
	}
}

// Question is a single immutable schema entry. Ordering within a schema is
// significant: it is the display and navigation order.
type Question struct {
	Tag      string
	Prompt   string
	Note     string
	Type     QuestionType
	Required bool
}
