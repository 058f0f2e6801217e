package form

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxPhotos caps the number of photos a single answer may hold.
const MaxPhotos = 5

// ValueKind discriminates the shape an answer value takes.
type ValueKind string

const (
	// KindText holds plain text.
	KindText ValueKind = "text"
	// KindNumber holds an integer.
	KindNumber ValueKind = "number"
	// KindPhotos holds 1..MaxPhotos opaque media references.
	KindPhotos ValueKind = "photos"
	// KindAudio holds one uploaded audio media reference.
	KindAudio ValueKind = "audio"
	// KindTrack holds a free-text track name instead of an upload.
	KindTrack ValueKind = "track"
)

// Answer is one validated answer keyed by its question tag. Exactly one of
// the value fields is populated, selected by Kind.
type Answer struct {
	Tag    string    `yaml:"tag"`
	Kind   ValueKind `yaml:"kind"`
	Text   string    `yaml:"text,omitempty"`
	Number int64     `yaml:"number,omitempty"`
	Files  []string  `yaml:"files,omitempty"`
	Track  string    `yaml:"track,omitempty"`
}

// Display renders the answer value for form bodies and dialogs.
func (a *Answer) Display() string {
	switch a.Kind {
	case KindNumber:
		return strconv.FormatInt(a.Number, 10)
	case KindTrack:
		return a.Track
	case KindPhotos:
		return fmt.Sprintf("%d photo(s) attached", len(a.Files))
	case KindAudio:
		return "audio attached"
	default:
		return a.Text
	}
}

// Input carries one inbound reply to be validated against a question.
// Photos holds a complete album batch; Audio holds an uploaded file
// reference.
type Input struct {
	Text   string
	Photos []string
	Audio  string
}

// AnswerSet is a tag-keyed answer collection. Insertion order is not
// significant; display iterates in schema order.
type AnswerSet []*Answer

// Get returns the answer for tag if present.
func (s AnswerSet) Get(tag string) (*Answer, bool) {
	for _, a := range s {
		if a.Tag == tag {
			return a, true
		}
	}
	return nil, false
}

// Has reports whether an answer for tag exists.
func (s AnswerSet) Has(tag string) bool {
	_, ok := s.Get(tag)
	return ok
}

// Set validates in against the question for tag and updates or inserts the
// answer. Identical input is idempotent; failed validation leaves the set
// untouched.
func (s *AnswerSet) Set(schema *Schema, tag string, in Input) error {
	q, err := schema.QuestionFor(tag)
	if err != nil {
		return err
	}

	next, err := buildAnswer(q, in)
	if err != nil {
		return err
	}

	if prev, ok := s.Get(tag); ok {
		*prev = *next
		return nil
	}
	*s = append(*s, next)
	return nil
}

// Delete removes the answer for tag, reporting whether one existed.
func (s *AnswerSet) Delete(tag string) bool {
	for i, a := range *s {
		if a.Tag == tag {
			*s = append((*s)[:i], (*s)[i+1:]...)
			return true
		}
	}
	return false
}

func buildAnswer(q Question, in Input) (*Answer, error) {
	a := &Answer{Tag: q.Tag}
	switch q.Type {
	case TypeText:
		if strings.TrimSpace(in.Text) == "" {
			return nil, &ValidationError{Tag: q.Tag, Reason: "answer is not text"}
		}
		a.Kind = KindText
		a.Text = in.Text
	case TypeDigits:
		n, err := strconv.ParseInt(strings.TrimSpace(in.Text), 10, 64)
		if err != nil {
			return nil, &ValidationError{Tag: q.Tag, Reason: "answer is not digits"}
		}
		a.Kind = KindNumber
		a.Number = n
	case TypePhoto:
		if len(in.Photos) == 0 {
			return nil, &ValidationError{Tag: q.Tag, Reason: "answer holds no photo"}
		}
		if len(in.Photos) > MaxPhotos {
			return nil, &ValidationError{
				Tag:    q.Tag,
				Reason: fmt.Sprintf("at most %d photos allowed", MaxPhotos),
			}
		}
		for _, ref := range in.Photos {
			if ref == "" {
				return nil, &ValidationError{Tag: q.Tag, Reason: "answer is not photo"}
			}
		}
		a.Kind = KindPhotos
		a.Files = append([]string(nil), in.Photos...)
	case TypeAudio:
		switch {
		case in.Audio != "":
			a.Kind = KindAudio
			a.Files = []string{in.Audio}
		case strings.TrimSpace(in.Text) != "":
			a.Kind = KindTrack
			a.Track = in.Text
		default:
			return nil, &ValidationError{Tag: q.Tag, Reason: "answer is not audio"}
		}
	default:
		return nil, &ValidationError{Tag: q.Tag, Reason: "unsupported question type"}
	}
	return a, nil
}
