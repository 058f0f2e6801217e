package form

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Fixed question tags. The lead block opens every schema, the tail block
// closes it; configured questions sit in between and may not reuse these.
const (
	TagName       = "name"
	TagAge        = "age"
	TagPlace      = "place"
	TagSelf       = "self"
	TagPhoto      = "photo"
	TagSoundtrack = "soundtrack"
)

var leadQuestions = []Question{
	{Tag: TagName, Prompt: "What is your name?", Type: TypeText, Required: true},
	{Tag: TagAge, Prompt: "How old are you?", Type: TypeDigits, Required: true},
	{
		Tag:      TagPlace,
		Prompt:   "Where do you live?",
		Note:     "Name the city as a tag, replacing spaces and dashes with underscores.",
		Type:     TypeText,
		Required: true,
	},
	{
		Tag:    TagSelf,
		Prompt: "Tell us about yourself.",
		Note:   "Any extra details you find relevant.",
		Type:   TypeText,
	},
}

var tailQuestions = []Question{
	{
		Tag:      TagPhoto,
		Prompt:   "Send up to five (5) photos as one album.",
		Type:     TypePhoto,
		Required: true,
	},
	{
		Tag:    TagSoundtrack,
		Prompt: "Send one (1) audio file or a track name.",
		Note:   "A track name is recorded verbatim. Forwarded audio works too.",
		Type:   TypeAudio,
	},
}

// Definition is one configured question record as it appears in the schema
// file. Type defaults to text, Required to false.
type Definition struct {
	Tag      string `yaml:"tag"`
	Prompt   string `yaml:"prompt"`
	Note     string `yaml:"note,omitempty"`
	Type     string `yaml:"type,omitempty"`
	Required bool   `yaml:"required,omitempty"`
}

// Schema is the ordered, tag-keyed question list: fixed lead block,
// configured middle, fixed tail block. Immutable once built.
type Schema struct {
	questions []Question
	byTag     map[string]int
}

// NewSchema builds a schema from configured definitions. Duplicate tags,
// including collisions with the fixed lead/tail tags, are rejected with a
// SchemaError, as are unrecognized question types.
func NewSchema(defs []Definition) (*Schema, error) {
	s := &Schema{byTag: make(map[string]int)}

	add := func(q Question) error {
		if q.Tag == "" {
			return &SchemaError{Reason: "empty tag"}
		}
		if _, dup := s.byTag[q.Tag]; dup {
			return &SchemaError{Tag: q.Tag, Reason: "duplicate tag"}
		}
		s.byTag[q.Tag] = len(s.questions)
		s.questions = append(s.questions, q)
		return nil
	}

	for _, q := range leadQuestions {
		if err := add(q); err != nil {
			return nil, err
		}
	}
	for _, def := range defs {
		qt, err := ParseQuestionType(def.Type)
		if err != nil {
			return nil, &SchemaError{Tag: def.Tag, Reason: err.Error()}
		}
		q := Question{
			Tag:      def.Tag,
			Prompt:   def.Prompt,
			Note:     def.Note,
			Type:     qt,
			Required: def.Required,
		}
		if err := add(q); err != nil {
			return nil, err
		}
	}
	for _, q := range tailQuestions {
		if err := add(q); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// LoadSchemaFile reads a YAML list of question definitions and builds the
// schema around it.
func LoadSchemaFile(path string) (*Schema, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}
	var defs []Definition
	if err := yaml.Unmarshal(raw, &defs); err != nil {
		return nil, fmt.Errorf("parse schema file %s: %w", path, err)
	}
	return NewSchema(defs)
}

// Len returns the number of questions.
func (s *Schema) Len() int {
	return len(s.questions)
}

// At returns the question at the given position.
func (s *Schema) At(i int) Question {
	return s.questions[i]
}

// Questions returns a copy of the ordered question list.
func (s *Schema) Questions() []Question {
	return append([]Question(nil), s.questions...)
}

// QuestionFor resolves a question by tag.
func (s *Schema) QuestionFor(tag string) (Question, error) {
	i, ok := s.byTag[tag]
	if !ok {
		return Question{}, fmt.Errorf("%w: %q", ErrUnknownQuestion, tag)
	}
	return s.questions[i], nil
}

// IsFixed reports whether the tag belongs to the fixed lead or tail blocks.
func (s *Schema) IsFixed(tag string) bool {
	for _, q := range leadQuestions {
		if q.Tag == tag {
			return true
		}
	}
	for _, q := range tailQuestions {
		if q.Tag == tag {
			return true
		}
	}
	return false
}

// WrapIndex normalizes a question cursor into [0, Len), wrapping both
// directions.
func (s *Schema) WrapIndex(i int) int {
	n := len(s.questions)
	if n == 0 {
		return 0
	}
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
