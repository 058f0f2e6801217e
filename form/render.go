package form

import (
	"fmt"
	"strings"

	"github.com/polydating/datingbot/telegram/format"
)

const blockDelim = "\n\n"

// RenderStatus reports answer progress, soundtrack presence, the status
// label and, while returned, the moderator note.
func (f *Form) RenderStatus(schema *Schema) string {
	status := f.Status(schema)

	var b strings.Builder
	if status == StatusBlocking || status == StatusIdle {
		fmt.Fprintf(&b, "Questions answered: %d of %d", len(f.answers), schema.Len())
		if status == StatusBlocking {
			fmt.Fprintf(&b, " (%d required left)", f.MissingRequired(schema))
		}
		b.WriteByte('\n')
	}

	track := "no"
	if f.answers.Has(TagSoundtrack) {
		track = "yes"
	}
	fmt.Fprintf(&b, "Soundtrack attached: %s\n", track)
	fmt.Fprintf(&b, "Form status: %s", status.Label())

	if f.note != "" && status == StatusReturned {
		fmt.Fprintf(&b, "%sModerator note: %s", blockDelim, f.note)
	}
	return b.String()
}

// RenderBody produces the publishable form text as MarkdownV2, chunked so
// that no message exceeds maxLen. Splitting happens only at block
// boundaries; a block is never cut in half.
func (f *Form) RenderBody(schema *Schema, nick string, maxLen int) []string {
	blocks := []string{f.renderHeader()}

	// Configured questions only; lead answers are part of the header and
	// media answers travel as albums.
	for _, q := range schema.Questions() {
		if schema.IsFixed(q.Tag) {
			continue
		}
		a, ok := f.answers.Get(q.Tag)
		if !ok {
			continue
		}
		block := format.Bold(format.EscapeMarkdownV2(q.Prompt)) +
			blockDelim + format.EscapeMarkdownV2(a.Display())
		blocks = append(blocks, block)
	}

	if a, ok := f.answers.Get(TagSoundtrack); ok && a.Kind == KindTrack {
		blocks = append(blocks,
			format.Bold(format.EscapeMarkdownV2("Soundtrack: "))+format.EscapeMarkdownV2(a.Track))
	}

	blocks = append(blocks, format.Bold("Nick")+": "+nick)

	return chunkBlocks(blocks, maxLen)
}

func (f *Form) renderHeader() string {
	name, age, place := "", "", ""
	if a, ok := f.answers.Get(TagName); ok {
		name = a.Display()
	}
	if a, ok := f.answers.Get(TagAge); ok {
		age = a.Display()
	}
	if a, ok := f.answers.Get(TagPlace); ok {
		place = a.Display()
	}
	text := fmt.Sprintf("%s (%s), %s", name, age, place)
	if a, ok := f.answers.Get(TagSelf); ok {
		text += blockDelim + a.Display()
	}
	return format.EscapeMarkdownV2(text)
}

func chunkBlocks(blocks []string, maxLen int) []string {
	if len(blocks) == 0 {
		return nil
	}
	messages := []string{blocks[0]}
	for _, block := range blocks[1:] {
		last := messages[len(messages)-1]
		if len(last)+len(blockDelim)+len(block) > maxLen {
			messages = append(messages, block)
			continue
		}
		messages[len(messages)-1] = last + blockDelim + block
	}
	return messages
}
