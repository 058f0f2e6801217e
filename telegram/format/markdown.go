// Package format provides Telegram text markup helpers.
package format

import (
	"regexp"
	"strings"
)

const mdV2Specials = "_*[]()~`>#+-=|{}.!"

// QuoteMeta leaves '-' bare, which would form a range inside the class.
var mdV2Re = regexp.MustCompile("[" + strings.ReplaceAll(regexp.QuoteMeta(mdV2Specials), "-", `\-`) + `\\]`)

// EscapeMarkdownV2 escapes special characters for Telegram MarkdownV2.
func EscapeMarkdownV2(text string) string {
	return mdV2Re.ReplaceAllString(text, `\$0`)
}

// Bold wraps already-escaped text in MarkdownV2 bold markers.
func Bold(text string) string {
	return "*" + text + "*"
}

// Italic wraps already-escaped text in MarkdownV2 italic markers.
func Italic(text string) string {
	return "_" + text + "_"
}

// Mention renders a user reference: @username when present, the display
// name otherwise. The result is escaped for MarkdownV2.
func Mention(username, name string) string {
	if username != "" {
		return EscapeMarkdownV2("@" + username)
	}
	return EscapeMarkdownV2(strings.TrimSpace(name))
}
