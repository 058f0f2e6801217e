// Package keyboard converts transport-neutral button rows into Telebot
// inline markup.
package keyboard

import (
	tele "gopkg.in/telebot.v4"

	"github.com/polydating/datingbot/data"
)

// Row builds one keyboard row.
func Row(buttons ...data.Button) []data.Button {
	return buttons
}

// Rows stacks rows into a keyboard.
func Rows(rows ...[]data.Button) [][]data.Button {
	return rows
}

// Markup renders button rows as a Telebot inline keyboard. Empty input
// yields no markup.
func Markup(rows [][]data.Button) *tele.ReplyMarkup {
	if len(rows) == 0 {
		return nil
	}
	markup := &tele.ReplyMarkup{}
	inline := make([][]tele.InlineButton, len(rows))
	for i, row := range rows {
		r := make([]tele.InlineButton, len(row))
		for j, btn := range row {
			r[j] = *markup.Data(btn.Text, btn.Unique, btn.Data).Inline()
		}
		inline[i] = r
	}
	markup.InlineKeyboard = inline
	return markup
}

// ChunkButtons splits a flat button list into rows with up to n buttons per
// row.
func ChunkButtons(buttons []data.Button, n int) [][]data.Button {
	if n <= 1 {
		out := make([][]data.Button, 0, len(buttons))
		for _, b := range buttons {
			out = append(out, []data.Button{b})
		}
		return out
	}
	var rows [][]data.Button
	for i := 0; i < len(buttons); i += n {
		end := i + n
		if end > len(buttons) {
			end = len(buttons)
		}
		rows = append(rows, buttons[i:end])
	}
	return rows
}
