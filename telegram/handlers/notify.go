package handlers

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/polydating/datingbot/data"
	"github.com/polydating/datingbot/logger"
	"github.com/polydating/datingbot/telegram/keyboard"
)

// notifyAdmins fans a moderation alert out to the owner and every admin
// chat with a button that displays the form in place.
func (a *App) notifyAdmins(text string, userID int64) {
	show := data.Button{
		Text:   "Show form",
		Unique: cbPendingShow,
		Data:   strconv.FormatInt(userID, 10),
	}
	out := data.Outgoing{Text: text, Keyboard: keyboard.Rows(keyboard.Row(show))}

	targets := a.botData.Admins()
	if owner := a.botData.Owner(); owner != 0 && !a.contains(targets, owner) {
		targets = append(targets, owner)
	}
	for _, id := range targets {
		if _, err := a.m.Send(id, out); err != nil {
			logger.Warn(context.Background(), "tg", "notify.admin_failed",
				slog.Int64("chat_id", id), slog.String("err", err.Error()))
		}
	}
}

// notifyUser tells a user their form status changed, with a shortcut back
// into the form screen.
func (a *App) notifyUser(ctx context.Context, userID int64, text string) {
	out := data.Outgoing{
		Text:     text,
		Keyboard: keyboard.Rows(keyboard.Row(data.Button{Text: "My form", Unique: cbLevelForm})),
	}
	if _, err := a.m.Send(userID, out); err != nil {
		logger.Warn(ctx, "tg", "notify.user_failed",
			slog.Int64("user_id", userID), slog.String("err", err.Error()))
	}
}

func (a *App) contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
