package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/polydating/datingbot/data"
	"github.com/polydating/datingbot/form"
	"github.com/polydating/datingbot/logger"
	"github.com/polydating/datingbot/telegram"
	"github.com/polydating/datingbot/telegram/helpers"
)

// reply sends handler output, turning CommandError into usage text.
func reply(c tele.Context, err error) error {
	var ce *CommandError
	if errors.As(err, &ce) {
		return c.Send(ce.Error())
	}
	return err
}

func parseID(raw string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
}

// onAdmins implements /admins list|add|rm for the owner.
func (a *App) onAdmins(c tele.Context) error {
	ctx := helpers.Ctx(c)
	const usage = "/admins [list|add <id>|rm <id>]"
	args := c.Args()
	sub := "list"
	if len(args) > 0 {
		sub = strings.ToLower(args[0])
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	switch sub {
	case "list":
		return c.Send(a.adminListText(ctx))
	case "add":
		if len(args) != 2 {
			return reply(c, &CommandError{Usage: usage})
		}
		id, err := parseID(args[1])
		if err != nil {
			return reply(c, &CommandError{Usage: usage, Reason: "id must be a number"})
		}
		info, err := a.resolver.ResolveChat(id)
		if err != nil {
			return reply(c, &CommandError{Usage: usage, Reason: "unknown chat or user id"})
		}
		if !a.botData.AddAdmin(id) {
			return c.Send("Already an admin.")
		}
		if err := a.saveBotData(); err != nil {
			return err
		}
		logger.Info(ctx, "tg", "admin.added", slog.Int64("chat_id", id))
		return c.Send(fmt.Sprintf("Added %s (%d) to admins.", data.NewMeta(info).Name, id))
	case "rm":
		if len(args) != 2 {
			return reply(c, &CommandError{Usage: usage})
		}
		id, err := parseID(args[1])
		if err != nil {
			return reply(c, &CommandError{Usage: usage, Reason: "id must be a number"})
		}
		if !a.botData.RemoveAdmin(id) {
			return c.Send("Not an admin.")
		}
		if err := a.saveBotData(); err != nil {
			return err
		}
		logger.Info(ctx, "tg", "admin.removed", slog.Int64("chat_id", id))
		return c.Send(fmt.Sprintf("Removed %d from admins.", id))
	default:
		return reply(c, &CommandError{Usage: usage})
	}
}

// adminListText renders the admin list, dropping IDs Telegram no longer
// recognizes.
func (a *App) adminListText(ctx context.Context) string {
	admins := a.botData.Admins()
	if len(admins) == 0 {
		return "No admins enrolled."
	}

	var b strings.Builder
	b.WriteString("Admins:")
	dropped := false
	for _, id := range admins {
		info, err := a.resolver.ResolveChat(id)
		if errors.Is(err, telegram.ErrIncorrectID) {
			a.botData.RemoveAdmin(id)
			dropped = true
			logger.Warn(ctx, "tg", "admin.dropped", slog.Int64("chat_id", id))
			continue
		}
		name := strconv.FormatInt(id, 10)
		if err == nil {
			name = data.NewMeta(info).Name
		}
		fmt.Fprintf(&b, "\n- %s (%d)", name, id)
	}
	if dropped {
		if err := a.saveBotData(); err != nil {
			logger.Error(ctx, "tg", "botdata.save_failed", slog.String("err", err.Error()))
		}
		b.WriteString("\nUnknown IDs were dropped from the list.")
	}
	return b.String()
}

// onPending implements /pending list|show|post|ret for admins.
func (a *App) onPending(c tele.Context) error {
	ctx := helpers.Ctx(c)
	const usage = "/pending [list|show <id>|post <id>|ret <id> <note>]"
	args := c.Args()
	sub := "list"
	if len(args) > 0 {
		sub = strings.ToLower(args[0])
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	switch sub {
	case "list":
		pending := a.botData.Pending()
		if len(pending) == 0 {
			return c.Send("No forms await review.")
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Pending forms (%d):", len(pending))
		for _, id := range pending {
			name := strconv.FormatInt(id, 10)
			if user, err := a.store.GetUserData(id); err == nil {
				name = user.Nick()
			}
			fmt.Fprintf(&b, "\n- %s (%d)", name, id)
		}
		return c.Send(b.String())
	case "show":
		id, err := a.pendingArg(args, usage)
		if err != nil {
			return reply(c, err)
		}
		if err := a.showFormIn(chatInfo(c), id); err != nil {
			return reply(c, err)
		}
		return nil
	case "post":
		id, err := a.pendingArg(args, usage)
		if err != nil {
			return reply(c, err)
		}
		if err := a.publish(ctx, id); err != nil {
			return reply(c, err)
		}
		return c.Send("Published.")
	case "ret", "edit":
		if len(args) < 3 {
			return reply(c, &CommandError{Usage: usage, Reason: "a note for the user is required"})
		}
		id, err := a.pendingArg(args[:2], usage)
		if err != nil {
			return reply(c, err)
		}
		note := strings.Join(args[2:], " ")
		if err := a.returnForm(ctx, id, note); err != nil {
			return reply(c, err)
		}
		return c.Send("Returned to the user.")
	default:
		return reply(c, &CommandError{Usage: usage})
	}
}

// pendingArg extracts and checks the user ID argument of a /pending
// subcommand.
func (a *App) pendingArg(args []string, usage string) (int64, error) {
	if len(args) != 2 {
		return 0, &CommandError{Usage: usage}
	}
	id, err := parseID(args[1])
	if err != nil {
		return 0, &CommandError{Usage: usage, Reason: "id must be a number"}
	}
	if !a.botData.IsPending(id) {
		return 0, &CommandError{Usage: usage, Reason: "this form is not pending"}
	}
	return id, nil
}

// publish posts a pending form to the dating channel and notifies its
// owner.
func (a *App) publish(ctx context.Context, userID int64) error {
	channel := a.botData.Channel()
	if channel == 0 {
		return &CommandError{Usage: "/dating_channel set <id>", Reason: "the dating channel is not set"}
	}
	user, err := a.store.GetUserData(userID)
	if err != nil {
		return err
	}

	var ids []int
	for _, chunk := range user.Form.RenderBody(a.schema, user.Nick(), a.maxLen()) {
		id, err := a.m.Send(channel, data.Outgoing{Text: chunk, Markdown: true})
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}
	if answer, ok := user.Form.Answer(form.TagPhoto); ok {
		albumIDs, err := a.m.SendPhotoAlbum(channel, answer.Files)
		if err != nil {
			return err
		}
		ids = append(ids, albumIDs...)
	}
	if answer, ok := user.Form.Answer(form.TagSoundtrack); ok && answer.Kind == form.KindAudio && len(answer.Files) > 0 {
		id, err := a.m.SendAudio(channel, answer.Files[0])
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	if err := user.Form.Publish(); err != nil {
		return &CommandError{Usage: "/pending post <id>", Reason: err.Error()}
	}
	user.Published = ids
	if err := a.store.UpdateUserData(user); err != nil {
		return err
	}
	a.botData.RemovePending(userID)
	if err := a.saveBotData(); err != nil {
		return err
	}
	logger.Info(ctx, "form", "form.published",
		slog.Int64("user_id", userID), slog.Int64("chat_id", channel),
		slog.Int("pending_count", len(a.botData.Pending())))
	a.notifyUser(ctx, userID, "Your form was published. Congratulations!")
	return nil
}

// returnForm hands a pending form back to its owner with the moderator
// note.
func (a *App) returnForm(ctx context.Context, userID int64, note string) error {
	user, err := a.store.GetUserData(userID)
	if err != nil {
		return err
	}
	if err := user.Form.Reject(note); err != nil {
		return &CommandError{Usage: "/pending ret <id> <note>", Reason: err.Error()}
	}
	if err := a.store.UpdateUserData(user); err != nil {
		return err
	}
	a.botData.RemovePending(userID)
	if err := a.saveBotData(); err != nil {
		return err
	}
	logger.Info(ctx, "form", "form.returned",
		slog.Int64("user_id", userID),
		slog.Int("pending_count", len(a.botData.Pending())))
	a.notifyUser(ctx, userID, "Your form needs changes: "+note)
	return nil
}

// onDatingChannel implements /dating_channel show|set|rm for admins.
func (a *App) onDatingChannel(c tele.Context) error {
	ctx := helpers.Ctx(c)
	const usage = "/dating_channel [show|set <id>|rm]"
	args := c.Args()
	sub := "show"
	if len(args) > 0 {
		sub = strings.ToLower(args[0])
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	switch sub {
	case "show":
		channel := a.botData.Channel()
		if channel == 0 {
			return c.Send("The dating channel is not set.")
		}
		name := strconv.FormatInt(channel, 10)
		if info, err := a.resolver.ResolveChat(channel); err == nil {
			name = data.NewMeta(info).Name
		}
		return c.Send(fmt.Sprintf("Dating channel: %s (%d)", name, channel))
	case "set":
		if len(args) != 2 {
			return reply(c, &CommandError{Usage: usage})
		}
		id, err := parseID(args[1])
		if err != nil {
			return reply(c, &CommandError{Usage: usage, Reason: "id must be a number"})
		}
		info, err := a.resolver.ResolveChat(id)
		if err != nil {
			return reply(c, &CommandError{Usage: usage, Reason: "unknown channel id"})
		}
		a.botData.SetChannel(id)
		if err := a.saveBotData(); err != nil {
			return err
		}
		logger.Info(ctx, "tg", "channel.set", slog.Int64("chat_id", id))
		return c.Send(fmt.Sprintf("Dating channel set to %s (%d).", data.NewMeta(info).Name, id))
	case "rm":
		a.botData.ClearChannel()
		if err := a.saveBotData(); err != nil {
			return err
		}
		logger.Info(ctx, "tg", "channel.cleared")
		return c.Send("Dating channel cleared.")
	default:
		return reply(c, &CommandError{Usage: usage})
	}
}
