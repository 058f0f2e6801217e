package handlers

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/polydating/datingbot/conversation"
	"github.com/polydating/datingbot/data"
	"github.com/polydating/datingbot/form"
	"github.com/polydating/datingbot/logger"
	"github.com/polydating/datingbot/telegram/callbacks"
	"github.com/polydating/datingbot/telegram/helpers"
)

func senderInfo(c tele.Context) data.ChatInfo {
	u := c.Sender()
	if u == nil {
		return data.ChatInfo{}
	}
	return data.ChatInfo{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

func chatInfo(c tele.Context) data.ChatInfo {
	ch := c.Chat()
	if ch == nil {
		return data.ChatInfo{}
	}
	return data.ChatInfo{
		ID:        ch.ID,
		Username:  ch.Username,
		Title:     ch.Title,
		FirstName: ch.FirstName,
		LastName:  ch.LastName,
	}
}

func isPrivate(c tele.Context) bool {
	return c.Chat() != nil && c.Chat().Type == tele.ChatPrivate
}

// onStart handles /start: deep-link authentication first, then the dialog.
func (a *App) onStart(c tele.Context) error {
	ctx := helpers.Ctx(c)
	payload := strings.TrimSpace(c.Message().Payload)
	if payload != "" {
		a.handleDeepLink(ctx, c, payload)
	}
	if !isPrivate(c) {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	s, err := a.openSession(senderInfo(c), chatInfo(c))
	if err != nil {
		return err
	}
	if err := s.jump(ctx, conversation.StateSelectLevel); err != nil {
		return err
	}
	return s.save()
}

// handleDeepLink consumes a /start token: in private chat it claims
// ownership, in a group it enrolls the chat as an admin chat.
func (a *App) handleDeepLink(ctx context.Context, c tele.Context, token string) {
	if isPrivate(c) {
		err := a.botData.SetOwner(c.Sender().ID, token)
		switch {
		case err == nil:
			if err := a.saveBotData(); err != nil {
				logger.Error(ctx, "tg", "botdata.save_failed", slog.String("err", err.Error()))
				return
			}
			logger.Info(ctx, "tg", "owner.claimed", slog.Int64("user_id", c.Sender().ID))
			_ = c.Send("You are the bot owner now.")
		case errors.Is(err, data.ErrOwnerSet):
			_ = c.Send("The bot already has an owner.")
		default:
			logger.Warn(ctx, "tg", "deeplink.rejected", slog.String("err", err.Error()))
		}
		return
	}

	if !a.botData.VerifyToken(token) {
		logger.Warn(ctx, "tg", "deeplink.rejected", slog.Int64("chat_id", c.Chat().ID))
		return
	}
	if a.botData.AddAdmin(c.Chat().ID) {
		if err := a.saveBotData(); err != nil {
			logger.Error(ctx, "tg", "botdata.save_failed", slog.String("err", err.Error()))
			return
		}
		logger.Info(ctx, "tg", "admin_chat.added", slog.Int64("chat_id", c.Chat().ID))
		_ = c.Send("This chat now receives moderation notifications.")
	}
}

// onHelp opens the help screen inside the dialog.
func (a *App) onHelp(c tele.Context) error {
	if !isPrivate(c) {
		return nil
	}
	ctx := helpers.Ctx(c)
	a.mu.Lock()
	defer a.mu.Unlock()
	s, err := a.openSession(senderInfo(c), chatInfo(c))
	if err != nil {
		return err
	}
	if err := s.jump(ctx, conversation.StateShowHelp); err != nil {
		return err
	}
	return s.save()
}

// onStop ends the dialog; the cursor and answers stay on the user record.
func (a *App) onStop(c tele.Context) error {
	if !isPrivate(c) {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	s, err := a.openSession(senderInfo(c), chatInfo(c))
	if err != nil {
		return err
	}
	if err := s.end(); err != nil {
		return err
	}
	return c.Send("Dialog closed. Send /start to continue any time.")
}

// dialogCallback routes one inline button press into the session.
func (a *App) dialogCallback(key string) tele.HandlerFunc {
	return func(c tele.Context) error {
		if !isPrivate(c) {
			return c.Respond(&tele.CallbackResponse{})
		}
		ctx := helpers.Ctx(c)

		a.mu.Lock()
		s, err := a.openSession(senderInfo(c), chatInfo(c))
		if err == nil {
			err = s.handleAction(ctx, key)
			if err == nil {
				err = s.save()
			}
		}
		a.mu.Unlock()

		if err != nil {
			logger.Error(ctx, "tg", "callback.failed",
				slog.String("handler", key), slog.String("err", err.Error()))
			return c.Respond(&tele.CallbackResponse{Text: "Something went wrong"})
		}
		return c.Respond(&tele.CallbackResponse{})
	}
}

func (s *session) handleAction(ctx context.Context, key string) error {
	switch key {
	case cbLevelHelp:
		return s.jump(ctx, conversation.StateShowHelp)
	case cbLevelForm:
		return s.jump(ctx, conversation.StateManageForm)
	case cbFormFill:
		return s.enter(ctx, conversation.EventAsk)
	case cbFormSubmit:
		return s.submit(ctx)
	case cbFormWithdraw:
		return s.withdraw(ctx)
	case cbFormDelete:
		return s.unpublish(ctx)
	case cbFormShow:
		return s.showForm()
	case cbQuestionPrev:
		s.user.ShiftQuestion(s.app.schema, -1)
		return s.render()
	case cbQuestionNext:
		s.user.ShiftQuestion(s.app.schema, 1)
		return s.render()
	case cbAnswerDelete:
		return s.deleteAnswer()
	case cbAnswerShow:
		return s.showMedia()
	case cbBack:
		return s.back(ctx)
	default:
		return nil
	}
}

// onText feeds replies into the active question; in group chats it only
// notes that the dialog was pushed out of view.
func (a *App) onText(c tele.Context) error {
	ctx := helpers.Ctx(c)
	if !isPrivate(c) {
		return a.markChatStale(chatInfo(c))
	}
	return a.ingestInput(ctx, senderInfo(c), chatInfo(c), form.Input{Text: c.Text()})
}

// onMedia feeds photos and audio into the active question. Album photos
// are batched before they reach the form.
func (a *App) onMedia(c tele.Context) error {
	ctx := helpers.Ctx(c)
	if !isPrivate(c) {
		return a.markChatStale(chatInfo(c))
	}
	msg := c.Message()
	userInfo, chInfo := senderInfo(c), chatInfo(c)
	switch {
	case msg.Photo != nil:
		a.albums.Add(msg.AlbumID, msg.Photo.FileID, func(files []string) {
			if err := a.ingestInput(context.Background(), userInfo, chInfo, form.Input{Photos: files}); err != nil {
				logger.Error(ctx, "form", "album.ingest_failed", slog.String("err", err.Error()))
			}
		})
		return nil
	case msg.Audio != nil:
		return a.ingestInput(ctx, userInfo, chInfo, form.Input{Audio: msg.Audio.FileID})
	}
	return nil
}

// ingestInput applies one inbound answer to the user's active question.
func (a *App) ingestInput(ctx context.Context, userInfo, chInfo data.ChatInfo, in form.Input) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	s, err := a.openSession(userInfo, chInfo)
	if err != nil {
		return err
	}
	if s.dlg.State() != conversation.StateAskQuestion {
		// input outside the question dialog only pushes the slots down
		s.chat.NeedsUpdate = true
		return s.app.store.UpdateChatData(s.chat)
	}
	s.chat.NeedsUpdate = true
	if err := s.applyInput(ctx, in); err != nil {
		return err
	}
	return s.save()
}

// markChatStale records foreign traffic in a chat the bot has messages in.
func (a *App) markChatStale(chInfo data.ChatInfo) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	chat, err := a.store.GetChatData(chInfo.ID)
	if errors.Is(err, data.ErrMissingData) {
		return nil
	}
	if err != nil {
		return err
	}
	if chat.NeedsUpdate {
		return nil
	}
	chat.NeedsUpdate = true
	return a.store.UpdateChatData(chat)
}

// onFormHide removes a displayed form copy from the chat it was shown in.
func (a *App) onFormHide(c tele.Context) error {
	userID, err := callbacks.PayloadInt64(c)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Broken button"})
	}
	a.mu.Lock()
	chat, err := a.store.GetChatData(c.Chat().ID)
	if err == nil {
		chat.DeleteForm(a.m, userID)
		err = a.store.UpdateChatData(chat)
	}
	a.mu.Unlock()
	if err != nil && !errors.Is(err, data.ErrMissingData) {
		return err
	}
	return c.Respond(&tele.CallbackResponse{})
}

// onPendingShow displays a pending form inside an admin chat.
func (a *App) onPendingShow(c tele.Context) error {
	if !a.AdminGate(c) {
		return c.Respond(&tele.CallbackResponse{Text: "Admins only"})
	}
	userID, err := callbacks.PayloadInt64(c)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Broken button"})
	}

	a.mu.Lock()
	err = a.showFormIn(chatInfo(c), userID)
	a.mu.Unlock()
	if err != nil {
		if errors.Is(err, data.ErrMissingData) {
			return c.Respond(&tele.CallbackResponse{Text: "Form not found"})
		}
		return err
	}
	return c.Respond(&tele.CallbackResponse{})
}

// showFormIn renders a user's form into an arbitrary chat.
func (a *App) showFormIn(chInfo data.ChatInfo, userID int64) error {
	user, err := a.store.GetUserData(userID)
	if err != nil {
		return err
	}
	chat, err := a.store.GetChatData(chInfo.ID)
	if errors.Is(err, data.ErrMissingData) {
		chat = data.NewChatData(chInfo)
	} else if err != nil {
		return err
	}
	hide := &data.Button{
		Text:   "Hide",
		Unique: cbFormHide,
		Data:   strconv.FormatInt(userID, 10),
	}
	if err := chat.ShowForm(a.m, a.schema, user, a.maxLen(), hide); err != nil {
		return err
	}
	return a.store.UpdateChatData(chat)
}
