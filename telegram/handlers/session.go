package handlers

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/polydating/datingbot/conversation"
	"github.com/polydating/datingbot/data"
	"github.com/polydating/datingbot/form"
	"github.com/polydating/datingbot/logger"
	"github.com/polydating/datingbot/store"
)

// session is one user's dialog in one chat, loaded from the store and
// saved back after every handled update.
type session struct {
	app  *App
	user *data.UserData
	chat *data.ChatData
	dlg  *conversation.Dialog
}

func (a *App) openSession(userInfo, chatInfo data.ChatInfo) (*session, error) {
	user, err := a.store.GetUserData(userInfo.ID)
	switch {
	case errors.Is(err, data.ErrMissingData):
		user = data.NewUserData(userInfo)
	case err != nil:
		return nil, err
	default:
		// identity drifts; keep the record fresh
		if userInfo.Username != "" {
			user.Username = userInfo.Username
		}
	}

	chat, err := a.store.GetChatData(chatInfo.ID)
	switch {
	case errors.Is(err, data.ErrMissingData):
		chat = data.NewChatData(chatInfo)
	case err != nil:
		return nil, err
	}

	state, _, err := a.store.GetConversation(convName, a.convKey(chatInfo.ID, userInfo.ID))
	if err != nil {
		return nil, err
	}

	return &session{
		app:  a,
		user: user,
		chat: chat,
		dlg:  conversation.Resume(state),
	}, nil
}

func (a *App) convKey(chatID, userID int64) store.ConvKey {
	return store.ConvKey{ChatID: chatID, UserID: userID}
}

// save persists the session: user record, chat record and dialog position.
func (s *session) save() error {
	if err := s.app.store.UpdateUserData(s.user); err != nil {
		return err
	}
	if err := s.app.store.UpdateChatData(s.chat); err != nil {
		return err
	}
	return s.app.store.UpdateConversation(convName,
		s.app.convKey(s.chat.ID, s.user.ID), s.dlg.State())
}

// end closes the dialog: slot messages go away and the stored conversation
// entry is dropped. The question cursor stays on the user record.
func (s *session) end() error {
	s.chat.ClearError(s.app.m)
	s.chat.ClearForms(s.app.m)
	if err := s.chat.PrintMessages(s.app.m); err != nil {
		return err
	}
	if err := s.app.store.UpdateUserData(s.user); err != nil {
		return err
	}
	if err := s.app.store.UpdateChatData(s.chat); err != nil {
		return err
	}
	return s.app.store.UpdateConversation(convName,
		s.app.convKey(s.chat.ID, s.user.ID), "")
}

// enter fires a dialog event and performs the state-entry ritual.
func (s *session) enter(ctx context.Context, event string) error {
	if err := s.dlg.Fire(ctx, event); err != nil {
		return err
	}
	return s.arrive(ctx)
}

// jump moves straight to a state, used by commands and notifications that
// are valid from anywhere.
func (s *session) jump(ctx context.Context, state string) error {
	s.dlg = conversation.Resume(state)
	return s.arrive(ctx)
}

// back returns to the persisted back tag; unresolvable tags land on level
// selection.
func (s *session) back(ctx context.Context) error {
	target := s.user.Back
	if !conversation.ValidState(target) {
		target = conversation.StateSelectLevel
	}
	return s.jump(ctx, target)
}

// arrive is the state-entry ritual: record the back tag, drop the error
// banner and displayed form copies, re-render the dialog slots.
func (s *session) arrive(ctx context.Context) error {
	s.user.Back = s.dlg.Back()
	s.chat.ClearError(s.app.m)
	s.chat.ClearForms(s.app.m)
	logger.Debug(ctx, "conv", "state.enter",
		slog.String("state", s.dlg.State()),
		slog.Int64("user_id", s.user.ID),
	)
	return s.render()
}

// applyInput validates one inbound reply against the current question.
// Validation failures become the error banner; accepted answers advance the
// cursor.
func (s *session) applyInput(ctx context.Context, in form.Input) error {
	q := s.user.CurrentQuestion(s.app.schema)
	if err := s.user.Form.SetAnswer(s.app.schema, q.Tag, in); err != nil {
		if form.IsValidation(err) {
			logger.Debug(ctx, "form", "answer.rejected",
				slog.String("question", q.Tag),
				slog.String("err", err.Error()),
			)
			return s.chat.PrintError(s.app.m, err.Error())
		}
		return err
	}
	logger.Info(ctx, "form", "answer.accepted",
		slog.String("question", q.Tag),
		slog.Int64("user_id", s.user.ID),
	)
	s.user.ShiftQuestion(s.app.schema, 1)
	s.chat.ClearError(s.app.m)
	return s.render()
}

// submit moves the form into review and alerts the admin chats.
func (s *session) submit(ctx context.Context) error {
	if err := s.user.Form.Submit(s.app.schema); err != nil {
		return s.chat.PrintError(s.app.m, err.Error())
	}
	s.app.botData.AddPending(s.user.ID)
	if err := s.app.saveBotData(); err != nil {
		return err
	}
	logger.Info(ctx, "form", "form.submitted", slog.Int64("user_id", s.user.ID),
		slog.Int("pending_count", len(s.app.botData.Pending())))
	s.app.notifyAdmins("New form from "+s.user.Nick()+" awaits review.", s.user.ID)
	return s.render()
}

// withdraw takes the form out of review. Stale buttons may fire this from
// any status; only PENDING forms can be withdrawn.
func (s *session) withdraw(ctx context.Context) error {
	if s.user.Form.Status(s.app.schema) != form.StatusPending {
		return s.chat.PrintError(s.app.m, "the form is not under review")
	}
	s.user.Form.Withdraw()
	if s.app.botData.RemovePending(s.user.ID) {
		if err := s.app.saveBotData(); err != nil {
			return err
		}
	}
	logger.Info(ctx, "form", "form.withdrawn", slog.Int64("user_id", s.user.ID))
	return s.render()
}

// unpublish removes the posted form from the channel and reverts the
// status. Only PUBLISHED forms qualify; anything else is a stale button.
func (s *session) unpublish(ctx context.Context) error {
	if s.user.Form.Status(s.app.schema) != form.StatusPublished {
		return s.chat.PrintError(s.app.m, "the form is not published")
	}
	channel := s.app.botData.Channel()
	for _, id := range s.user.Published {
		if err := s.app.m.Delete(channel, id); err != nil {
			logger.Warn(ctx, "tg", "channel.delete_failed",
				slog.Int64("chat_id", channel), slog.String("err", err.Error()))
		}
	}
	s.user.Published = nil
	s.user.Form.Withdraw()
	logger.Info(ctx, "form", "form.unpublished", slog.Int64("user_id", s.user.ID))
	return s.render()
}

// showForm displays the user's own form in the dialog chat.
func (s *session) showForm() error {
	hide := &data.Button{
		Text:   "Hide",
		Unique: cbFormHide,
		Data:   strconv.FormatInt(s.user.ID, 10),
	}
	return s.chat.ShowForm(s.app.m, s.app.schema, s.user, s.app.maxLen(), hide)
}

// showMedia previews the current question's stored media.
func (s *session) showMedia() error {
	q := s.user.CurrentQuestion(s.app.schema)
	a, ok := s.user.Form.Answer(q.Tag)
	if !ok {
		return s.chat.PrintError(s.app.m, "nothing to show yet")
	}
	switch {
	case a.Kind == form.KindPhotos && len(a.Files) > 0:
		ids, err := s.app.m.SendPhotoAlbum(s.chat.ID, a.Files)
		if err != nil {
			return err
		}
		s.chat.AddFormMessages(s.user.ID, ids...)
	case a.Kind == form.KindAudio && len(a.Files) > 0:
		id, err := s.app.m.SendAudio(s.chat.ID, a.Files[0])
		if err != nil {
			return err
		}
		s.chat.AddFormMessages(s.user.ID, id)
	default:
		return s.chat.PrintError(s.app.m, "this answer has no media")
	}
	return nil
}

// deleteAnswer drops the current question's answer.
func (s *session) deleteAnswer() error {
	q := s.user.CurrentQuestion(s.app.schema)
	s.user.Form.DeleteAnswer(q.Tag)
	return s.render()
}
