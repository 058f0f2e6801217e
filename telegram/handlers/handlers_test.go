package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/polydating/datingbot/config"
	"github.com/polydating/datingbot/conversation"
	"github.com/polydating/datingbot/data"
	"github.com/polydating/datingbot/form"
	"github.com/polydating/datingbot/store"
	"github.com/polydating/datingbot/telegram"
)

// fakeMessenger records outbound traffic with sequential message IDs.
type fakeMessenger struct {
	nextID int
	sent   map[int]sentMsg
	albums map[int64][][]string
}

type sentMsg struct {
	chatID int64
	out    data.Outgoing
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{
		sent:   make(map[int]sentMsg),
		albums: make(map[int64][][]string),
	}
}

func (f *fakeMessenger) Send(chatID int64, out data.Outgoing) (int, error) {
	f.nextID++
	f.sent[f.nextID] = sentMsg{chatID: chatID, out: out}
	return f.nextID, nil
}

func (f *fakeMessenger) Edit(chatID int64, messageID int, out data.Outgoing) (int, error) {
	f.sent[messageID] = sentMsg{chatID: chatID, out: out}
	return messageID, nil
}

func (f *fakeMessenger) Delete(chatID int64, messageID int) error {
	delete(f.sent, messageID)
	return nil
}

func (f *fakeMessenger) SendPhotoAlbum(chatID int64, files []string) ([]int, error) {
	f.albums[chatID] = append(f.albums[chatID], files)
	ids := make([]int, len(files))
	for i := range files {
		f.nextID++
		ids[i] = f.nextID
	}
	return ids, nil
}

func (f *fakeMessenger) SendAudio(chatID int64, file string) (int, error) {
	f.nextID++
	return f.nextID, nil
}

// textsTo returns the text of every live message in a chat.
func (f *fakeMessenger) textsTo(chatID int64) []string {
	var texts []string
	for _, m := range f.sent {
		if m.chatID == chatID {
			texts = append(texts, m.out.Text)
		}
	}
	return texts
}

// fakeResolver knows a fixed set of chats.
type fakeResolver struct {
	known map[int64]data.ChatInfo
}

func (r *fakeResolver) ResolveChat(id int64) (data.ChatInfo, error) {
	if info, ok := r.known[id]; ok {
		return info, nil
	}
	return data.ChatInfo{}, fmt.Errorf("%w: %d", telegram.ErrIncorrectID, id)
}

func newTestApp(t *testing.T) (*App, *fakeMessenger, *fakeResolver) {
	t.Helper()
	schema, err := form.NewSchema([]form.Definition{
		{Tag: "diet", Prompt: "What do you eat?"},
	})
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	cfg := &config.Config{}
	cfg.Telegram.MaxMessageLength = config.DefaultMaxMessageLength

	m := newFakeMessenger()
	res := &fakeResolver{known: make(map[int64]data.ChatInfo)}
	app := New(Options{
		Config:    cfg,
		Store:     store.New(t.TempDir(), false),
		Schema:    schema,
		BotData:   data.NewBotData(),
		Messenger: m,
		Resolver:  res,
	})
	return app, m, res
}

var (
	aliceUser = data.ChatInfo{ID: 5, Username: "alice", FirstName: "Alice"}
	aliceChat = data.ChatInfo{ID: 5, FirstName: "Alice"}
)

func openAlice(t *testing.T, a *App) *session {
	t.Helper()
	s, err := a.openSession(aliceUser, aliceChat)
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	return s
}

func fillForm(t *testing.T, a *App) {
	t.Helper()
	ctx := context.Background()
	s := openAlice(t, a)
	if err := s.jump(ctx, conversation.StateManageForm); err != nil {
		t.Fatalf("jump: %v", err)
	}
	if err := s.enter(ctx, conversation.EventAsk); err != nil {
		t.Fatalf("enter ask: %v", err)
	}
	for _, in := range []form.Input{
		{Text: "Alice"},
		{Text: "29"},
		{Text: "Moscow"},
		{Text: "I like hiking."},
		{Text: "everything"},
		{Photos: []string{"p1", "p2"}},
	} {
		if err := s.applyInput(ctx, in); err != nil {
			t.Fatalf("applyInput(%+v): %v", in, err)
		}
	}
	if err := s.save(); err != nil {
		t.Fatalf("save: %v", err)
	}
}

func TestDialogAnswersAdvanceCursor(t *testing.T) {
	a, _, _ := newTestApp(t)
	ctx := context.Background()

	s := openAlice(t, a)
	if err := s.jump(ctx, conversation.StateManageForm); err != nil {
		t.Fatalf("jump: %v", err)
	}
	if err := s.enter(ctx, conversation.EventAsk); err != nil {
		t.Fatalf("enter: %v", err)
	}
	if q := s.user.CurrentQuestion(a.schema); q.Tag != form.TagName {
		t.Fatalf("first question = %s", q.Tag)
	}
	if err := s.applyInput(ctx, form.Input{Text: "Alice"}); err != nil {
		t.Fatalf("applyInput: %v", err)
	}
	if q := s.user.CurrentQuestion(a.schema); q.Tag != form.TagAge {
		t.Fatalf("cursor did not advance: %s", q.Tag)
	}
}

func TestRejectedAnswerShowsBannerAndKeepsCursor(t *testing.T) {
	a, m, _ := newTestApp(t)
	ctx := context.Background()

	s := openAlice(t, a)
	if err := s.jump(ctx, conversation.StateManageForm); err != nil {
		t.Fatalf("jump: %v", err)
	}
	if err := s.enter(ctx, conversation.EventAsk); err != nil {
		t.Fatalf("enter: %v", err)
	}
	s.user.Question = 1 // age
	if err := s.applyInput(ctx, form.Input{Text: "twenty"}); err != nil {
		t.Fatalf("applyInput: %v", err)
	}
	if s.chat.ErrorMsg == 0 {
		t.Fatal("validation failure did not raise the error banner")
	}
	if s.user.Question != 1 {
		t.Fatalf("rejected answer moved the cursor to %d", s.user.Question)
	}

	// accepted answer clears the banner
	if err := s.applyInput(ctx, form.Input{Text: "29"}); err != nil {
		t.Fatalf("applyInput: %v", err)
	}
	if s.chat.ErrorMsg != 0 {
		t.Fatal("banner survived an accepted answer")
	}
	_ = m
}

func TestBackUsesPersistedTag(t *testing.T) {
	a, _, _ := newTestApp(t)
	ctx := context.Background()

	s := openAlice(t, a)
	if err := s.jump(ctx, conversation.StateManageForm); err != nil {
		t.Fatalf("jump: %v", err)
	}
	if err := s.enter(ctx, conversation.EventAsk); err != nil {
		t.Fatalf("enter: %v", err)
	}
	if err := s.save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	// a fresh session must resume ask_question and back out to the form
	s2 := openAlice(t, a)
	if s2.dlg.State() != conversation.StateAskQuestion {
		t.Fatalf("resumed state = %s", s2.dlg.State())
	}
	if err := s2.back(ctx); err != nil {
		t.Fatalf("back: %v", err)
	}
	if s2.dlg.State() != conversation.StateManageForm {
		t.Fatalf("back landed on %s", s2.dlg.State())
	}

	// an unresolvable stored tag falls back to level selection
	s2.user.Back = "question_37"
	if err := s2.back(ctx); err != nil {
		t.Fatalf("back: %v", err)
	}
	if s2.dlg.State() != conversation.StateSelectLevel {
		t.Fatalf("broken tag landed on %s", s2.dlg.State())
	}
}

func TestSubmitNotifiesAdmins(t *testing.T) {
	a, m, _ := newTestApp(t)
	ctx := context.Background()
	a.botData.AddAdmin(-100)

	fillForm(t, a)
	s := openAlice(t, a)
	if err := s.jump(ctx, conversation.StateManageForm); err != nil {
		t.Fatalf("jump: %v", err)
	}
	if err := s.submit(ctx); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if !a.botData.IsPending(5) {
		t.Fatal("submit did not queue the form")
	}
	if got := s.user.Form.Status(a.schema); got != form.StatusPending {
		t.Fatalf("status after submit = %s", got)
	}
	found := false
	for _, text := range m.textsTo(-100) {
		if strings.Contains(text, "@alice") {
			found = true
		}
	}
	if !found {
		t.Fatalf("admin chat not notified: %v", m.textsTo(-100))
	}
}

func TestPublishFlow(t *testing.T) {
	a, m, _ := newTestApp(t)
	ctx := context.Background()
	const channel = int64(-1001)
	a.botData.SetChannel(channel)

	fillForm(t, a)
	s := openAlice(t, a)
	if err := s.submit(ctx); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := s.save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := a.publish(ctx, 5); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if a.botData.IsPending(5) {
		t.Fatal("published form still pending")
	}
	user, err := a.store.GetUserData(5)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got := user.Form.Status(a.schema); got != form.StatusPublished {
		t.Fatalf("status after publish = %s", got)
	}
	if len(user.Published) == 0 {
		t.Fatal("channel message IDs not recorded")
	}
	if len(m.albums[channel]) != 1 {
		t.Fatalf("channel albums = %v", m.albums[channel])
	}
	notified := false
	for _, text := range m.textsTo(5) {
		if strings.Contains(text, "published") {
			notified = true
		}
	}
	if !notified {
		t.Fatal("user not notified about publication")
	}
}

func TestPublishRequiresChannel(t *testing.T) {
	a, _, _ := newTestApp(t)
	ctx := context.Background()

	fillForm(t, a)
	s := openAlice(t, a)
	if err := s.submit(ctx); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := s.save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	var ce *CommandError
	if err := a.publish(ctx, 5); !errors.As(err, &ce) {
		t.Fatalf("expected CommandError, got %v", err)
	}
}

func TestReturnFormCarriesNote(t *testing.T) {
	a, m, _ := newTestApp(t)
	ctx := context.Background()

	fillForm(t, a)
	s := openAlice(t, a)
	if err := s.submit(ctx); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := s.save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := a.returnForm(ctx, 5, "add a clearer photo"); err != nil {
		t.Fatalf("return: %v", err)
	}
	user, err := a.store.GetUserData(5)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got := user.Form.Status(a.schema); got != form.StatusReturned {
		t.Fatalf("status after return = %s", got)
	}
	if user.Form.Note() != "add a clearer photo" {
		t.Fatalf("note = %q", user.Form.Note())
	}
	if a.botData.IsPending(5) {
		t.Fatal("returned form still pending")
	}

	notified := false
	for _, text := range m.textsTo(5) {
		if strings.Contains(text, "add a clearer photo") {
			notified = true
		}
	}
	if !notified {
		t.Fatal("user notification lacks the note")
	}
}

func TestWithdrawDequeues(t *testing.T) {
	a, _, _ := newTestApp(t)
	ctx := context.Background()

	fillForm(t, a)
	s := openAlice(t, a)
	if err := s.submit(ctx); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := s.withdraw(ctx); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if a.botData.IsPending(5) {
		t.Fatal("withdrawn form still pending")
	}
	if got := s.user.Form.Status(a.schema); got != form.StatusIdle {
		t.Fatalf("status after withdraw = %s", got)
	}
}

func TestStaleWithdrawAndUnpublishRejected(t *testing.T) {
	a, _, _ := newTestApp(t)
	ctx := context.Background()
	a.botData.SetChannel(-1001)

	fillForm(t, a)
	s := openAlice(t, a)
	if err := s.submit(ctx); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := s.save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	// a stale "Remove from channel" press on a pending form must not fire
	if err := s.unpublish(ctx); err != nil {
		t.Fatalf("unpublish: %v", err)
	}
	if s.chat.ErrorMsg == 0 {
		t.Fatal("stale unpublish did not raise the error banner")
	}
	if got := s.user.Form.Status(a.schema); got != form.StatusPending {
		t.Fatalf("status after stale unpublish = %s", got)
	}
	if !a.botData.IsPending(5) {
		t.Fatal("stale unpublish dequeued the form")
	}

	if err := a.publish(ctx, 5); err != nil {
		t.Fatalf("publish: %v", err)
	}

	// a stale "Withdraw" press on a published form must not orphan the
	// channel messages
	s2 := openAlice(t, a)
	if err := s2.withdraw(ctx); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if got := s2.user.Form.Status(a.schema); got != form.StatusPublished {
		t.Fatalf("status after stale withdraw = %s", got)
	}
	if len(s2.user.Published) == 0 {
		t.Fatal("stale withdraw dropped the channel message IDs")
	}
}

func TestShowMediaWithoutFiles(t *testing.T) {
	a, _, _ := newTestApp(t)
	ctx := context.Background()

	s := openAlice(t, a)
	if err := s.jump(ctx, conversation.StateManageForm); err != nil {
		t.Fatalf("jump: %v", err)
	}
	if err := s.enter(ctx, conversation.EventAsk); err != nil {
		t.Fatalf("enter: %v", err)
	}
	if err := s.user.Form.SetAnswer(a.schema, form.TagSoundtrack, form.Input{Audio: "a1"}); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	// simulate a hand-edited record: kind audio, file ref gone
	ans, _ := s.user.Form.Answer(form.TagSoundtrack)
	ans.Files = nil

	s.user.Question = a.schema.Len() - 1 // soundtrack
	if err := s.showMedia(); err != nil {
		t.Fatalf("showMedia: %v", err)
	}
	if s.chat.ErrorMsg == 0 {
		t.Fatal("fileless media did not raise the error banner")
	}
}

func TestAdminListSelfHealing(t *testing.T) {
	a, _, res := newTestApp(t)
	ctx := context.Background()
	a.botData.AddAdmin(1)
	a.botData.AddAdmin(2)
	res.known[1] = data.ChatInfo{ID: 1, Username: "mod"}

	text := a.adminListText(ctx)
	if !strings.Contains(text, "mod (1)") {
		t.Fatalf("known admin missing:\n%s", text)
	}
	if strings.Contains(text, "(2)") {
		t.Fatalf("unknown admin still listed:\n%s", text)
	}
	if a.botData.IsAdmin(2) {
		t.Fatal("unknown admin not dropped from the record")
	}
}
