// Package handlers implements the bot's behavior: the private form dialog,
// the moderation commands and channel publication. Telebot handlers stay
// thin; dialog logic runs on sessions that talk to the transport through
// the data.Messenger port.
package handlers

import (
	"sync"

	tele "gopkg.in/telebot.v4"

	"github.com/polydating/datingbot/config"
	"github.com/polydating/datingbot/data"
	"github.com/polydating/datingbot/form"
	"github.com/polydating/datingbot/store"
	"github.com/polydating/datingbot/telegram"
	"github.com/polydating/datingbot/telegram/commands"
)

// Callback keys.
const (
	cbLevelHelp    = "level_help"
	cbLevelForm    = "level_form"
	cbFormFill     = "form_fill"
	cbFormSubmit   = "form_submit"
	cbFormWithdraw = "form_withdraw"
	cbFormDelete   = "form_delete"
	cbFormShow     = "form_show"
	cbFormHide     = "form_hide"
	cbQuestionPrev = "q_prev"
	cbQuestionNext = "q_next"
	cbAnswerDelete = "q_delete"
	cbAnswerShow   = "q_show"
	cbBack         = "back"
	cbPendingShow  = "pending_show"
)

// convName is the conversation namespace in the store.
const convName = "dialog"

// Options carries the application dependencies.
type Options struct {
	Config    *config.Config
	Store     *store.Store
	Schema    *form.Schema
	BotData   *data.BotData
	Messenger data.Messenger
	Resolver  data.Resolver
}

// App owns the wired bot behavior.
type App struct {
	cfg      *config.Config
	store    *store.Store
	schema   *form.Schema
	botData  *data.BotData
	m        data.Messenger
	resolver data.Resolver
	albums   *telegram.AlbumCollector

	// mu serializes dialog mutations; album batches arrive on timer
	// goroutines.
	mu sync.Mutex
}

// New builds the application.
func New(opts Options) *App {
	return &App{
		cfg:      opts.Config,
		store:    opts.Store,
		schema:   opts.Schema,
		botData:  opts.BotData,
		m:        opts.Messenger,
		resolver: opts.Resolver,
		albums:   telegram.NewAlbumCollector(0),
	}
}

func (a *App) maxLen() int {
	if a.cfg != nil && a.cfg.Telegram.MaxMessageLength > 0 {
		return a.cfg.Telegram.MaxMessageLength
	}
	return config.DefaultMaxMessageLength
}

// AdminGate guards admin-only commands.
func (a *App) AdminGate(c tele.Context) bool {
	sender := c.Sender()
	if sender == nil {
		return false
	}
	if a.botData.IsAdmin(sender.ID) {
		return true
	}
	// commands issued inside an admin chat count as admin commands
	return c.Chat() != nil && a.botData.IsAdmin(c.Chat().ID)
}

// OwnerGate guards owner-only commands.
func (a *App) OwnerGate(c tele.Context) bool {
	return c.Sender() != nil && c.Sender().ID == a.botData.Owner()
}

// Register wires commands, callbacks and fallbacks into the registry.
func (a *App) Register(reg *telegram.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.onStart,
		Description: "start the form dialog",
	})
	reg.RegisterCommand("/help", commands.Command{
		Handler:     a.onHelp,
		Description: "how the bot works",
	})
	reg.RegisterCommand("/stop", commands.Command{
		Handler:     a.onStop,
		Description: "stop the dialog",
	})
	reg.RegisterCommand("/admins", commands.Command{
		Handler:     a.onAdmins,
		Description: "manage the admin list",
		OwnerOnly:   true,
		Hidden:      true,
	})
	reg.RegisterCommand("/pending", commands.Command{
		Handler:     a.onPending,
		Description: "review pending forms",
		AdminOnly:   true,
		Hidden:      true,
	})
	reg.RegisterCommand("/dating_channel", commands.Command{
		Handler:     a.onDatingChannel,
		Description: "manage the dating channel",
		AdminOnly:   true,
		Hidden:      true,
	})

	_ = reg.RegisterCallback(cbLevelHelp, a.dialogCallback(cbLevelHelp))
	_ = reg.RegisterCallback(cbLevelForm, a.dialogCallback(cbLevelForm))
	_ = reg.RegisterCallback(cbFormFill, a.dialogCallback(cbFormFill))
	_ = reg.RegisterCallback(cbFormSubmit, a.dialogCallback(cbFormSubmit))
	_ = reg.RegisterCallback(cbFormWithdraw, a.dialogCallback(cbFormWithdraw))
	_ = reg.RegisterCallback(cbFormDelete, a.dialogCallback(cbFormDelete))
	_ = reg.RegisterCallback(cbFormShow, a.dialogCallback(cbFormShow))
	_ = reg.RegisterCallback(cbQuestionPrev, a.dialogCallback(cbQuestionPrev))
	_ = reg.RegisterCallback(cbQuestionNext, a.dialogCallback(cbQuestionNext))
	_ = reg.RegisterCallback(cbAnswerDelete, a.dialogCallback(cbAnswerDelete))
	_ = reg.RegisterCallback(cbAnswerShow, a.dialogCallback(cbAnswerShow))
	_ = reg.RegisterCallback(cbBack, a.dialogCallback(cbBack))
	_ = reg.RegisterCallback(cbFormHide, a.onFormHide)
	_ = reg.RegisterCallback(cbPendingShow, a.onPendingShow)

	reg.SetTextFallback(a.onText)
	reg.SetMediaFallback(a.onMedia)
}

// saveBotData persists the singleton record after a mutation.
func (a *App) saveBotData() error {
	return a.store.UpdateBotData(a.botData)
}
