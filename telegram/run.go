package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/polydating/datingbot/config"
	"github.com/polydating/datingbot/logger"
	"github.com/polydating/datingbot/telegram/callbacks"
	"github.com/polydating/datingbot/telegram/commands"
	"github.com/polydating/datingbot/telegram/middleware"
)

// Middleware describes a global bot middleware to be registered via bot.Use.
type Middleware struct {
	Name string
	Use  func(next tele.HandlerFunc) tele.HandlerFunc
}

// Route declares a single bot handler bound to an arbitrary endpoint.
// Endpoint values are passed directly to tele.Bot.Handle.
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// RunOptions controls the behaviour of RunTelegram.
type RunOptions struct {
	Config   *config.Config
	Registry *Registry

	Middlewares []Middleware
	Routes      []Route

	// AdminGate and OwnerGate guard commands flagged AdminOnly/OwnerOnly.
	// A nil gate lets everything through.
	AdminGate func(c tele.Context) bool
	OwnerGate func(c tele.Context) bool

	OnStart func(ctx context.Context, bot *tele.Bot) error
	OnStop  func(ctx context.Context, bot *tele.Bot) error
}

// DefaultMiddlewares builds the shared middleware chain.
func DefaultMiddlewares() []Middleware {
	return []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
		{Name: "logger", Use: middleware.LoggerMiddleware},
	}
}

// RunTelegram composes and runs the bot until the provided context is done.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Config == nil {
		return fmt.Errorf("telegram: nil config provided")
	}

	cfg := opts.Config
	reg := opts.Registry
	if reg == nil {
		reg = NewRegistry()
	}

	poller := BuildPoller(PollerOptions{
		LongPollTimeoutSeconds: cfg.Telegram.LongPollTimeoutSeconds,
	})

	buildStart := time.Now()
	bot, err := tele.NewBot(tele.Settings{
		Token:  cfg.Telegram.Token,
		Poller: poller,
	})
	if err != nil {
		return fmt.Errorf("telegram: bot initialization failed: %w", err)
	}
	logger.Info(ctx, "tg", "mode",
		slog.String("mode", "polling"),
		slog.Int("timeout_seconds", cfg.Telegram.LongPollTimeoutSeconds),
		slog.Duration("duration", time.Since(buildStart)),
	)

	for _, mw := range opts.Middlewares {
		if mw.Use == nil {
			continue
		}
		bot.Use(mw.Use)
	}

	bindRegistry(bot, reg, opts)

	for _, route := range opts.Routes {
		if route.Endpoint == nil || route.Handler == nil {
			continue
		}
		bot.Handle(route.Endpoint, route.Handler)
	}

	InitBotCommands(bot, reg)

	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, bot); err != nil {
			return err
		}
	}

	runDone := make(chan struct{})
	go func() {
		bot.Start()
		close(runDone)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		bot.Stop()
		<-runDone
		runErr = ctx.Err()
	case <-runDone:
	}

	if opts.OnStop != nil {
		if err := opts.OnStop(context.Background(), bot); err != nil {
			return err
		}
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

func bindRegistry(bot *tele.Bot, reg *Registry, opts RunOptions) {
	for name, cmd := range reg.Commands() {
		bot.Handle(name, guardCommand(cmd, opts))
		for _, alias := range cmd.Aliases {
			if alias == "" {
				continue
			}
			if alias[0] != '/' {
				alias = "/" + alias
			}
			bot.Handle(alias, guardCommand(cmd, opts))
		}
	}

	bot.Handle(tele.OnCallback, func(c tele.Context) error {
		key := callbacks.CallbackKey(c)
		if h, ok := reg.GetCallback(key); ok {
			return h(c)
		}
		return reg.CallbackNotFound()(c)
	})

	if h := reg.TextFallback(); h != nil {
		bot.Handle(tele.OnText, h)
	}
	if h := reg.MediaFallback(); h != nil {
		bot.Handle(tele.OnPhoto, h)
		bot.Handle(tele.OnAudio, h)
	}
}

func guardCommand(cmd commands.Command, opts RunOptions) tele.HandlerFunc {
	return func(c tele.Context) error {
		if cmd.OwnerOnly && opts.OwnerGate != nil && !opts.OwnerGate(c) {
			return nil
		}
		if cmd.AdminOnly && opts.AdminGate != nil && !opts.AdminGate(c) {
			return nil
		}
		return cmd.Handler(c)
	}
}

