package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/polydating/datingbot/bootstrap"
	"github.com/polydating/datingbot/buildinfo"
	"github.com/polydating/datingbot/config"
	"github.com/polydating/datingbot/logger"
	"github.com/polydating/datingbot/store"
	"github.com/polydating/datingbot/telegram"
	"github.com/polydating/datingbot/telegram/handlers"
)

const defaultConfigPath = "config/config.yaml"

func main() {
	if err := run(); err != nil {
		log.Fatalf("datingbot: %v", err)
	}
}

func run() error {
	log.Printf("datingbot %s (%s)", buildinfo.Version, buildinfo.Commit)

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = defaultConfigPath
	}
	log.Printf("loading config: %s", cfgPath)
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	boot, err := bootstrap.Run(bootstrap.Options{Config: cfg})
	if err != nil {
		return err
	}
	defer func() {
		if err := logger.Shutdown(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()

	sender := telegram.NewSender()
	app := handlers.New(handlers.Options{
		Config:    cfg,
		Store:     boot.Store,
		Schema:    boot.Schema,
		BotData:   boot.BotData,
		Messenger: sender,
		Resolver:  sender,
	})

	reg := telegram.NewRegistry()
	app.Register(reg)

	startedAt := time.Now()
	opts := telegram.RunOptions{
		Config:      cfg,
		Registry:    reg,
		Middlewares: telegram.DefaultMiddlewares(),
		AdminGate:   app.AdminGate,
		OwnerGate:   app.OwnerGate,
		OnStart: func(ctx context.Context, bot *tele.Bot) error {
			sender.Bind(bot)
			logger.Info(ctx, "app", "ready",
				slog.Duration("duration", time.Since(startedAt)),
			)
			// the deep link authenticates the owner and admin chats
			logger.Info(ctx, "app", "deep_link",
				slog.String("payload", boot.BotData.DeepLink(bot.Me.Username)),
			)
			return nil
		},
		OnStop: func(ctx context.Context, bot *tele.Bot) error {
			logger.Info(ctx, "app", "shutdown")
			return flushStore(boot.Store)
		},
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return telegram.RunTelegram(ctx, opts)
}

func flushStore(st *store.Store) error {
	if err := st.Flush(); err != nil {
		logger.Error(context.Background(), "store", "flush.failed",
			slog.String("err", err.Error()),
		)
		return err
	}
	return nil
}
