// Package bootstrap initializes the infrastructure the bot runs on:
// logging, the persistence engine, the form schema and the singleton bot
// record.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/polydating/datingbot/config"
	"github.com/polydating/datingbot/data"
	"github.com/polydating/datingbot/form"
	"github.com/polydating/datingbot/logger"
	"github.com/polydating/datingbot/store"
)

// Options control the bootstrap pipeline.
type Options struct {
	Config *config.Config

	LoggerInit func(*config.Config) error
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	Store   *store.Store
	Schema  *form.Schema
	BotData *data.BotData
}

// Run initializes the logger, opens the store, loads the question schema
// and loads or mints the bot record.
func Run(opts Options) (*Result, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.Init
	}
	if err := loggerInit(cfg); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	st := store.New(cfg.Storage.PersistDir, cfg.Storage.OnFlush)

	schema, err := form.LoadSchemaFile(cfg.Storage.FormFile)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: schema load failed: %w", err)
	}
	logger.Info(context.Background(), "form", "schema.loaded",
		slog.String("path", cfg.Storage.FormFile),
		slog.Int("count", schema.Len()),
	)

	botData, err := st.GetBotData()
	switch {
	case errors.Is(err, data.ErrMissingData):
		botData = data.NewBotData()
		if err := st.UpdateBotData(botData); err != nil {
			return nil, fmt.Errorf("bootstrap: bot record init failed: %w", err)
		}
		logger.Info(context.Background(), "store", "botdata.created")
	case err != nil:
		return nil, fmt.Errorf("bootstrap: bot record load failed: %w", err)
	}

	return &Result{Store: st, Schema: schema, BotData: botData}, nil
}
