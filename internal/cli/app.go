package cli

import (
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/time/rate"

	"github.com/msolovyev/chanrelay/internal/config"
	"github.com/msolovyev/chanrelay/internal/operator"
	"github.com/msolovyev/chanrelay/internal/relay"
	"github.com/msolovyev/chanrelay/internal/source"
	"github.com/msolovyev/chanrelay/internal/state"
	"github.com/msolovyev/chanrelay/internal/store"
	"github.com/msolovyev/chanrelay/internal/telegram"
)

// app wires the shared dependencies a command needs: config, persisted
// state, blacklist store, and the Telegram client.
type app struct {
	cfg    *config.Config
	st     *state.State
	db     *store.Store
	tg     *telegram.Client
	reader *source.CollectorReader
	logger *slog.Logger
}

func newApp() (*app, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := store.Open(cfg.Storage.BlacklistPath)
	if err != nil {
		return nil, fmt.Errorf("open blacklist store: %w", err)
	}

	a := &app{
		cfg:    cfg,
		st:     state.Load(cfg.Storage.StatePath, cfg.Storage.MaxLedgerEntries, logger),
		db:     db,
		logger: logger,
	}

	a.tg = telegram.New(telegram.Config{
		Token:    cfg.Telegram.Token,
		SendRate: rate.Limit(cfg.Publish.SendRate),
	})

	if cfg.Telegram.Collector != "" {
		a.reader, err = source.NewCollectorReader(
			cfg.Telegram.Collector,
			cfg.Telegram.PythonPath,
			cfg.Telegram.SessionDir,
		)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create collector reader: %w", err)
		}
	}

	return a, nil
}

func (a *app) close() {
	_ = a.db.Close()
}

// requireToken rejects commands that talk to the Bot API when no token is
// configured.
func (a *app) requireToken() error {
	if a.cfg.Telegram.Token == "" {
		return fmt.Errorf("bot token not set (export %s)", a.cfg.Telegram.TokenEnv)
	}
	return nil
}

func (a *app) loop() *relay.Loop {
	var channels source.ChannelReader
	if a.reader != nil {
		channels = a.reader
	}
	return relay.New(relay.Options{
		State:        a.st,
		Blacklist:    a.db,
		Publisher:    a.tg,
		Sites:        source.NewSiteScanner(a.cfg.Scan.SiteTimeout.Duration),
		Feeds:        source.NewFeedScanner(a.cfg.Scan.SiteTimeout.Duration),
		Channels:     channels,
		Logger:       a.logger,
		Interval:     a.cfg.Scan.Interval.Duration,
		Winddown:     a.cfg.Scan.Winddown.Duration,
		ChannelLimit: a.cfg.Scan.ChannelLimit,
		Signature:    a.cfg.Publish.Signature,
	})
}

func (a *app) controller() *operator.Controller {
	var channels operator.ChannelResolver
	if a.reader != nil {
		channels = a.reader
	}
	return operator.New(operator.Options{
		State:          a.st,
		Blacklist:      a.db,
		Messenger:      a.tg,
		Channels:       channels,
		Logger:         a.logger,
		ResolveRetries: a.cfg.Publish.ResolveRetries,
	})
}
