package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/itbasis/go-clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/unrolled/render"

	"aoc-leaderboard/aoc"
	"aoc-leaderboard/bot"
	"aoc-leaderboard/cache"
	"aoc-leaderboard/config"
	"aoc-leaderboard/digest"
	"aoc-leaderboard/fetcher"
	"aoc-leaderboard/scheduler"
	"aoc-leaderboard/standings"
	"aoc-leaderboard/storage"
	"aoc-leaderboard/view"
)

// App holds all application dependencies.
type App struct {
	cfg       *config.Config
	logger    *slog.Logger
	registry  *prometheus.Registry
	db        *storage.DB
	fetcher   *fetcher.Fetcher
	standings *standings.Service
	renderer  *render.Render
	telegram  *telegramBot
}

func newApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{
		cfg:      cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
		renderer: view.NewRenderer(),
	}
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// SQLite holds the cache for that backend and the bot settings.
	if cfg.CacheBackend == config.BackendSQLite || cfg.Telegram.Token != "" {
		db, err := storage.NewDB(cfg.DBPath, clock.New())
		if err != nil {
			return nil, fmt.Errorf("initialize database %s: %w", cfg.DBPath, err)
		}
		app.db = db
		logger.Info("database initialized", "path", cfg.DBPath)
	}

	store, err := app.cacheStore()
	if err != nil {
		app.Close()
		return nil, err
	}

	client := aoc.NewClient(cfg.Session,
		aoc.WithBaseURL(cfg.BaseURL),
		aoc.WithTimeout(cfg.FetchTimeout()),
	)
	app.fetcher = fetcher.New(client, store,
		fetcher.WithTTL(cfg.CacheTTL()),
		fetcher.WithLogger(logger),
		fetcher.WithMetrics(app.registry),
	)
	app.standings = standings.NewService(cfg, app.fetcher, standings.WithLogger(logger))

	if cfg.Telegram.Token != "" {
		tg, err := newTelegramBot(cfg.Telegram.Token, logger)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.telegram = tg
	}

	return app, nil
}

func (a *App) cacheStore() (cache.Store, error) {
	if a.cfg.CacheBackend == config.BackendSQLite {
		a.logger.Info("using sqlite cache", "path", a.cfg.DBPath)
		return a.db, nil
	}
	fs, err := cache.NewFileStore(a.cfg.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("initialize cache: %w", err)
	}
	a.logger.Info("using file cache", "dir", fs.Dir())
	return fs, nil
}

// Close releases the database.
func (a *App) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// startJobs schedules the cache warm-up and the daily standings post. The
// returned scheduler is already running.
func (a *App) startJobs(ctx context.Context) (*scheduler.Scheduler, error) {
	sched, err := scheduler.NewScheduler(a.cfg.Telegram.Timezone, a.logger)
	if err != nil {
		return nil, fmt.Errorf("initialize scheduler: %w", err)
	}

	if interval := a.cfg.RefreshInterval(); interval > 0 {
		if err := sched.Every(interval, func() { a.warm(ctx) }); err != nil {
			return nil, fmt.Errorf("schedule warm-up: %w", err)
		}
		a.logger.Info("cache warm-up scheduled", "interval", interval)
	}

	if a.telegram != nil {
		postTime := a.cfg.Telegram.PostTime
		if stored, err := a.db.GetSetting(ctx, bot.SettingPostTime); err == nil {
			postTime = stored
		}
		if err := sched.Schedule(postTime, a.postJob(ctx)); err != nil {
			return nil, fmt.Errorf("schedule post: %w", err)
		}
		a.logger.Info("standings post scheduled", "time", postTime, "timezone", a.cfg.Telegram.Timezone)
	}

	sched.Start()
	return sched, nil
}

func (a *App) warm(ctx context.Context) {
	if err := a.standings.Warm(ctx); err != nil {
		a.logger.Warn("cache warm-up incomplete", "error", err)
	}
}

func (a *App) postJob(ctx context.Context) func() {
	return func() {
		if err := a.newDigestRunner().Run(ctx); err != nil {
			if errors.Is(err, digest.ErrNoChat) {
				a.logger.Warn("cannot post standings: send /start to the bot first")
				return
			}
			a.logger.Error("standings post failed", "error", err)
		}
	}
}

func (a *App) newDigestRunner() *digest.Runner {
	opts := []digest.Option{
		digest.WithTopN(a.cfg.Telegram.TopN),
		digest.WithLogger(a.logger),
	}
	if a.cfg.Telegram.ChatID != 0 {
		opts = append(opts, digest.WithChatID(a.cfg.Telegram.ChatID))
	}
	return digest.NewRunner(a.standings, a.telegram, a.db, opts...)
}

func (a *App) newCommandHandler(ctx context.Context, sched bot.ScheduleUpdater) *bot.CommandHandler {
	opts := []bot.Option{bot.WithTopN(a.cfg.Telegram.TopN)}
	if sched != nil {
		opts = append(opts, bot.WithScheduler(sched, a.postJob(ctx)))
	}
	return bot.NewCommandHandler(a.telegram, a.db, a.standings, opts...)
}
