package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/urfave/cli/v2"

	"aoc-leaderboard/config"
	"aoc-leaderboard/view"
	"aoc-leaderboard/web"
)

func main() {
	cliApp := &cli.App{
		Name:  "aoc-leaderboard",
		Usage: "publish Advent of Code private leaderboards with time-decay scoring",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the configuration file",
				Value:   config.GetConfigPath(),
			},
		},
		Commands: []*cli.Command{
			newServerCommand(),
			newConsoleCommand(),
			newExportCommand(),
			newPostCommand(),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func newServerCommand() *cli.Command {
	return &cli.Command{
		Name:  "server",
		Usage: "serve the leaderboards over HTTP, run the Telegram bot and scheduled jobs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "listen",
				Usage: "address to listen on (overrides listen_addr)",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if addr := c.String("listen"); addr != "" {
				cfg.ListenAddr = addr
			}

			// JSON logs on stdout for long-running deployments
			logger := newLogger(os.Stdout, cfg.LogLevel, true)
			slog.SetDefault(logger)
			logger.Info("starting aoc-leaderboard server", "leaderboards", len(cfg.Leaderboards))

			app, err := newApp(cfg, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			sched, err := app.startJobs(ctx)
			if err != nil {
				return err
			}
			defer sched.Stop()

			var wg sync.WaitGroup
			if app.telegram != nil {
				wg.Add(1)
				go func() {
					defer wg.Done()
					app.runBot(ctx, sched)
				}()
			}

			server := web.NewServer(cfg.ListenAddr, app.standings,
				web.WithLogger(logger),
				web.WithGatherer(app.registry),
				web.WithRenderer(app.renderer),
			)
			err = server.ListenAndServe(ctx)

			// Stop the bot as well if the server failed on its own
			stop()
			wg.Wait()
			logger.Info("server stopped")
			return err
		},
	}
}

func newConsoleCommand() *cli.Command {
	return &cli.Command{
		Name:  "console",
		Usage: "print every configured leaderboard",
		Action: func(c *cli.Context) error {
			app, err := newCLIApp(c)
			if err != nil {
				return err
			}
			defer app.Close()

			boards, err := app.standings.All(c.Context)
			for i, lb := range boards {
				if i > 0 {
					fmt.Fprintln(os.Stdout)
				}
				if err := view.Console(os.Stdout, lb); err != nil {
					return fmt.Errorf("print %s: %w", lb.Slug, err)
				}
			}
			return err
		},
	}
}

func newExportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "write every configured leaderboard as a static HTML page",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "out",
				Usage: "output directory",
				Value: ".",
			},
		},
		Action: func(c *cli.Context) error {
			app, err := newCLIApp(c)
			if err != nil {
				return err
			}
			defer app.Close()

			out := c.String("out")
			if err := os.MkdirAll(out, 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}

			boards, fetchErr := app.standings.All(c.Context)
			for _, lb := range boards {
				page, err := view.StaticHTML(app.renderer, lb)
				if err != nil {
					return err
				}
				path := filepath.Join(out, lb.Slug+".html")
				if err := os.WriteFile(path, []byte(page), 0o644); err != nil {
					return fmt.Errorf("write %s: %w", path, err)
				}
				app.logger.Info("exported leaderboard", "slug", lb.Slug, "path", path)
			}
			return fetchErr
		},
	}
}

func newPostCommand() *cli.Command {
	return &cli.Command{
		Name:  "post",
		Usage: "send the standings to the Telegram chat once",
		Action: func(c *cli.Context) error {
			app, err := newCLIApp(c)
			if err != nil {
				return err
			}
			defer app.Close()

			if app.telegram == nil {
				return errors.New("telegram.token is not configured")
			}
			return app.newDigestRunner().Run(c.Context)
		},
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// newCLIApp builds the application for one-shot commands, logging as text to
// stderr so stdout only carries the command output.
func newCLIApp(c *cli.Context) (*App, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	logger := newLogger(os.Stderr, cfg.LogLevel, false)
	slog.SetDefault(logger)
	return newApp(cfg, logger)
}

func newLogger(w io.Writer, level string, json bool) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if json {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
