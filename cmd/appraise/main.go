package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"

	"github.com/alexanderramin/appraise/internal/cli"
	"github.com/alexanderramin/appraise/internal/config"
	"github.com/alexanderramin/appraise/internal/db"
	"github.com/alexanderramin/appraise/internal/editor"
	"github.com/alexanderramin/appraise/internal/repository"
	"github.com/alexanderramin/appraise/internal/service"
	"github.com/alexanderramin/appraise/internal/template"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	var templates *template.Registry
	if cfg.TemplatesFile != "" {
		if templates, err = template.LoadFile(cfg.TemplatesFile); err != nil {
			return err
		}
		logger.Debug("template overrides loaded", "path", templates.Path())
		if cfg.WatchTemplates {
			if err := templates.Watch(ctx, logger, nil); err != nil {
				return fmt.Errorf("watching templates: %w", err)
			}
		}
	} else {
		templates = template.NewRegistry()
	}

	observers := []editor.UseCaseObserver{editor.MetricsObserver{}}
	if cfg.LogSessions {
		observers = append(observers, editor.NewLogUseCaseObserver(os.Stderr))
	}

	sessions := editor.NewManager(repo, templates, editor.Options{
		Debounce:  cfg.Debounce,
		Logger:    logger,
		Observers: observers,
	})
	defer func() {
		if err := sessions.CloseAll(context.Background()); err != nil {
			logger.Error("saving open sessions", "error", err)
		}
	}()

	app := &cli.App{
		Appraisals: service.NewAppraisalService(repo, templates, observers...),
		Sessions:   sessions,
		Logger:     logger,
		HTTPAddr:   cfg.HTTPAddr,
	}

	// Detect interactive terminal for prompts and the editor.
	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	return cli.NewRootCmd(app).ExecuteContext(ctx)
}

// openStore opens the configured backend and returns its repository with a
// function that releases it.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (repository.AppraisalRepo, func(), error) {
	switch cfg.Store {
	case config.StoreRedis:
		repo, err := repository.NewRedisAppraisalRepo(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to redis: %w", err)
		}
		return repo, closer(repo, logger), nil

	case config.StoreBadger:
		bdb, err := db.OpenBadger(db.BadgerConfig{Path: cfg.BadgerDir, SyncWrites: true, Logger: logger})
		if err != nil {
			return nil, nil, fmt.Errorf("opening badger store: %w", err)
		}
		return repository.NewBadgerAppraisalRepo(bdb), closer(bdb, logger), nil

	case config.StorePostgres:
		pdb, err := db.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("opening postgres: %w", err)
		}
		return repository.NewPostgresAppraisalRepo(pdb), closer(pdb, logger), nil

	default:
		sdb, err := db.OpenDB(cfg.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening database: %w", err)
		}
		return repository.NewSQLiteAppraisalRepo(sdb), closer(sdb, logger), nil
	}
}

func closer(c io.Closer, logger *slog.Logger) func() {
	return func() {
		if err := c.Close(); err != nil {
			logger.Warn("closing store", "error", err)
		}
	}
}
