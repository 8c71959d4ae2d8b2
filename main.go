package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"fiona/internal/agent"
	"fiona/internal/api"
	"fiona/internal/config"
	mcpserver "fiona/internal/mcp"
	"fiona/internal/service"
	"fiona/internal/storage"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	mcpMode := flag.Bool("mcp", false, "serve MCP tools on stdin/stdout instead of HTTP")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "fiona",
	})

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("config", "err", err)
	}

	db, err := storage.New(cfg.Data.DBFile, cfg.Data.Dir)
	if err != nil {
		logger.Fatal("open database", "err", err)
	}
	defer db.Close()

	broker := api.NewBroker()
	layouts := service.NewLayoutService(storage.NewLayoutStore(db), db, broker, logger)

	if *mcpMode {
		if err := mcpserver.New(layouts).ServeStdio(); err != nil {
			logger.Fatal("mcp server", "err", err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher := service.NewLayoutWatcher(layouts, broker, logger, 2*time.Second)
	if projects, err := layouts.ListProjects(); err == nil {
		for _, p := range projects {
			watcher.Watch(p)
		}
	}
	watcher.Start(ctx)
	defer watcher.Stop()

	media, err := service.NewMediaWatcher(filepath.Join(cfg.Data.Dir, "media"), broker, logger)
	if err != nil {
		logger.Warn("media watcher disabled", "err", err)
	} else {
		if err := media.Start(ctx); err != nil {
			logger.Warn("media watcher", "err", err)
		}
		defer media.Close()
	}

	snapshots := service.NewSnapshotter(layouts, logger, cfg.Snapshot.Keep)
	if cfg.Snapshot.Schedule != "" {
		if err := snapshots.Start(cfg.Snapshot.Schedule); err != nil {
			logger.Warn("snapshot schedule", "err", err)
		} else {
			defer snapshots.Stop()
		}
	}

	var runner api.AgentRunner
	if cfg.Agent.APIKey != "" {
		runner = agent.NewClient(cfg.Agent.BaseURL, cfg.Agent.APIKey, cfg.Agent.Model, logger)
	} else {
		logger.Info("agent disabled, no API key configured")
	}

	e := echo.New()
	api.SetupMiddleware(e, cfg.Server.AllowOrigins, cfg.Server.BodyLimit)
	api.RegisterRoutes(e, api.NewHandlers(&api.Dependencies{
		Layouts: layouts,
		Runner:  runner,
		Broker:  broker,
		Version: version,
	}))

	go func() {
		logger.Info("listening", "addr", cfg.Server.Addr)
		if err := e.Start(cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "err", err)
	}
}
