package main

import (
	"net/http"
	"os"
	"time"

	"github.com/MarkusShepherd/diris-server/internal/config"
	"github.com/MarkusShepherd/diris-server/internal/db"
	"github.com/MarkusShepherd/diris-server/internal/game"
	"github.com/MarkusShepherd/diris-server/internal/logger"
	"github.com/MarkusShepherd/diris-server/internal/notify"
	"github.com/MarkusShepherd/diris-server/internal/server"

	"gorm.io/gorm"
)

const sweepInterval = time.Minute

func main() {
	logger.Init()

	if err := config.LoadDotEnv(".env"); err != nil {
		logger.Log.Warnw("failed to load .env", "error", err)
	}
	cfg := config.Load()

	conn := openDatabase(cfg)

	var notifier game.Notifier = notify.LogSender{}
	if cfg.PushWebhookURL != "" {
		notifier = notify.NewWebhookSender(cfg.PushWebhookURL)
	}

	srv := server.New(conn, cfg, notifier)
	if err := srv.Restore(); err != nil {
		logger.Log.Fatalw("state restore failed", "error", err)
	}
	stop := srv.StartSweeper(sweepInterval)
	defer stop()

	addr := ":8080"
	if env := os.Getenv("PORT"); env != "" {
		addr = ":" + env
	}
	logger.Log.Infow("diris server listening", "addr", addr)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		logger.Log.Fatalw("server stopped", "error", err)
	}
}

func openDatabase(cfg config.Config) *gorm.DB {
	if os.Getenv("DATABASE_URL") == "" {
		logger.Log.Warnw("DATABASE_URL not set, running without persistence")
		return nil
	}
	conn, err := db.Open(cfg)
	if err != nil {
		logger.Log.Fatalw("database connection failed", "error", err)
	}
	if err := db.Migrate(conn); err != nil {
		logger.Log.Fatalw("database migration failed", "error", err)
	}
	return conn
}
