package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/reimbly/backend/internal/config"
	"github.com/reimbly/backend/internal/database"
	"github.com/reimbly/backend/internal/logger"
	"github.com/reimbly/backend/internal/server"
	"github.com/reimbly/backend/internal/services"
	"github.com/reimbly/backend/internal/version"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Setup logging with rotation
	logDir := filepath.Join(filepath.Dir(cfg.DatabasePath), "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		logDir = "data/logs"
		_ = os.MkdirAll(logDir, 0755)
	}

	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "reimbly.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}

	// Log to both stdout and file
	logger.Init(cfg.Environment == "development", io.MultiWriter(os.Stdout, rotator))
	logEntry := logger.Log()

	logEntry.Infof("starting %s backend, version %s", version.Name, version.Full())

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		logEntry.Fatalf("open database: %v", err)
	}

	srv, err := server.New(db, cfg)
	if err != nil {
		logEntry.Fatalf("setup server: %v", err)
	}

	notifier := services.NewNotificationService(cfg.NotifyURLs)
	analytics := services.NewAnalyticsService(db)
	receipts := services.NewReceiptService(cfg.UploadDir)
	maintenance := services.NewMaintenanceService(db, analytics, receipts, notifier)
	if err := maintenance.Start(); err != nil {
		logEntry.Fatalf("start maintenance: %v", err)
	}
	defer maintenance.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logEntry.Infof("listening on :%s", cfg.HTTPPort)
	if err := srv.Run(ctx); err != nil {
		logEntry.Fatalf("server error: %v", err)
	}
}
