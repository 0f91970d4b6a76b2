package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/wwwlqh/insurance-risk-modeling/config"
	"github.com/wwwlqh/insurance-risk-modeling/db"
	qhttp "github.com/wwwlqh/insurance-risk-modeling/http"
	"github.com/wwwlqh/insurance-risk-modeling/logging"
	"github.com/wwwlqh/insurance-risk-modeling/ml"
	"github.com/wwwlqh/insurance-risk-modeling/monitoring"
	"github.com/wwwlqh/insurance-risk-modeling/scoring"
	"github.com/wwwlqh/insurance-risk-modeling/validation"
)

func main() {
	// 1. Load config
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(logging.Config{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	// 2. Load artifacts; a missing or misaligned bundle stops startup
	artifactCfg := cfg.ArtifactConfig()
	artifacts, err := ml.LoadArtifacts(artifactCfg)
	if err != nil {
		logger.Fatal("failed to load artifacts", zap.String("dir", artifactCfg.Dir), zap.Error(err))
	}
	logger.Info("artifacts loaded",
		zap.String("dir", artifactCfg.Dir),
		zap.String("classifier", artifacts.ClassifierType),
		zap.String("regressor", artifacts.RegressorType),
		zap.Float64("threshold", artifacts.Threshold),
		zap.Int("features", len(artifacts.Bundle.FeatureOrder)))

	service, err := scoring.NewService(artifacts, scoring.Options{
		CacheSize: cfg.Scoring.CacheSize,
		Logger:    logger,
	})
	if err != nil {
		logger.Fatal("failed to build scoring service", zap.Error(err))
	}
	validator, err := validation.New(cfg.Validation.ExtraRules...)
	if err != nil {
		logger.Fatal("failed to compile validation rules", zap.Error(err))
	}
	metrics := monitoring.NewMetrics()

	// 3. Initialize database
	var store *db.Store
	if cfg.Database.Path != "" {
		store, err = db.Open(cfg.Database.Path)
		if err != nil {
			logger.Fatal("failed to open database", zap.String("path", cfg.Database.Path), zap.Error(err))
		}
		defer store.Close()
		if err := store.RecordArtifactLoad(db.ArtifactLoad{
			Dir:               artifactCfg.Dir,
			ClassifierType:    artifacts.ClassifierType,
			RegressorType:     artifacts.RegressorType,
			DecisionThreshold: artifacts.Threshold,
			FeatureCount:      len(artifacts.Bundle.FeatureOrder),
		}); err != nil {
			logger.Warn("failed to record artifact load", zap.Error(err))
		}
		logger.Info("database initialized", zap.String("path", cfg.Database.Path))
	}

	// 4. Prediction feed and artifact watcher
	hub := monitoring.NewHub(logger)
	go hub.Start()
	defer hub.Stop()

	var stale func() bool
	if cfg.Artifacts.Watch {
		files := make([]string, 0, len(ml.Slots()))
		for _, slot := range ml.Slots() {
			files = append(files, artifactCfg.Path(slot))
		}
		watcher, err := monitoring.WatchArtifacts(artifactCfg.Dir, files, logger, func(name string, at time.Time) {
			metrics.RecordArtifactEvent(at)
			if err := hub.Publish(monitoring.ArtifactEvent, map[string]any{"file": name, "at": at}); err != nil {
				logger.Warn("failed to publish artifact event", zap.Error(err))
			}
		})
		if err != nil {
			logger.Warn("artifact watcher disabled", zap.Error(err))
		} else {
			defer watcher.Close()
			stale = watcher.Stale
		}
	}

	// 5. Start HTTP server
	api := qhttp.NewAPI(qhttp.Dependencies{
		Scorer:    service,
		Validator: validator,
		Metrics:   metrics,
		Store:     store,
		Hub:       hub,
		Stale:     stale,
		Logger:    logger,
	})
	server := qhttp.NewServer(qhttp.ServerConfig{
		Port:           cfg.HTTP.Port,
		Timeout:        cfg.HTTP.Timeout,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		MaxBodyBytes:   cfg.HTTP.MaxBodyBytes,
	}, api, logger)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()
	logger.Info("listening", zap.String("addr", server.Addr()))

	// 6. Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	if err := server.Stop(); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	logger.Info("exiting")
}
