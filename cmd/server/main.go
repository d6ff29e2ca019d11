package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/arnavshah/staff-planner-api/pkg/auth"
	"github.com/arnavshah/staff-planner-api/pkg/config"
	"github.com/arnavshah/staff-planner-api/pkg/database"
	"github.com/arnavshah/staff-planner-api/pkg/handlers"
	"github.com/arnavshah/staff-planner-api/pkg/logging"
	"github.com/arnavshah/staff-planner-api/pkg/metrics"
	"github.com/arnavshah/staff-planner-api/pkg/roster"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if cfg.GinMode == "" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(cfg.GinMode)
	}

	if err := cfg.RequireSecrets(); err != nil {
		log.Fatal("refusing to start", zap.Error(err))
	}

	db, err := database.Open(database.Options{DatabaseURL: cfg.DatabaseURL, DataPath: cfg.DataPath})
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}

	a := auth.New(cfg.JWTSecret, cfg.APIMasterSecret)
	if err := a.EnsureAdminExists(db, cfg.AdminUsername, cfg.AdminPassword, log); err != nil {
		if !errors.Is(err, auth.ErrNoAdminPassword) {
			log.Fatal("ensure admin user", zap.Error(err))
		}
		log.Warn("ADMIN_PASSWORD not set, admin login is disabled until a user exists")
	}

	h := &handlers.Handler{
		DB:      db,
		Store:   roster.NewStore(db),
		Auth:    a,
		Metrics: metrics.New(prometheus.DefaultRegisterer),
		Log:     log,
		Config:  cfg,
	}
	r := handlers.NewRouter(h, prometheus.DefaultGatherer)

	log.Info("server starting", zap.String("port", cfg.Port), zap.String("version", handlers.Version))
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("could not run server", zap.Error(err))
	}
}
