package handler

import (
	"errors"
	"net/http"

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

var r *gin.Engine

func init() {
	// .env is only present with vercel dev
	cfg := config.Load()

	log, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		log = zap.NewNop()
	}

	if err := cfg.RequireSecrets(); err != nil {
		log.Fatal("refusing to start", zap.Error(err))
	}

	db, err := database.Open(database.Options{DatabaseURL: cfg.DatabaseURL, DataPath: cfg.DataPath})
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}

	a := auth.New(cfg.JWTSecret, cfg.APIMasterSecret)
	if err := a.EnsureAdminExists(db, cfg.AdminUsername, cfg.AdminPassword, log); err != nil && !errors.Is(err, auth.ErrNoAdminPassword) {
		log.Error("ensure admin user", zap.Error(err))
	}

	gin.SetMode(gin.ReleaseMode)
	reg := prometheus.NewRegistry()
	h := &handlers.Handler{
		DB:      db,
		Store:   roster.NewStore(db),
		Auth:    a,
		Metrics: metrics.New(reg),
		Log:     log,
		Config:  cfg,
	}
	r = handlers.NewRouter(h, reg)
}

// Handler is the entry point for Vercel Go Runtime
func Handler(w http.ResponseWriter, req *http.Request) {
	r.ServeHTTP(w, req)
}
