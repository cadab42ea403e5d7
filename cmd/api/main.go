package main

import (
	"net/http"
	"os"

	"nutrikid-care-access/internal/adapters/analytics/nutriai"
	"nutrikid-care-access/internal/adapters/auth/jwtauth"
	"nutrikid-care-access/internal/adapters/notify/amqppub"
	pg "nutrikid-care-access/internal/adapters/storage/postgres"
	"nutrikid-care-access/internal/platform/config"
	"nutrikid-care-access/internal/platform/logger"
	"nutrikid-care-access/internal/router"
)

// @title NutriKid Care Access API
// @version 1.0
// @description Autorización y visibilidad de perfiles de salud infantil entre guardianes y clínicos.
// @BasePath /
func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Logging.Level),
		Format: logger.ParseFormat(cfg.Logging.Format),
		App:    "nutrikid-care-access",
	})

	opts := router.Options{Logger: log}

	if cfg.Auth.JWTSecret != "" {
		verifier, err := jwtauth.NewVerifier(cfg.Auth.JWTSecret)
		if err != nil {
			log.Error("auth verifier init failed", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
		opts.AuthVerifier = verifier
	} else {
		log.Warn("running without JWT verifier (dev mode, X-Debug-User-ID)", nil)
	}

	if cfg.Database.DSN != "" {
		db, err := pg.Open(cfg.Database.DSN)
		if err != nil {
			log.Error("postgres open failed", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
		defer db.Close()
		opts.DB = db
	} else {
		log.Warn("running with in-memory storage (dev mode)", nil)
	}

	if cfg.Notify.AMQPURL != "" {
		pub, err := amqppub.New(cfg.Notify.AMQPURL, cfg.Notify.Queue)
		if err != nil {
			log.Error("amqp publisher init failed", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
		defer pub.Close()
		opts.Sink = pub
	}

	if cfg.Analytics.BaseURL != "" {
		resolver, err := nutriai.New(cfg.Analytics.BaseURL, cfg.Analytics.Timeout)
		if err != nil {
			log.Error("analytics client init failed", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
		opts.Analytics = resolver
	}

	addr := ":" + cfg.Server.Port

	srv := &http.Server{
		Addr:         addr,
		Handler:      router.NewRouter(opts),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	log.Info("starting server", map[string]any{"addr": addr})
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}
