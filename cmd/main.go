package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "dismoment/docs"
	"dismoment/internal/api"
	"dismoment/internal/backend"
	"dismoment/internal/config"
	"dismoment/internal/handlers"
	"dismoment/internal/logger"
	"dismoment/internal/metrics"
	"dismoment/internal/query"
	"dismoment/internal/repository"
	"dismoment/internal/repository/db"
	"dismoment/internal/server"
	"dismoment/internal/service"
	"dismoment/internal/session"
)

// @title                       DisMoment API
// @version                     1.0
// @description                 Gateway for the DisMoment photo sharing client.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	// load configs/config.yml, .env and DISMOMENT_* overrides
	cfg, err := config.Load("configs", ".env")
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	// init logger
	log := logger.Get(cfg.Log.Level, cfg.Log.Format)

	// open DB
	conn, err := db.InitDB(cfg.DB.Path, cfg.DB.BusyTimeout)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err, "path", cfg.DB.Path)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	be, err := backend.New(backend.Config{
		Endpoint:  cfg.Backend.Endpoint,
		ProjectID: cfg.Backend.ProjectID,
		APIKey:    cfg.Backend.APIKey,
		Timeout:   cfg.Backend.Timeout,
	})
	if err != nil {
		log.Fatalw("failed to init backend client", "err", err)
	}

	m := metrics.New()
	cache, err := query.NewClient(cfg.Cache.Size, cfg.Cache.StaleAfter, query.WithLookupObserver(m.ObserveCache))
	if err != nil {
		log.Fatalw("failed to init query cache", "err", err)
	}

	// wire dependencies
	repos := repository.NewRepository(conn)
	adapter := api.New(be, api.Collections{
		DatabaseID: cfg.Backend.DatabaseID,
		Users:      cfg.Backend.UsersCollectionID,
		Posts:      cfg.Backend.PostsCollectionID,
		Media:      cfg.Backend.MediaBucketID,
	}, api.WithObserver(m.ObserveAdapter))
	sessions := session.NewManager(repos.Sessions, adapter, cache, cfg.Auth.SessionTTL,
		session.WithLogger(log.Component("session")),
	)

	services := service.NewService(repos, service.Deps{
		Adapter:        adapter,
		Cache:          cache,
		Sessions:       sessions,
		Log:            log,
		SigningKey:     cfg.Auth.SigningKey,
		TokenTTL:       cfg.Auth.TokenTTL,
		SearchDebounce: cfg.Search.Debounce,
		SweepBatch:     cfg.Sweeper.Batch,
		FormCacheSize:  cfg.Cache.FormCacheSize,
	})
	apiHandler := handlers.NewHandler(services, log,
		handlers.WithMetrics(m),
		handlers.WithRateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		handlers.WithMaxUpload(cfg.Server.MaxUploadBytes),
		handlers.WithTrustedProxies(cfg.Server.TrustedProxies),
	)

	// parent of background goroutines and of every request
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Sweeper.Enabled {
		go services.Sweeper.Run(ctx, cfg.Sweeper.Interval)
	}

	// start HTTP server
	srv := server.New(server.Options{
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		BaseContext:       ctx,
	})
	runHTTPServer(srv, cfg.Port, apiHandler, log)
	log.Infow("gateway started", "port", cfg.Port, "backend", cfg.Backend.Endpoint)

	// graceful shutdown
	waitForShutdown(cancel, srv, cfg.Server.ShutdownTimeout, log)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, timeout time.Duration, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	ctx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}

	// Shutdown does not wait for hijacked connections; this ends the search
	// streams through their request contexts and stops the sweeper.
	cancel()
}
