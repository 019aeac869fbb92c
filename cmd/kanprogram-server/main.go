package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/eyalcha/kan-program/internal/adapters/httpapi"
	"github.com/eyalcha/kan-program/internal/adapters/memorybus"
	"github.com/eyalcha/kan-program/internal/app"
	"github.com/eyalcha/kan-program/internal/buildinfo"
	"github.com/eyalcha/kan-program/internal/config"
	"github.com/eyalcha/kan-program/internal/logging"
)

func main() {
	def := config.Default()
	addr := flag.String("addr", def.Addr, "Adresse d'écoute (ex: 127.0.0.1:8080)")
	cfgPath := flag.String("config", envOr("KAN_CONFIG", ""), "Fichier YAML de configuration (stations, timezone...)")
	flag.Parse()

	cfg := def
	cfg.Addr = *addr
	if *cfgPath != "" {
		loaded, err := config.Load(cfg, *cfgPath)
		if err != nil {
			log.Fatal().Err(err).Str("config", *cfgPath).Msg("failed to load config")
		}
		cfg = loaded
		if flagSet("addr") {
			cfg.Addr = *addr
		}
	}

	logger, logCloser := logging.New(logging.Options{App: "kanprogram-server", Level: cfg.LogLevel, File: cfg.LogFile})
	defer func() { _ = logCloser.Close() }()
	log.Logger = logger

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}
	loc, _ := cfg.Location()

	logger.Info().Interface("build", buildinfo.Current()).Int("stations", len(cfg.Stations)).Msg("starting")

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bus := memorybus.New()
	defer bus.Close()

	fetcher := app.NewGuideFetcher().
		WithEndpoint(cfg.GuideURL).
		WithTimeout(cfg.Timeout).
		WithLocation(loc).
		WithLimiter(app.NewFetchLimiter(cfg.MaxConcurrentFetches))
	stations := app.NewRefreshService(logger.With().Str("component", "refresh-service").Logger())

	for _, st := range cfg.Stations {
		stLogger := logger.With().Str("component", "coordinator").Logger()
		coordinator := app.NewCoordinator(stLogger, st, fetcher, bus)
		sensor := app.NewSensor(coordinator, bus)
		if err := stations.Register(sensor); err != nil {
			logger.Fatal().Err(err).Msg("failed to register sensor")
		}

		// Refresh initial puis périodique; le premier fetch tourne avant le premier tick.
		scheduler := app.NewRefreshScheduler(logger.With().Str("component", "scheduler").Str("station_id", st.StationID).Logger(), coordinator)
		go scheduler.Run(shutdownCtx)

		logger.Info().
			Str("entity_id", sensor.EntityID()).
			Str("station_id", st.StationID).
			Dur("scan_interval", st.PollInterval).
			Msg("sensor created")
	}
	logger.Debug().Str("service", app.ServiceRefresh).Msg("refresh service registered")

	srv := httpapi.NewServer(logger, stations, bus)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.Addr).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server crashed")
			stop()
		}
	}()

	<-shutdownCtx.Done()
	logger.Info().Msg("shutting down")

	// Ferme les flux SSE avant Shutdown, qui attend la fin des requêtes en cours.
	bus.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctx)
	logger.Info().Msg("bye")
}

func flagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
