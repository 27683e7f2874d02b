package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/phenrril/growshop/internal/adapters/repo/postgres"
	"github.com/phenrril/growshop/internal/app"
	"github.com/phenrril/growshop/internal/config"
)

func main() {
	cfg := config.Load()
	setupLogger(cfg.Server)

	db, err := postgres.Open(cfg.Database.ConnString())
	if err != nil {
		zlog.Fatal().Err(err).Msg("no se pudo conectar a la base de datos")
	}

	application, err := app.NewApp(db, cfg)
	if err != nil {
		zlog.Fatal().Err(err).Msg("no se pudo inicializar la aplicación")
	}
	defer application.Close()
	if err := application.MigrateAndSeed(); err != nil {
		zlog.Fatal().Err(err).Msg("falló la migración de la base de datos")
	}

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           application.HTTPHandler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		zlog.Info().Str("addr", server.Addr).Str("env", cfg.Server.Env).Msg("servidor escuchando")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal().Err(err).Msg("servidor HTTP")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	zlog.Info().Msg("apagando servidor")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		zlog.Error().Err(err).Msg("apagado forzado")
	}
}

func setupLogger(s config.ServerConfig) {
	zerolog.TimeFieldFormat = time.RFC3339
	level, err := zerolog.ParseLevel(s.LogLevel)
	if err != nil || s.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if s.IsProduction() {
		zlog.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
		return
	}
	zlog.Logger = zlog.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
}
