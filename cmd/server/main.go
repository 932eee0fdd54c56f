package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Liberty76220/LibertyTalk/internal/adapters/directory"
	router "github.com/Liberty76220/LibertyTalk/internal/adapters/http"
	signalws "github.com/Liberty76220/LibertyTalk/internal/adapters/signal"
	"github.com/Liberty76220/LibertyTalk/internal/app"
	"github.com/Liberty76220/LibertyTalk/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
	}

	reg := app.NewRegistry()
	pres := app.NewPresence()
	dir := directory.NewClient(cfg.DirectoryURL, cfg.LookupTimeout)
	orch := app.NewOrchestrator(reg, pres, dir, app.GlobalScope{})
	orch.LookupTimeout = cfg.LookupTimeout
	relay := app.NewRelay(reg)
	limiter := app.NewJoinRateLimiter(cfg.JoinLimit, cfg.JoinInterval)

	ctl := signalws.NewSignalWSController(orch, relay, limiter, cfg)

	r := router.SetupRouter(ctx, cfg, orch, ctl)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("LibertyTalk signaling server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
