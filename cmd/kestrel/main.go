package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kestrelworks/kestrel/internal/app"
	"github.com/kestrelworks/kestrel/internal/config"
	"github.com/kestrelworks/kestrel/internal/logging"
	"github.com/kestrelworks/kestrel/internal/voice"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logging.New("info")
		bootLog.Fatal().Err(err).Msg("config error")
	}
	log := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
	defer func() {
		if err := b.Cleanup(); err != nil {
			log.Warn().Err(err).Msg("cleanup failed")
		}
	}()

	log.Info().
		Str("wake_word", cfg.WakeWord).
		Str("brain", b.BrainName).
		Msg("kestrel starting")

	if cfg.ListenStdin {
		rec := voice.NewLineRecognizer(os.Stdin)
		defer rec.Close()
		go b.Listen(ctx, rec)
	}

	if err := b.Run(ctx); err != nil {
		log.Error().Err(err).Msg("server error")
		os.Exit(1)
	}
	log.Info().Msg("shutdown complete")
}
