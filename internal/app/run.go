package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/kestrelworks/kestrel/internal/voice"
)

// Run serves the API until ctx is canceled, then shuts down gracefully.
// The session janitor and the proactive-suggestion loop run alongside the
// listener and stop with it.
func (b *BuildResult) Run(ctx context.Context) error {
	log := b.Log

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	b.Sessions.StartJanitor(runCtx, 5*time.Second)
	go b.Orchestrator.RunSuggestions(runCtx)

	httpServer := &http.Server{
		Addr:    b.Config.BindAddr,
		Handler: b.API.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", b.Config.BindAddr).Msg("server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info().Msg("shutdown signal received")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), b.Config.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown failed")
		_ = httpServer.Close()
	}
	return <-errCh
}

// Listen drains a recognizer into the orchestrator until the stream closes
// or ctx is canceled. Partial hypotheses are dropped.
func (b *BuildResult) Listen(ctx context.Context, rec voice.Recognizer) {
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-rec.Utterances():
			if !ok {
				return
			}
			if !u.Final {
				continue
			}
			reply, handled := b.Orchestrator.HandleUtterance(ctx, u.Text)
			if !handled {
				b.Log.Debug().Str("text", u.Text).Msg("utterance gated")
				continue
			}
			b.Log.Info().Str("reply", reply).Msg("spoken reply")
		}
	}
}
