// Package server hosts the loopback HTTP endpoint for OAuth
// authorization code flows.
//
// When the user runs an auth command, a temporary server starts on the
// redirect URI's port, captures the authorization code from the
// provider's callback, and shuts down. The CLI then exchanges the code
// for tokens through the provider.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an http.Handler that knows which routes it serves.
type Handler interface {
	http.Handler
	Routes() []string
}

// Serve runs an HTTP server for the router until ctx is done, then
// shuts it down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
