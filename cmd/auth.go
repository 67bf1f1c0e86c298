package main

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/desertthunder/tracklinker/internal/server"
	"github.com/desertthunder/tracklinker/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// authTimeout bounds how long the loopback server waits for the
// user to finish the browser flow.
const authTimeout = 5 * time.Minute

// AuthSpotify runs the Spotify OAuth code flow.
func (r *Runner) AuthSpotify(ctx context.Context, cmd *cli.Command) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify provider not initialized (check credentials)", shared.ErrServiceUnavailable)
	}

	code := cmd.String("code")
	if code == "" {
		state := shared.GenerateID()
		r.printAuthURL(r.spotify.AuthURL(state))

		captured, err := r.waitForCode(ctx, r.config.Credentials.Spotify.RedirectURI, state)
		if err != nil {
			return err
		}
		code = captured
	}

	if err := r.spotify.Exchange(ctx, code); err != nil {
		return err
	}

	return r.finishAuth("spotify", r.spotify.Token())
}

// AuthYouTube runs the YouTube OAuth code flow.
func (r *Runner) AuthYouTube(ctx context.Context, cmd *cli.Command) error {
	if r.youtube == nil {
		return fmt.Errorf("%w: YouTube provider not initialized (check credentials)", shared.ErrServiceUnavailable)
	}

	code := cmd.String("code")
	if code == "" {
		state := shared.GenerateID()
		r.printAuthURL(r.youtube.AuthURL(state))

		captured, err := r.waitForCode(ctx, r.config.Credentials.YouTube.RedirectURI, state)
		if err != nil {
			return err
		}
		code = captured
	}

	if err := r.youtube.Exchange(ctx, code); err != nil {
		return err
	}

	return r.finishAuth("youtube", r.youtube.Token())
}

// AuthStatus reports the stored credential state for both providers.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	r.writePlainHeader("Authentication Status")

	r.writePlain("Spotify:  %s\n", r.authState(ctx, "spotify"))
	r.writePlain("YouTube:  %s\n", r.authState(ctx, "youtube"))

	return nil
}

func (r *Runner) authState(ctx context.Context, name string) string {
	provider, err := r.resolveProvider(name)
	if err != nil {
		return "not configured"
	}

	auth, err := provider.Auth(ctx, false)
	if err != nil {
		return "not authenticated"
	}
	if !auth.Expiry.IsZero() {
		return fmt.Sprintf("authenticated (expires %s)", auth.Expiry.Format("2006-01-02 15:04"))
	}
	return "authenticated"
}

// waitForCode serves the OAuth callback on the redirect URI's port
// until the browser flow delivers an authorization code.
func (r *Runner) waitForCode(ctx context.Context, redirectURI, state string) (string, error) {
	if redirectURI == "" {
		redirectURI = "http://localhost:8080/callback"
	}

	parsed, err := url.Parse(redirectURI)
	if err != nil {
		return "", fmt.Errorf("%w: redirect URI %q: %v", shared.ErrInvalidConfig, redirectURI, err)
	}

	handler := server.NewCallbackHandler(state)
	router := server.NewBasicRouter()
	router.Use(server.Logging(r.logger))
	router.Handler(handler)

	serveCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := server.Serve(serveCtx, parsed.Host, router); err != nil && serveCtx.Err() == nil {
			r.logger.Warn("callback server stopped", "error", err)
		}
	}()

	r.writePlain("Waiting for authorization (listening on %s)...\n", parsed.Host)

	select {
	case result := <-handler.Result():
		if result.Error() != nil {
			return "", result.Error()
		}
		return result.Code, nil
	case <-time.After(authTimeout):
		return "", fmt.Errorf("%w: timed out waiting for authorization", shared.ErrAuthFailed)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (r *Runner) printAuthURL(authURL string) {
	r.writePlain("Open this URL in your browser to authorize:\n\n")
	r.writePlain("  %s\n\n", authURL)
}

func (r *Runner) finishAuth(provider string, token *oauth2.Token) error {
	if err := r.saveTokens(provider, token); err != nil {
		return err
	}

	r.writePlain("✓ %s authenticated\n", provider)
	if r.configPath != "" {
		r.writePlain("Tokens saved to %s\n", r.configPath)
	} else {
		r.writePlain("No config file found; add the tokens to config.toml to persist them\n")
	}

	return nil
}
