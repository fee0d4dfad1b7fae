package youtube

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"go.klb.dev/clipup/internal/failure"
)

const callbackPage = `<html><body><h3>%s</h3><p>You can close this window.</p></body></html>`

type callback struct {
	code string
	err  error
}

// Authorize runs the installed-app consent flow. It listens on a loopback
// port, hands the consent URL to open, waits for the redirect and exchanges
// the code using PKCE. ctx bounds the whole flow.
func Authorize(ctx context.Context, cfg *oauth2.Config, open func(authURL string) error) (*oauth2.Token, error) {
	const op = "authorize"

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("listen for oauth callback: %w", err)
	}

	c := *cfg
	c.RedirectURL = fmt.Sprintf("http://%s/", ln.Addr().String())
	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()

	results := make(chan callback, 1)
	deliver := func(cb callback) {
		select {
		case results <- cb:
		default:
		}
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("state") != state:
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		case q.Get("error") != "":
			deliver(callback{err: fmt.Errorf("consent denied: %s", q.Get("error"))})
			fmt.Fprintf(w, callbackPage, "Authorization was not granted.")
			return
		case q.Get("code") == "":
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}
		deliver(callback{code: q.Get("code")})
		fmt.Fprintf(w, callbackPage, "clipup is authorized.")
	})

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Warn("oauth callback server", "err", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	authURL := c.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.S256ChallengeOption(verifier),
	)
	slog.Debug("waiting for oauth callback", "redirect", c.RedirectURL)
	if err := open(authURL); err != nil {
		slog.Warn("could not open browser", "err", err)
	}

	var cb callback
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	case cb = <-results:
	}
	if cb.err != nil {
		return nil, failure.Auth(op, cb.err)
	}

	tok, err := c.Exchange(ctx, cb.code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, failure.Auth(op, fmt.Errorf("exchange code: %w", err))
	}
	if tok.RefreshToken == "" {
		slog.Warn("token has no refresh token; uploads will stop working when it expires")
	}
	return tok, nil
}
