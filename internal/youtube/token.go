package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	ytapi "google.golang.org/api/youtube/v3"

	"go.klb.dev/clipup/internal/failure"
)

// ErrNoToken is returned when no token has been stored yet.
var ErrNoToken = errors.New("no stored token; run `clipup auth` first")

// LoadOAuthConfig reads an installed-app client secrets file downloaded from
// the Google Cloud console.
func LoadOAuthConfig(path string) (*oauth2.Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read client secrets: %w", err)
	}
	cfg, err := google.ConfigFromJSON(b, ytapi.YoutubeUploadScope)
	if err != nil {
		return nil, fmt.Errorf("parse client secrets %s: %w", path, err)
	}
	return cfg, nil
}

// TokenStore keeps one OAuth token as JSON on disk.
type TokenStore struct {
	path string
}

func NewTokenStore(path string) *TokenStore { return &TokenStore{path: path} }

func (s *TokenStore) Path() string { return s.path }

// Load reads the stored token. It returns ErrNoToken if there is none.
func (s *TokenStore) Load() (*oauth2.Token, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(b, &tok); err != nil {
		return nil, fmt.Errorf("decode token %s: %w", s.path, err)
	}
	return &tok, nil
}

// Save replaces the stored token. The file is written beside the target and
// renamed over it so a crash never leaves a truncated token.
func (s *TokenStore) Save(tok *oauth2.Token) error {
	b, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("token dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".token-*")
	if err != nil {
		return fmt.Errorf("token temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write token: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod token: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close token: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace token: %w", err)
	}
	return nil
}

// persistingSource writes refreshed tokens back to the store.
type persistingSource struct {
	mu    sync.Mutex
	src   oauth2.TokenSource
	store *TokenStore
	last  string
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tok, err := p.src.Token()
	if err != nil {
		return nil, classifyRefresh(err)
	}
	if tok.AccessToken != p.last {
		p.last = tok.AccessToken
		if err := p.store.Save(tok); err != nil {
			slog.Warn("could not persist refreshed token", "path", p.store.Path(), "err", err)
		} else {
			slog.Debug("refreshed token saved", "path", p.store.Path(), "expiry", tok.Expiry)
		}
	}
	return tok, nil
}

// classifyRefresh keeps network trouble retryable and turns everything else
// (revoked grant, missing refresh token) into an auth failure.
func classifyRefresh(err error) error {
	const op = "refresh token"
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		return failure.New(op, retrieveKind(re), err)
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return failure.Transient(op, err)
	}
	return failure.Auth(op, err)
}

// HTTPClient returns a client that authorises requests with the stored
// token, refreshing and persisting it when it expires. ctx is used for token
// refreshes and may carry an oauth2.HTTPClient.
func HTTPClient(ctx context.Context, cfg *oauth2.Config, store *TokenStore) (*http.Client, error) {
	tok, err := store.Load()
	if err != nil {
		return nil, failure.Auth("load token", err)
	}
	src := &persistingSource{
		src:   cfg.TokenSource(ctx, tok),
		store: store,
		last:  tok.AccessToken,
	}
	return oauth2.NewClient(ctx, src), nil
}
