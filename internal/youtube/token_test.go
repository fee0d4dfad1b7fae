package youtube

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"go.klb.dev/clipup/internal/failure"
)

func TestTokenStoreRoundTrip(t *testing.T) {
	store := NewTokenStore(filepath.Join(t.TempDir(), "config", "clipup", "token.json"))

	_, err := store.Load()
	require.ErrorIs(t, err, ErrNoToken)

	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(&oauth2.Token{AccessToken: "at", RefreshToken: "rt", TokenType: "Bearer", Expiry: exp}))

	fi, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())

	tok, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "at", tok.AccessToken)
	assert.Equal(t, "rt", tok.RefreshToken)
	assert.True(t, exp.Equal(tok.Expiry))

	entries, err := os.ReadDir(filepath.Dir(store.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file is cleaned up")
}

func TestHTTPClientWithoutTokenIsAuthError(t *testing.T) {
	store := NewTokenStore(filepath.Join(t.TempDir(), "token.json"))

	_, err := HTTPClient(context.Background(), &oauth2.Config{}, store)
	require.Error(t, err)
	assert.Equal(t, failure.KindAuth, failure.KindOf(err))
	assert.ErrorIs(t, err, ErrNoToken)
	assert.Contains(t, err.Error(), "clipup auth")
}

func TestExpiredTokenIsRefreshedAndPersisted(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "rt", r.PostForm.Get("refresh_token"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"fresh","token_type":"Bearer","expires_in":3600}`)
	}))
	defer tokenSrv.Close()

	auths := make(chan string, 1)
	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auths <- r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer apiSrv.Close()

	store := NewTokenStore(filepath.Join(t.TempDir(), "token.json"))
	require.NoError(t, store.Save(&oauth2.Token{
		AccessToken:  "stale",
		RefreshToken: "rt",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(-time.Hour),
	}))
	cfg := &oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		Endpoint:     oauth2.Endpoint{TokenURL: tokenSrv.URL, AuthStyle: oauth2.AuthStyleInParams},
	}

	hc, err := HTTPClient(context.Background(), cfg, store)
	require.NoError(t, err)
	resp, err := hc.Get(apiSrv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "Bearer fresh", <-auths)
	saved, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "fresh", saved.AccessToken)
	assert.Equal(t, "rt", saved.RefreshToken)
}

func TestRevokedRefreshTokenIsAuthError(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"invalid_grant","error_description":"Token has been expired or revoked."}`)
	}))
	defer tokenSrv.Close()

	store := NewTokenStore(filepath.Join(t.TempDir(), "token.json"))
	require.NoError(t, store.Save(&oauth2.Token{AccessToken: "stale", RefreshToken: "rt", Expiry: time.Now().Add(-time.Hour)}))
	cfg := &oauth2.Config{
		ClientID: "client",
		Endpoint: oauth2.Endpoint{TokenURL: tokenSrv.URL, AuthStyle: oauth2.AuthStyleInParams},
	}

	hc, err := HTTPClient(context.Background(), cfg, store)
	require.NoError(t, err)
	_, err = hc.Get("http://127.0.0.1:1/never-reached")
	require.Error(t, err)

	classified := Classify("upload", err)
	assert.Equal(t, failure.KindAuth, failure.KindOf(classified))
}
