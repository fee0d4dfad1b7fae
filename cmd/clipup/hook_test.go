package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/clipup/internal/config"
	"go.klb.dev/clipup/internal/failure"
	"go.klb.dev/clipup/internal/hostexec/hostexectest"
	"go.klb.dev/clipup/internal/journal"
	"go.klb.dev/clipup/internal/pipeline"
)

func TestUploadArgsForwardsChangedFlags(t *testing.T) {
	cmd := newHookCmd()
	require.NoError(t, cmd.Flags().Set("privacy", "public"))
	require.NoError(t, cmd.Flags().Set("notify", "false"))
	require.NoError(t, cmd.Flags().Set("max-attempts", "5"))
	require.NoError(t, cmd.Flags().Set("rename", "false"))

	forward := changedFlags(cmd.Flags(), forwardedFlags)
	assert.Equal(t, []string{"--max-attempts=5", "--notify=false", "--privacy=public"}, forward)

	a := &app{configFile: "/home/me/.config/clipup/clipup.yaml"}
	at := time.Date(2025, 6, 1, 20, 14, 0, 0, time.UTC)
	assert.Equal(t, []string{
		"upload", "/videos/Valorant - 2025-06-01 20-14.mp4",
		"--game", "Valorant",
		"--captured-at", "2025-06-01T20:14:00Z",
		"--log-format", "json",
		"--config", "/home/me/.config/clipup/clipup.yaml",
		"--max-attempts=5", "--notify=false", "--privacy=public",
	}, a.uploadArgs("/videos/Valorant - 2025-06-01 20-14.mp4", "Valorant", at, forward))
}

func TestUploadArgsWithoutChangedFlags(t *testing.T) {
	forward := changedFlags(newWatchCmd().Flags(), forwardedFlags)
	assert.Empty(t, forward)

	args := (&app{}).uploadArgs("/videos/clip.mkv", "Gameplay", time.Now(), forward)
	assert.NotContains(t, args, "--config")
	assert.Equal(t, "upload", args[0])
}

type stubUploader struct {
	id    string
	err   error
	sizes []int64
}

func (s *stubUploader) Upload(_ context.Context, media io.Reader, size int64, _ pipeline.Metadata) (string, error) {
	if _, err := io.Copy(io.Discard, media); err != nil {
		return "", err
	}
	s.sizes = append(s.sizes, size)
	return s.id, s.err
}

// testApp builds an app whose journal and credentials live in a temp dir,
// with notifications off and xdotool reporting a Valorant window.
func testApp(t *testing.T) (*app, *hostexectest.Fake) {
	t.Helper()
	dir := t.TempDir()
	v := viper.New()
	config.SetDefaults(v)
	v.Set("paths.credentials", filepath.Join(dir, "missing-credentials.json"))
	v.Set("paths.token", filepath.Join(dir, "token.json"))
	v.Set("paths.journal", filepath.Join(dir, "uploads.log"))
	v.Set("paths.diagnostics", filepath.Join(dir, "clipup.log"))
	v.Set("notify.enabled", false)
	v.Set("retry.max_attempts", 2)
	cfg, err := config.Load(v)
	require.NoError(t, err)

	j, err := journal.Open(cfg.Paths.Journal)
	require.NoError(t, err)
	fake := hostexectest.New().On("xdotool getactivewindow getwindowname", "VALORANT  \n", nil)
	return &app{cfg: cfg, runner: fake, journal: j}, fake
}

func writeReplay(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Replay 2025-06-01 20-14-03.mp4")
	require.NoError(t, os.WriteFile(path, []byte("frames"), 0o644))
	return path
}

func TestHandleClipInlineUpload(t *testing.T) {
	a, fake := testApp(t)
	up := &stubUploader{id: "abc123"}
	a.up = up
	src := writeReplay(t)

	final, err := a.handleClip(context.Background(), src, hookOptions{})
	require.NoError(t, err)

	assert.Equal(t, filepath.Dir(src), filepath.Dir(final))
	assert.True(t, strings.HasPrefix(filepath.Base(final), "Valorant - "), final)
	assert.FileExists(t, final)
	assert.NoFileExists(t, src)
	assert.Equal(t, []int64{6}, up.sizes)
	require.NotEmpty(t, fake.Calls())
	assert.Equal(t, "xdotool", fake.Calls()[0].Argv[0])

	records, err := a.journal.Read()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, journal.OutcomeSuccess, records[0].Outcome)
	assert.Equal(t, "https://youtu.be/abc123", records[0].URL)
	assert.Equal(t, "Valorant", records[0].Application)
	assert.Equal(t, final, records[0].File)
}

func TestHandleClipGameOverrideSkipsDetection(t *testing.T) {
	a, fake := testApp(t)
	a.cfg.Hook.Rename = false
	a.up = &stubUploader{id: "xyz"}
	src := writeReplay(t)

	final, err := a.handleClip(context.Background(), src, hookOptions{game: "Hades II"})
	require.NoError(t, err)
	assert.Equal(t, src, final)
	assert.Empty(t, fake.Calls())

	records, err := a.journal.Read()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Hades II", records[0].Application)
}

func TestHandleClipSetupFailureIsRecordedOnce(t *testing.T) {
	a, _ := testApp(t)
	src := writeReplay(t)

	final, err := a.handleClip(context.Background(), src, hookOptions{})
	require.Error(t, err)
	assert.Equal(t, failure.KindAuth, failure.KindOf(err))
	assert.FileExists(t, final, "clip is kept when the upload fails")

	records, err := a.journal.Read()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, journal.OutcomeFailure, records[0].Outcome)
	assert.Equal(t, "auth", records[0].ErrorKind)
	assert.Equal(t, 1, records[0].Attempts)
}

func TestUploadCommandSetupFailureReturnsError(t *testing.T) {
	dir := t.TempDir()
	journalPath := filepath.Join(dir, "uploads.log")
	cfgPath := filepath.Join(dir, "clipup.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
paths:
  credentials: `+filepath.Join(dir, "missing.json")+`
  token: `+filepath.Join(dir, "token.json")+`
  journal: `+journalPath+`
  diagnostics: `+filepath.Join(dir, "clipup.log")+`
notify:
  enabled: false
`), 0o644))
	clip := writeReplay(t)

	cmd := newUploadCmd()
	cmd.SetArgs([]string{clip, "--config", cfgPath, "--log-level", "error"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Equal(t, failure.KindAuth, failure.KindOf(err))

	j, err := journal.Open(journalPath)
	require.NoError(t, err)
	records, err := j.Read()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, journal.OutcomeFailure, records[0].Outcome)
	assert.Equal(t, clip, records[0].File)
}
