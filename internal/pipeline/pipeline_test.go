package pipeline

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/clipup/internal/failure"
	"go.klb.dev/clipup/internal/journal"
)

type call struct {
	body []byte
	size int64
	meta Metadata
}

// scriptedUploader returns errs in order, then succeeds with id.
type scriptedUploader struct {
	mu    sync.Mutex
	errs  []error
	id    string
	calls []call
}

func (u *scriptedUploader) Upload(ctx context.Context, media io.Reader, size int64, meta Metadata) (string, error) {
	body, err := io.ReadAll(media)
	if err != nil {
		return "", err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	n := len(u.calls)
	u.calls = append(u.calls, call{body: body, size: size, meta: meta})
	if n < len(u.errs) {
		return "", u.errs[n]
	}
	return u.id, nil
}

type memRecorder struct {
	records []journal.Record
	err     error
}

func (m *memRecorder) Append(r journal.Record) error {
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, r)
	return nil
}

type sleepLog struct{ waits []time.Duration }

func (s *sleepLog) sleep(ctx context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	return ctx.Err()
}

var fixedNow = time.Date(2025, 6, 1, 20, 14, 0, 0, time.UTC)

func writeClip(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func newPipeline(up Uploader, rec Recorder, opts Options, s *sleepLog) *Pipeline {
	return New(up, rec, opts, WithSleeper(s.sleep), WithClock(func() time.Time { return fixedNow }))
}

func TestTwoTransientFailuresThenSuccess(t *testing.T) {
	clip := writeClip(t, "replay.mp4", "frames")
	up := &scriptedUploader{
		id: "abc123",
		errs: []error{
			failure.Transient("upload", errors.New("503 backend error")),
			failure.Transient("upload", errors.New("connection reset")),
		},
	}
	j, err := journal.Open(filepath.Join(t.TempDir(), "uploads.log"))
	require.NoError(t, err)
	sl := &sleepLog{}

	p := newPipeline(up, j, Options{
		DescriptionTemplate: "Recorded on {date}",
		MaxAttempts:         3,
		Backoff:             time.Second,
	}, sl)
	res := p.Upload(context.Background(), Request{Path: clip, Application: "Valorant"})

	require.True(t, res.OK(), "err: %v", res.Err)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, "abc123", res.VideoID)
	assert.Equal(t, "https://youtu.be/abc123", res.URL)
	assert.Equal(t, []time.Duration{time.Second, time.Second}, sl.waits)
	require.Len(t, up.calls, 3)
	for _, c := range up.calls {
		assert.Equal(t, []byte("frames"), c.body, "file is reopened for every attempt")
		assert.Equal(t, int64(6), c.size)
	}

	records, err := j.Read()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, journal.OutcomeSuccess, records[0].Outcome)
	assert.Equal(t, 3, records[0].Attempts)
	assert.Equal(t, "https://youtu.be/abc123", records[0].URL)
	assert.Equal(t, clip, records[0].File)
}

func TestRetriesExhausted(t *testing.T) {
	clip := writeClip(t, "replay.mkv", "x")
	up := &scriptedUploader{errs: []error{
		failure.Transient("upload", errors.New("timeout")),
		failure.Transient("upload", errors.New("timeout")),
		failure.Transient("upload", errors.New("still down")),
	}}
	rec := &memRecorder{}
	sl := &sleepLog{}

	res := newPipeline(up, rec, Options{MaxAttempts: 3, Backoff: 30 * time.Second}, sl).
		Upload(context.Background(), Request{Path: clip})

	assert.False(t, res.OK())
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, failure.KindTransient, res.Kind)
	assert.Contains(t, res.Reason, "still down")
	assert.Len(t, sl.waits, 2, "no sleep after the last attempt")

	require.Len(t, rec.records, 1)
	assert.Equal(t, journal.OutcomeFailure, rec.records[0].Outcome)
	assert.Equal(t, "transient", rec.records[0].ErrorKind)
	assert.Contains(t, rec.records[0].Error, "still down")
}

func TestNonRetryableErrorsStopImmediately(t *testing.T) {
	for name, err := range map[string]error{
		"auth":    failure.Auth("upload", errors.New("invalid_grant")),
		"quota":   failure.Quota("upload", errors.New("quotaExceeded")),
		"request": failure.Request("upload", errors.New("invalid category")),
		"plain":   errors.New("unclassified"),
	} {
		t.Run(name, func(t *testing.T) {
			clip := writeClip(t, "a.mp4", "x")
			up := &scriptedUploader{errs: []error{err}, id: "never"}
			rec := &memRecorder{}
			sl := &sleepLog{}

			res := newPipeline(up, rec, Options{MaxAttempts: 5, Backoff: time.Second}, sl).
				Upload(context.Background(), Request{Path: clip})

			assert.False(t, res.OK())
			assert.Equal(t, 1, res.Attempts)
			assert.Len(t, up.calls, 1)
			assert.Empty(t, sl.waits)
			assert.Equal(t, failure.KindOf(err), res.Kind)
			assert.Len(t, rec.records, 1)
		})
	}
}

func TestInputErrorsMakeNoUploadCalls(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.mp4")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))

	cases := []struct {
		name string
		path string
		want error
	}{
		{"missing", filepath.Join(dir, "nope.mp4"), failure.ErrFileNotFound},
		{"empty", empty, failure.ErrEmptyFile},
		{"directory", dir, failure.ErrNotRegular},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			up := &scriptedUploader{id: "x"}
			rec := &memRecorder{}

			res := newPipeline(up, rec, Options{MaxAttempts: 3, Backoff: time.Second}, &sleepLog{}).
				Upload(context.Background(), Request{Path: tc.path})

			assert.False(t, res.OK())
			assert.Equal(t, failure.KindInput, res.Kind)
			assert.ErrorIs(t, res.Err, tc.want)
			assert.Zero(t, res.Attempts)
			assert.Empty(t, up.calls)

			require.Len(t, rec.records, 1)
			assert.Equal(t, journal.OutcomeFailure, rec.records[0].Outcome)
			assert.Equal(t, "input", rec.records[0].ErrorKind)
			assert.Zero(t, rec.records[0].Attempts)
		})
	}
}

func TestMetadataFromTemplates(t *testing.T) {
	clip := writeClip(t, "Replay 2025-06-01.mp4", "x")
	up := &scriptedUploader{id: "v"}
	captured := time.Date(2025, 5, 30, 9, 5, 0, 0, time.UTC)

	p := newPipeline(up, &memRecorder{}, Options{
		Privacy:             "private",
		TitleTemplate:       "{game} - {date}",
		DescriptionTemplate: "Recorded on {date} ({file})",
		CategoryID:          "20",
		Tags:                []string{"clips"},
		MaxAttempts:         1,
	}, &sleepLog{})

	res := p.Upload(context.Background(), Request{Path: clip, Application: "Elden Ring", CapturedAt: captured})
	require.True(t, res.OK())
	require.Len(t, up.calls, 1)
	m := up.calls[0].meta
	assert.Equal(t, "Elden Ring - 2025-05-30 09:05", m.Title)
	assert.Equal(t, "Recorded on 2025-05-30 09:05 (Replay 2025-06-01.mp4)", m.Description)
	assert.Equal(t, "private", m.Privacy)
	assert.Equal(t, "20", m.CategoryID)
	assert.Equal(t, []string{"clips"}, m.Tags)
	assert.Equal(t, "video/mp4", m.ContentType)
	assert.Equal(t, m.Title, res.Title)
}

func TestRequestOverridesTemplates(t *testing.T) {
	clip := writeClip(t, "a.mkv", "x")
	up := &scriptedUploader{id: "v"}

	p := newPipeline(up, &memRecorder{}, Options{Privacy: "unlisted", DescriptionTemplate: "Recorded on {date}"}, &sleepLog{})
	p.Upload(context.Background(), Request{Path: clip, Title: "My clip", Description: "desc", Privacy: "public"})

	require.Len(t, up.calls, 1)
	m := up.calls[0].meta
	assert.Equal(t, "My clip", m.Title)
	assert.Equal(t, "desc", m.Description)
	assert.Equal(t, "public", m.Privacy)
	assert.Equal(t, "video/x-matroska", m.ContentType)
}

func TestTitleFallsBackToFileStem(t *testing.T) {
	clip := writeClip(t, "Replay_0001.mp4", "x")
	up := &scriptedUploader{id: "v"}

	newPipeline(up, &memRecorder{}, Options{}, &sleepLog{}).Upload(context.Background(), Request{Path: clip})

	require.Len(t, up.calls, 1)
	assert.Equal(t, "Replay_0001 - 2025-06-01 20:14", up.calls[0].meta.Title)
	assert.Equal(t, "unlisted", up.calls[0].meta.Privacy)
}

func TestJournalErrorDoesNotChangeOutcome(t *testing.T) {
	clip := writeClip(t, "a.mp4", "x")
	rec := &memRecorder{err: errors.New("disk full")}

	res := newPipeline(&scriptedUploader{id: "v"}, rec, Options{}, &sleepLog{}).
		Upload(context.Background(), Request{Path: clip})

	assert.True(t, res.OK())
	assert.EqualError(t, res.JournalErr, "disk full")
}

func TestCancelDuringBackoff(t *testing.T) {
	clip := writeClip(t, "a.mp4", "x")
	up := &scriptedUploader{errs: []error{failure.Transient("upload", errors.New("503"))}, id: "v"}
	rec := &memRecorder{}
	ctx, cancel := context.WithCancel(context.Background())

	p := New(up, rec, Options{MaxAttempts: 3, Backoff: time.Hour},
		WithSleeper(func(ctx context.Context, d time.Duration) error {
			cancel()
			return sleepContext(ctx, d)
		}))
	res := p.Upload(ctx, Request{Path: clip})

	assert.False(t, res.OK())
	assert.Equal(t, 1, res.Attempts)
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Len(t, rec.records, 1)
}
