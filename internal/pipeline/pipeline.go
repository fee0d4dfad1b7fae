// Package pipeline turns one saved clip into one hosted video.
//
// An invocation validates the file, builds metadata from templates, uploads
// with a bounded fixed-backoff retry and appends exactly one journal record,
// whatever the outcome. The source file is never moved or deleted here.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"go.klb.dev/clipup/internal/failure"
	"go.klb.dev/clipup/internal/journal"
)

// WatchURL is the short link prefix for an uploaded video.
const WatchURL = "https://youtu.be/"

// Metadata is what the hosting service is told about a clip.
type Metadata struct {
	Title       string
	Description string
	Privacy     string
	CategoryID  string
	Tags        []string
	ContentType string
}

// Uploader sends one clip. Errors should be *failure.Error so the pipeline
// can tell transient failures from fatal ones; anything else is not retried.
type Uploader interface {
	Upload(ctx context.Context, media io.Reader, size int64, meta Metadata) (videoID string, err error)
}

// Recorder persists the outcome of an invocation.
type Recorder interface {
	Append(journal.Record) error
}

// Request is one clip to upload. Empty fields fall back to Options.
type Request struct {
	Path        string
	Title       string
	Description string
	Privacy     string
	Application string
	CapturedAt  time.Time
}

// Result is the outcome of one invocation.
type Result struct {
	Outcome  journal.Outcome
	Path     string
	Title    string
	VideoID  string
	URL      string
	Attempts int
	Kind     failure.Kind
	Reason   string
	Err      error
	// JournalErr is set when the outcome could not be recorded. It does not
	// change Outcome.
	JournalErr error
}

// OK reports whether the upload succeeded.
func (r Result) OK() bool { return r.Outcome == journal.OutcomeSuccess }

// Options configure a Pipeline.
type Options struct {
	Privacy             string
	TitleTemplate       string
	DescriptionTemplate string
	CategoryID          string
	Tags                []string
	MaxAttempts         int
	Backoff             time.Duration
}

// Option customises a Pipeline beyond its Options.
type Option func(*Pipeline)

// WithSleeper replaces the backoff wait.
func WithSleeper(s Sleeper) Option { return func(p *Pipeline) { p.sleep = s } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(p *Pipeline) { p.now = now } }

// Pipeline runs uploads. It is safe to reuse for several clips in sequence.
type Pipeline struct {
	up    Uploader
	rec   Recorder
	opts  Options
	sleep Sleeper
	now   func() time.Time
}

// New returns a Pipeline that uploads through up and records to rec.
func New(up Uploader, rec Recorder, opts Options, extra ...Option) *Pipeline {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.Privacy == "" {
		opts.Privacy = "unlisted"
	}
	if opts.TitleTemplate == "" {
		opts.TitleTemplate = "{game} - {date}"
	}
	p := &Pipeline{up: up, rec: rec, opts: opts, sleep: sleepContext, now: time.Now}
	for _, o := range extra {
		o(p)
	}
	return p
}

// Upload processes req and records the outcome. It never panics on bad input;
// every failure is reported through the Result.
func (p *Pipeline) Upload(ctx context.Context, req Request) Result {
	res := Result{Path: req.Path}

	size, err := validate(req.Path)
	if err != nil {
		return p.finish(res.fail(err), req, Metadata{})
	}

	meta := p.metadata(req)
	res.Title = meta.Title
	log := slog.With("file", req.Path, "title", meta.Title, "privacy", meta.Privacy)
	log.Info("uploading clip", "bytes", size)

	var videoID string
	res.Attempts, err = retry(ctx, p.opts.MaxAttempts, p.opts.Backoff, p.sleep, func(ctx context.Context, attempt int) error {
		log.Debug("upload attempt", "attempt", attempt)
		f, err := os.Open(req.Path)
		if err != nil {
			return failure.Input("open clip", err)
		}
		defer f.Close()
		videoID, err = p.up.Upload(ctx, f, size, meta)
		return err
	})
	if err != nil {
		return p.finish(res.fail(err), req, meta)
	}

	res.Outcome = journal.OutcomeSuccess
	res.VideoID = videoID
	res.URL = WatchURL + videoID
	log.Info("upload complete", "url", res.URL, "attempts", res.Attempts)
	return p.finish(res, req, meta)
}

func (r Result) fail(err error) Result {
	r.Outcome = journal.OutcomeFailure
	r.Err = err
	r.Kind = failure.KindOf(err)
	r.Reason = err.Error()
	return r
}

func (p *Pipeline) finish(res Result, req Request, meta Metadata) Result {
	rec := journal.Record{
		Time:        p.now().UTC(),
		Outcome:     res.Outcome,
		File:        req.Path,
		Title:       meta.Title,
		Application: req.Application,
		Privacy:     meta.Privacy,
		VideoID:     res.VideoID,
		URL:         res.URL,
		Attempts:    res.Attempts,
	}
	if !res.OK() {
		rec.Error = res.Reason
		rec.ErrorKind = res.Kind.String()
		slog.Error("upload failed", "file", req.Path, "attempts", res.Attempts, "kind", res.Kind, "err", res.Err)
	}
	if p.rec != nil {
		if err := p.rec.Append(rec); err != nil {
			slog.Error("journal append failed", "file", req.Path, "err", err)
			res.JournalErr = err
		}
	}
	return res
}

func (p *Pipeline) metadata(req Request) Metadata {
	at := req.CapturedAt
	if at.IsZero() {
		at = p.now()
	}
	game := req.Application
	if game == "" {
		game = stem(req.Path)
	}

	m := Metadata{
		Title:       req.Title,
		Description: req.Description,
		Privacy:     req.Privacy,
		CategoryID:  p.opts.CategoryID,
		Tags:        p.opts.Tags,
		ContentType: ContentType(req.Path),
	}
	if m.Title == "" {
		m.Title = Expand(p.opts.TitleTemplate, game, req.Path, at)
	}
	if m.Description == "" {
		m.Description = Expand(p.opts.DescriptionTemplate, game, req.Path, at)
	}
	if m.Privacy == "" {
		m.Privacy = p.opts.Privacy
	}
	return m
}

// validate checks that path is a non-empty regular file and returns its size.
func validate(path string) (int64, error) {
	const op = "validate clip"
	fi, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return 0, failure.Input(op, fmt.Errorf("%w: %s", failure.ErrFileNotFound, path))
	case err != nil:
		return 0, failure.Input(op, err)
	case !fi.Mode().IsRegular():
		return 0, failure.Input(op, fmt.Errorf("%w: %s", failure.ErrNotRegular, path))
	case fi.Size() == 0:
		return 0, failure.Input(op, fmt.Errorf("%w: %s", failure.ErrEmptyFile, path))
	}
	return fi.Size(), nil
}
