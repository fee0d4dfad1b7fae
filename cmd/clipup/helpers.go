package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/pkg/browser"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/viper"

	"go.klb.dev/clipup/internal/clip"
	"go.klb.dev/clipup/internal/config"
	"go.klb.dev/clipup/internal/failure"
	"go.klb.dev/clipup/internal/hostexec"
	"go.klb.dev/clipup/internal/journal"
	"go.klb.dev/clipup/internal/logging"
	"go.klb.dev/clipup/internal/notify"
	"go.klb.dev/clipup/internal/pipeline"
	"go.klb.dev/clipup/internal/window"
	"go.klb.dev/clipup/internal/youtube"
)

// app holds what every sub-command builds from the loaded config.
type app struct {
	cfg        *config.Config
	configFile string
	runner     hostexec.Runner
	journal    *journal.Journal
	closers    []io.Closer
	// up replaces the YouTube client when set.
	up pipeline.Uploader
}

func loadApp(v *viper.Viper) (*app, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	j, err := journal.Open(cfg.Paths.Journal)
	if err != nil {
		return nil, err
	}
	runner := hostexec.Detect()
	slog.Debug("loaded config", "file", v.ConfigFileUsed(), "runner", runner.Name(), "journal", j.Path())
	return &app{
		cfg:        cfg,
		configFile: v.ConfigFileUsed(),
		runner:     runner,
		journal:    j,
	}, nil
}

func (a *app) Close() {
	for _, c := range a.closers {
		_ = c.Close()
	}
}

// gameTable is detect.games in front of the built-in entries.
func (a *app) gameTable() window.Table { return window.NewTable(a.cfg.Detect.Games) }

func (a *app) inspector() *window.Inspector {
	return window.New(a.runner, a.gameTable(), window.Options{
		DefaultName:    a.cfg.Detect.DefaultName,
		UseWindowTitle: a.cfg.Detect.UseWindowTitle,
	})
}

// uploader builds the YouTube client. Setup failures are not returned: the
// pipeline still has to validate the clip, write a journal record and
// notify, so they surface as the first attempt's error instead.
func (a *app) uploader(ctx context.Context) pipeline.Uploader {
	oc, err := youtube.LoadOAuthConfig(a.cfg.Paths.Credentials)
	if err != nil {
		return failedUploader{failure.Auth("load credentials", err)}
	}
	hc, err := youtube.HTTPClient(ctx, oc, youtube.NewTokenStore(a.cfg.Paths.Token))
	if err != nil {
		return failedUploader{err}
	}
	svc, err := youtube.NewService(ctx, hc)
	if err != nil {
		return failedUploader{failure.New("youtube service", failure.KindUnknown, err)}
	}

	opts := []youtube.ClientOption{youtube.WithChunkSize(a.cfg.YouTube.ChunkSize)}
	if logging.IsTTY(os.Stderr) {
		opts = append(opts, youtube.WithProgress(progressBar()))
	}
	return youtube.NewClient(svc, opts...)
}

type failedUploader struct{ err error }

func (f failedUploader) Upload(context.Context, io.Reader, int64, pipeline.Metadata) (string, error) {
	return "", f.err
}

func (a *app) pipeline(ctx context.Context) *pipeline.Pipeline {
	yt := a.cfg.YouTube
	up := a.up
	if up == nil {
		up = a.uploader(ctx)
	}
	return pipeline.New(up, a.journal, pipeline.Options{
		Privacy:             yt.Privacy,
		TitleTemplate:       yt.TitleTemplate,
		DescriptionTemplate: yt.DescriptionTemplate,
		CategoryID:          yt.CategoryID,
		Tags:                yt.Tags,
		MaxAttempts:         a.cfg.Retry.MaxAttempts,
		Backoff:             a.cfg.Retry.Backoff(),
	})
}

func (a *app) notifier() *notify.Dispatcher {
	var backend notify.Backend = notify.Nop{}
	if a.cfg.Notify.Enabled {
		backend = notify.Detect(a.runner)
		if c, ok := backend.(io.Closer); ok {
			a.closers = append(a.closers, c)
		}
	}
	return notify.NewDispatcher(backend, notify.Options{
		Actions:       a.cfg.Notify.Actions,
		ActionTimeout: a.cfg.Notify.ActionTimeout,
		Clipboard:     clip.New(a.runner),
		OpenURL:       browser.OpenURL,
	})
}

// upload runs one clip through the pipeline and reports the result. A failed
// notification is logged and does not change the result.
func (a *app) upload(ctx context.Context, req pipeline.Request) pipeline.Result {
	res := a.pipeline(ctx).Upload(ctx, req)
	if err := a.notifier().Notify(ctx, res); err != nil {
		slog.Warn("notification failed", "err", err)
	}
	return res
}

func progressBar() youtube.ProgressFunc {
	var bar *progressbar.ProgressBar
	return func(sent, total int64) {
		if bar == nil {
			bar = progressbar.NewOptions64(total,
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionSetDescription("uploading"),
				progressbar.OptionShowBytes(true),
				progressbar.OptionSetWidth(30),
				progressbar.OptionThrottle(100*time.Millisecond),
				progressbar.OptionClearOnFinish(),
			)
		}
		_ = bar.Set64(sent)
	}
}

func fmtAge(t time.Time) string {
	age := time.Since(t).Round(time.Second)
	if age < time.Minute {
		return fmt.Sprintf("%ds ago", int(age.Seconds()))
	}
	if age < time.Hour {
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	}
	return t.Local().Format("2006-01-02 15:04")
}
