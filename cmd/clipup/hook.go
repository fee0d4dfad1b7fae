package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipup/internal/logging"
	"go.klb.dev/clipup/internal/pipeline"
	"go.klb.dev/clipup/internal/replay"
)

const soundTimeout = 5 * time.Second

func newHookCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "hook [FILE]",
		Short: "Handle a saved replay (for the recorder's replay-saved hook)",
		Long: `Called when the recorder has saved a replay. FILE is the saved clip; when it
is omitted the newest .mp4/.mkv in hook.replay_dir is used, falling back to
~/Videos/Replays, ~/Videos and ~/OBS.

The focused application is detected, the clip is renamed to
"<game> - <date>.<ext>" and uploaded. By default the upload runs in a
detached "clipup upload" process so the hook returns immediately; its log
goes to paths.diagnostics.`,
		Args:    cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHook(cmd.Context(), v, args, changedFlags(cmd.Flags(), forwardedFlags))
		},
	}

	f := cmd.Flags()
	f.String("replay-dir", "", "directory the recorder saves replays to")
	f.String("sound", "", "sound file played with paplay when a clip is picked up")
	f.Bool("rename", true, "rename the clip after the detected application")
	f.Bool("detach", true, "upload in a background process")
	f.String("game", "", "skip detection and use this application name")
	addUploadFlags(cmd)
	addConfigFlag(cmd)
	addLoggingFlags(cmd)

	return cmd
}

func runHook(ctx context.Context, v *viper.Viper, args, forward []string) error {
	setupLogging(v)

	a, err := loadApp(v)
	if err != nil {
		return err
	}
	defer a.Close()

	var path string
	if len(args) == 1 {
		path = args[0]
	} else {
		dir, err := replay.ResolveDir(a.cfg.Hook.ReplayDir)
		if err != nil {
			return err
		}
		if path, err = replay.FindLatest(dir); err != nil {
			return err
		}
	}

	_, err = a.handleClip(ctx, path, hookOptions{
		detach:  v.GetBool("detach"),
		game:    v.GetString("game"),
		forward: forward,
	})
	return err
}

type hookOptions struct {
	detach bool
	game   string
	// forward holds flags passed on to a detached upload.
	forward []string
}

// handleClip runs the saved-replay flow for one clip and returns the path the
// clip ends up at.
func (a *app) handleClip(ctx context.Context, path string, o hookOptions) (string, error) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	slog.Info("replay saved", "path", path)
	a.playSound(ctx)

	game := o.game
	if game == "" {
		game = a.inspector().Detect(ctx)
	}
	at := time.Now()

	if a.cfg.Hook.Rename {
		renamed, err := replay.Rename(path, game, at)
		if err != nil {
			slog.Warn("could not rename clip", "path", path, "err", err)
		} else if renamed != path {
			slog.Info("renamed clip", "to", filepath.Base(renamed))
		}
		path = renamed
	}

	if o.detach {
		return path, a.spawnUpload(path, a.uploadArgs(path, game, at, o.forward))
	}
	res := a.upload(ctx, pipeline.Request{Path: path, Application: game, CapturedAt: at})
	if !res.OK() {
		return path, res.Err
	}
	fmt.Println(res.URL)
	return path, nil
}

func (a *app) playSound(ctx context.Context) {
	sound := a.cfg.Hook.Sound
	if sound == "" {
		return
	}
	if _, err := os.Stat(sound); err != nil {
		slog.Debug("sound file not found", "path", sound)
		return
	}
	ctx, cancel := context.WithTimeout(ctx, soundTimeout)
	defer cancel()
	if _, err := a.runner.Run(ctx, nil, "paplay", sound); err != nil {
		slog.Debug("could not play sound", "err", err)
	}
}

// uploadArgs is the command line of the detached "clipup upload" for a clip.
func (a *app) uploadArgs(path, game string, at time.Time, forward []string) []string {
	args := []string{
		"upload", path,
		"--game", game,
		"--captured-at", at.Format(time.RFC3339),
		"--log-format", "json",
	}
	if a.configFile != "" {
		args = append(args, "--config", a.configFile)
	}
	return append(args, forward...)
}

// spawnUpload starts "clipup" with args in its own session so the upload of
// path outlives the recorder's hook. Its output is appended to the
// diagnostics log.
func (a *app) spawnUpload(path string, args []string) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate clipup binary: %w", err)
	}

	diag, err := logging.OpenDiagnostics(a.cfg.Paths.Diagnostics)
	if err != nil {
		return err
	}
	defer diag.Close()

	cmd := exec.Command(exe, args...)
	cmd.Stdout = diag
	cmd.Stderr = diag
	detach(cmd)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start upload: %w", err)
	}
	slog.Info("upload started", "pid", cmd.Process.Pid, "file", filepath.Base(path), "log", diag.Name())
	return cmd.Process.Release()
}
