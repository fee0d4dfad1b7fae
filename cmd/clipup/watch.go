package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipup/internal/replay"
)

func newWatchCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "watch [DIR]",
		Short: "Watch the replay directory and upload new clips",
		Long: `Watches DIR (default hook.replay_dir or the usual fallbacks) and runs the
hook flow for every new .mp4/.mkv once it has stopped growing for
hook.settle. Clips are handled one at a time until interrupted.`,
		Args:    cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), v, args, changedFlags(cmd.Flags(), forwardedFlags))
		},
	}

	f := cmd.Flags()
	f.String("replay-dir", "", "directory the recorder saves replays to")
	f.Duration("settle", 0, "quiet period before a clip counts as finished (default from config: 2s)")
	f.String("sound", "", "sound file played with paplay when a clip is picked up")
	f.Bool("rename", true, "rename clips after the detected application")
	f.Bool("detach", false, "upload each clip in a background process")
	addUploadFlags(cmd)
	addConfigFlag(cmd)
	addLoggingFlags(cmd)

	return cmd
}

func runWatch(ctx context.Context, v *viper.Viper, args, forward []string) error {
	setupLogging(v)

	a, err := loadApp(v)
	if err != nil {
		return err
	}
	defer a.Close()

	configured := a.cfg.Hook.ReplayDir
	if len(args) == 1 {
		configured = args[0]
	}
	dir, err := replay.ResolveDir(configured)
	if err != nil {
		return err
	}

	opts := hookOptions{detach: v.GetBool("detach"), forward: forward}
	w := replay.NewWatcher(dir, a.cfg.Hook.Settle, func(ctx context.Context, path string) []string {
		final, err := a.handleClip(ctx, path, opts)
		if err != nil {
			slog.Error("clip failed", "path", path, "err", err)
		}
		return []string{final}
	})
	return w.Run(ctx)
}
