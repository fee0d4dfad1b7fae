package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipup/internal/pipeline"
)

func newUploadCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "upload FILE",
		Short: "Upload one clip and print its URL",
		Long: `Uploads FILE to YouTube, retrying transient failures with a fixed backoff,
appends the outcome to the upload journal and shows a desktop notification.

On success the video URL is printed to stdout and the exit status is 0.`,
		Args:    cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpload(cmd.Context(), v, args[0])
		},
	}

	f := cmd.Flags()
	f.String("title", "", "video title (default from youtube.title_template)")
	f.String("description", "", "video description (default from youtube.description_template)")
	f.String("game", "", "application name used for {game} in templates")
	f.String("captured-at", "", "RFC 3339 capture time used for {date} (default: now)")
	addUploadFlags(cmd)
	addConfigFlag(cmd)
	addLoggingFlags(cmd)

	return cmd
}

func runUpload(ctx context.Context, v *viper.Viper, path string) error {
	setupLogging(v)

	var capturedAt time.Time
	if s := v.GetString("captured-at"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("--captured-at: %w", err)
		}
		capturedAt = t.Local()
	}

	a, err := loadApp(v)
	if err != nil {
		return err
	}
	defer a.Close()

	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	res := a.upload(ctx, pipeline.Request{
		Path:        path,
		Title:       v.GetString("title"),
		Description: v.GetString("description"),
		Application: v.GetString("game"),
		CapturedAt:  capturedAt,
	})
	if !res.OK() {
		return res.Err
	}
	fmt.Println(res.URL)
	return nil
}
