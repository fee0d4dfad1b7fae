// clipup: upload replay-buffer clips to YouTube.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"go.klb.dev/clipup/internal/logging"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "clipup",
		Short: "Upload replay-buffer clips to YouTube",
		Long: `clipup picks up the clip a recorder's replay buffer just saved, names it
after the game in the focused window, uploads it to YouTube and shows a
desktop notification with the link.

Run "clipup auth" once to sign in. Point the recorder's replay-saved hook at
"clipup hook", or run "clipup watch" next to it.

Config file search order (first found wins):
  /etc/clipup/clipup.yaml
  $HOME/.config/clipup/clipup.yaml
  path supplied via --config

Keys can also be set via CLIPUP_<KEY> env vars, for example
CLIPUP_RETRY_MAX_ATTEMPTS=5.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newUploadCmd(),
		newHookCmd(),
		newWatchCmd(),
		newDetectCmd(),
		newAuthCmd(),
		newHistoryCmd(),
		newVersionCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("clipup %s\n", Version)
		},
	}
}

// resolveLogging sets up the global slog logger after flags are parsed.
func resolveLogging(interactive bool, formatStr, levelStr string) {
	format := logging.ParseFormat(formatStr)
	level := logging.ParseLevel(levelStr)
	if levelStr == "" {
		if interactive {
			level = logging.ParseLevel("debug")
		} else {
			level = logging.ParseLevel("info")
		}
	}
	logging.Setup(format, level)
}
