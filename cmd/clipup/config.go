package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"go.klb.dev/clipup/internal/config"
	"go.klb.dev/clipup/internal/logging"
)

// flagKeys maps command-line flags onto nested config keys. Flags not listed
// here are bound under their own name, which must not collide with a config
// section.
var flagKeys = map[string]string{
	"privacy":      "youtube.privacy",
	"max-attempts": "retry.max_attempts",
	"backoff":      "retry.backoff_seconds",
	"credentials":  "paths.credentials",
	"token":        "paths.token",
	"journal":      "paths.journal",
	"diagnostics":  "paths.diagnostics",
	"notify":       "notify.enabled",
	"replay-dir":   "hook.replay_dir",
	"sound":        "hook.sound",
	"rename":       "hook.rename",
	"settle":       "hook.settle",
}

// bindViper wires a command's flags into a viper instance with the standard
// config file search order and CLIPUP_* env var prefix.
//
// Precedence (lowest → highest): defaults → config file → CLIPUP_* env vars → flags
func bindViper(cmd *cobra.Command, v *viper.Viper) error {
	configFlag, _ := cmd.Flags().GetString("config")
	if configFlag != "" {
		v.SetConfigFile(configFlag)
	} else {
		v.SetConfigName(config.AppName)
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/clipup/")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "clipup"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("config: %w", err)
		}
	}

	config.BindEnv(v)

	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok {
			key = f.Name
		}
		if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
			bindErr = fmt.Errorf("binding --%s: %w", f.Name, err)
		}
	})
	return bindErr
}

// forwardedFlags are repeated on the command line of a detached upload.
var forwardedFlags = []string{"privacy", "max-attempts", "backoff", "notify", "log-level"}

// changedFlags returns --name=value for each flag in names that was set on
// the command line, in flag-name order.
func changedFlags(fs *pflag.FlagSet, names []string) []string {
	var out []string
	fs.Visit(func(f *pflag.Flag) {
		if slices.Contains(names, f.Name) {
			out = append(out, "--"+f.Name+"="+f.Value.String())
		}
	})
	return out
}

// addLoggingFlags adds the standard logging flags to a command.
func addLoggingFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("no-background", false, "run interactively: tinter logs + debug level")
	cmd.Flags().String("log-format", "auto", "log format: auto|text|json")
	cmd.Flags().String("log-level", "", "log level: debug|info|warn|error (default: info, debug with --no-background)")
}

// addConfigFlag adds the --config flag to a command.
func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "path to config file (overrides auto-discovery)")
}

// addUploadFlags adds the flags that override upload settings.
func addUploadFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("privacy", "", "public|unlisted|private (default from config: unlisted)")
	f.Int("max-attempts", 0, "upload attempts before giving up (default from config: 3)")
	f.Int("backoff", 0, "seconds between attempts (default from config: 30)")
	f.Bool("notify", true, "show a desktop notification with the result")
}

// setupLogging reads logging flags from viper and configures slog.
func setupLogging(v *viper.Viper) {
	interactive := v.GetBool("no-background") || logging.IsTTY(os.Stderr)
	resolveLogging(interactive, v.GetString("log-format"), v.GetString("log-level"))
}
