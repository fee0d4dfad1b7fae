// Package config defines clipup's settings and loads them from viper.
//
// Precedence (lowest → highest): defaults → config file → CLIPUP_* env vars → flags.
// Nested keys map to env vars with "." replaced by "_", for example
// retry.max_attempts ↔ CLIPUP_RETRY_MAX_ATTEMPTS.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"go.klb.dev/clipup/internal/window"
)

// AppName names the config and data directories.
const AppName = "clipup"

// Privacy levels accepted by the hosting service.
var Privacies = []string{"public", "unlisted", "private"}

type YouTube struct {
	Privacy             string   `mapstructure:"privacy"`
	DescriptionTemplate string   `mapstructure:"description_template"`
	TitleTemplate       string   `mapstructure:"title_template"`
	CategoryID          string   `mapstructure:"category_id"`
	Tags                []string `mapstructure:"tags"`
	ChunkSize           int      `mapstructure:"chunk_size"`
}

type Retry struct {
	MaxAttempts    int `mapstructure:"max_attempts"`
	BackoffSeconds int `mapstructure:"backoff_seconds"`
}

// Backoff returns the fixed delay between attempts.
func (r Retry) Backoff() time.Duration {
	return time.Duration(r.BackoffSeconds) * time.Second
}

type Paths struct {
	Credentials string `mapstructure:"credentials"`
	Token       string `mapstructure:"token"`
	Journal     string `mapstructure:"journal"`
	Diagnostics string `mapstructure:"diagnostics"`
}

type Detect struct {
	DefaultName    string         `mapstructure:"default_name"`
	UseWindowTitle bool           `mapstructure:"use_window_title"`
	Games          []window.Entry `mapstructure:"games"`
}

type Notify struct {
	Enabled       bool          `mapstructure:"enabled"`
	Actions       bool          `mapstructure:"actions"`
	ActionTimeout time.Duration `mapstructure:"action_timeout"`
}

type Hook struct {
	ReplayDir string        `mapstructure:"replay_dir"`
	Sound     string        `mapstructure:"sound"`
	Rename    bool          `mapstructure:"rename"`
	Settle    time.Duration `mapstructure:"settle"`
}

// Config is the full settings tree. It is loaded once and not modified.
type Config struct {
	YouTube YouTube `mapstructure:"youtube"`
	Retry   Retry   `mapstructure:"retry"`
	Paths   Paths   `mapstructure:"paths"`
	Detect  Detect  `mapstructure:"detect"`
	Notify  Notify  `mapstructure:"notify"`
	Hook    Hook    `mapstructure:"hook"`
}

// Dir returns $XDG_CONFIG_HOME/clipup (usually ~/.config/clipup).
func Dir() string {
	if d, err := os.UserConfigDir(); err == nil {
		return filepath.Join(d, AppName)
	}
	return filepath.Join(".", "."+AppName)
}

// DataDir returns $XDG_DATA_HOME/clipup, falling back to ~/.local/share/clipup.
func DataDir() string {
	if d := os.Getenv("XDG_DATA_HOME"); d != "" {
		return filepath.Join(d, AppName)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", AppName)
	}
	return filepath.Join(".", "."+AppName)
}

// SetDefaults registers every key with its default so that env vars and
// Unmarshal see the full tree even without a config file.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("youtube.privacy", "unlisted")
	v.SetDefault("youtube.description_template", "Recorded on {date}")
	v.SetDefault("youtube.title_template", "{game} - {date}")
	v.SetDefault("youtube.category_id", "20")
	v.SetDefault("youtube.tags", []string{})
	v.SetDefault("youtube.chunk_size", 1024*1024)

	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.backoff_seconds", 30)

	v.SetDefault("paths.credentials", filepath.Join(Dir(), "credentials.json"))
	v.SetDefault("paths.token", filepath.Join(Dir(), "token.json"))
	v.SetDefault("paths.journal", filepath.Join(DataDir(), "uploads.log"))
	v.SetDefault("paths.diagnostics", filepath.Join(DataDir(), "clipup.log"))

	v.SetDefault("detect.default_name", window.DefaultName)
	v.SetDefault("detect.use_window_title", false)

	v.SetDefault("notify.enabled", true)
	v.SetDefault("notify.actions", true)
	v.SetDefault("notify.action_timeout", 30*time.Second)

	v.SetDefault("hook.replay_dir", "")
	v.SetDefault("hook.sound", "")
	v.SetDefault("hook.rename", true)
	v.SetDefault("hook.settle", 2*time.Second)
}

// BindEnv registers the defaults and CLIPUP_* environment lookups on v.
func BindEnv(v *viper.Viper) {
	SetDefaults(v)
	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

// Load decodes and validates the settings held by v.
func Load(v *viper.Viper) (*Config, error) {
	var c Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&c, hook); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	c.Paths.Credentials = ExpandHome(c.Paths.Credentials)
	c.Paths.Token = ExpandHome(c.Paths.Token)
	c.Paths.Journal = ExpandHome(c.Paths.Journal)
	c.Paths.Diagnostics = ExpandHome(c.Paths.Diagnostics)
	c.Hook.ReplayDir = ExpandHome(c.Hook.ReplayDir)
	c.Hook.Sound = ExpandHome(c.Hook.Sound)
	c.YouTube.Privacy = strings.ToLower(strings.TrimSpace(c.YouTube.Privacy))

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if !slices.Contains(Privacies, c.YouTube.Privacy) {
		errs = append(errs, fmt.Errorf("youtube.privacy: %q is not one of %s", c.YouTube.Privacy, strings.Join(Privacies, "|")))
	}
	if c.YouTube.ChunkSize < 0 {
		errs = append(errs, fmt.Errorf("youtube.chunk_size: must not be negative, got %d", c.YouTube.ChunkSize))
	}
	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("retry.max_attempts: must be a positive integer, got %d", c.Retry.MaxAttempts))
	}
	if c.Retry.BackoffSeconds < 1 {
		errs = append(errs, fmt.Errorf("retry.backoff_seconds: must be a positive integer, got %d", c.Retry.BackoffSeconds))
	}
	if c.Paths.Token == "" {
		errs = append(errs, errors.New("paths.token: must be set"))
	}
	if c.Paths.Journal == "" {
		errs = append(errs, errors.New("paths.journal: must be set"))
	}
	if c.Notify.ActionTimeout < 0 {
		errs = append(errs, fmt.Errorf("notify.action_timeout: must not be negative, got %s", c.Notify.ActionTimeout))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
