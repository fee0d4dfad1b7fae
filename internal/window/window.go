// Package window identifies the application that owns the focused window.
//
// The X11 query goes through xdotool on the host; the owning process name is
// read from /proc. Detection never fails: anything that goes wrong degrades
// to the configured default label.
package window

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.klb.dev/clipup/internal/hostexec"
)

const (
	DefaultName    = "Unknown"
	DefaultTimeout = 2 * time.Second

	maxTitleLen = 50
)

// Info describes the focused window.
type Info struct {
	Title   string
	Process string
	PID     int
}

// Options tune an Inspector. Zero values select the defaults.
type Options struct {
	// DefaultName is returned when nothing matches.
	DefaultName string
	// UseWindowTitle falls back to a cleaned-up window title before
	// DefaultName when no table entry matches.
	UseWindowTitle bool
	// Timeout bounds each xdotool call.
	Timeout time.Duration
	// ProcRoot is where /proc lives; tests point it at a temp dir.
	ProcRoot string
}

// Inspector detects the active application.
type Inspector struct {
	runner hostexec.Runner
	table  Table
	opts   Options
}

// New returns an Inspector that queries through r and matches against t.
func New(r hostexec.Runner, t Table, opts Options) *Inspector {
	if opts.DefaultName == "" {
		opts.DefaultName = DefaultName
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.ProcRoot == "" {
		opts.ProcRoot = "/proc"
	}
	return &Inspector{runner: r, table: t, opts: opts}
}

// Detect returns the display name of the focused application.
func (i *Inspector) Detect(ctx context.Context) string {
	info := i.Active(ctx)
	slog.Debug("active window", "title", info.Title, "process", info.Process, "pid", info.PID)
	return i.Resolve(info)
}

// Resolve maps window information to a display name. The process name is
// consulted first because titles change with game state.
func (i *Inspector) Resolve(info Info) string {
	if name, ok := i.table.Lookup(Normalize(info.Process)); ok {
		return name
	}
	if name, ok := i.table.Lookup(Normalize(info.Title)); ok {
		return name
	}
	if i.opts.UseWindowTitle {
		if name := CleanTitle(stripInvisible(info.Title)); name != "" {
			return name
		}
	}
	return i.opts.DefaultName
}

// Active queries the focused window. Fields it could not determine are left
// empty.
func (i *Inspector) Active(ctx context.Context) Info {
	var info Info
	if out, err := i.xdotool(ctx, "getwindowname"); err != nil {
		slog.Debug("window title query failed", "runner", i.runner.Name(), "err", err)
	} else {
		info.Title = strings.TrimSpace(stripInvisible(string(out)))
	}

	out, err := i.xdotool(ctx, "getwindowpid")
	if err != nil {
		slog.Debug("window pid query failed", "runner", i.runner.Name(), "err", err)
		return info
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(out)))
	if err != nil || pid <= 0 {
		return info
	}
	info.PID = pid
	comm, err := os.ReadFile(filepath.Join(i.opts.ProcRoot, strconv.Itoa(pid), "comm"))
	if err != nil {
		slog.Debug("process name unavailable", "pid", pid, "err", err)
		return info
	}
	info.Process = strings.TrimSpace(string(comm))
	return info
}

func (i *Inspector) xdotool(ctx context.Context, query string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, i.opts.Timeout)
	defer cancel()
	return hostexec.Output(ctx, i.runner, "xdotool", "getactivewindow", query)
}

var invisible = regexp.MustCompile(`[\x{200B}-\x{200F}\x{2028}-\x{202F}\x{2060}-\x{206F}\x{FEFF}]`)

func stripInvisible(s string) string { return invisible.ReplaceAllString(s, "") }

var execSuffixes = []string{".exe", ".x86_64", ".x86", ".bin", ".appimage", ".sh"}

// Normalize prepares a title or process name for lookup: invisible
// characters removed, trimmed, lowercased, executable extension stripped.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(stripInvisible(s)))
	for _, suf := range execSuffixes {
		if strings.HasSuffix(s, suf) {
			return strings.TrimSuffix(s, suf)
		}
	}
	return s
}

// Titles of these programs are never clip names.
var nonGameApps = []string{"obs", "chrome", "firefox", "terminal", "code"}

var (
	subtitleRe = regexp.MustCompile(`\s*[-\x{2013}\x{2014}]\s.*$`)
	parensRe   = regexp.MustCompile(`\s*\(.*?\)\s*`)
	versionRe  = regexp.MustCompile(`\s*v?\d+\.\d+.*$`)
	spacesRe   = regexp.MustCompile(`\s{2,}`)
)

// CleanTitle turns a window title into something usable as a clip name, or
// returns "" when the title does not look like a game.
func CleanTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return ""
	}
	lower := strings.ToLower(title)
	for _, app := range nonGameApps {
		if strings.Contains(lower, app) {
			return ""
		}
	}
	s := subtitleRe.ReplaceAllString(title, "")
	s = parensRe.ReplaceAllString(s, " ")
	s = versionRe.ReplaceAllString(s, "")
	s = strings.TrimSpace(spacesRe.ReplaceAllString(s, " "))
	if s == "" || utf8.RuneCountInString(s) >= maxTitleLen {
		return ""
	}
	return s
}
