// Package replay finds, renames and watches the clips a recorder's replay
// buffer saves.
package replay

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.klb.dev/clipup/internal/config"
)

// Extensions are the clip containers picked up by FindLatest and Watcher.
var Extensions = []string{".mp4", ".mkv"}

// FallbackDirs are searched, in order, when no replay directory is configured.
var FallbackDirs = []string{"~/Videos/Replays", "~/Videos", "~/OBS"}

// StampLayout is the timestamp in renamed clip file names. It avoids ':'
// which some file systems reject.
const StampLayout = "2006-01-02 15-04"

var (
	ErrNoReplayDir = errors.New("could not determine replay directory")
	ErrNoClips     = errors.New("no replay file found")
)

// IsClip reports whether path has a clip extension.
func IsClip(path string) bool {
	return slices.Contains(Extensions, strings.ToLower(filepath.Ext(path)))
}

// ResolveDir returns configured when it is a directory, otherwise the first
// existing fallback.
func ResolveDir(configured string) (string, error) {
	candidates := FallbackDirs
	if configured != "" {
		candidates = append([]string{configured}, FallbackDirs...)
	}
	for _, c := range candidates {
		dir := config.ExpandHome(c)
		if fi, err := os.Stat(dir); err == nil && fi.IsDir() {
			return dir, nil
		}
	}
	return "", ErrNoReplayDir
}

// FindLatest returns the most recently modified clip in dir.
func FindLatest(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read replay dir: %w", err)
	}

	var (
		latest  string
		latestT time.Time
	)
	for _, e := range entries {
		if !e.Type().IsRegular() || !IsClip(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if latest == "" || info.ModTime().After(latestT) {
			latest = filepath.Join(dir, e.Name())
			latestT = info.ModTime()
		}
	}
	if latest == "" {
		return "", fmt.Errorf("%w in %s", ErrNoClips, dir)
	}
	return latest, nil
}

// Rename moves path to "<app> - <stamp><ext>" in the same directory. If the
// target already exists the clip keeps its name. The returned path is the
// one to use from now on, even when err is non-nil.
func Rename(path, app string, at time.Time) (string, error) {
	name := fmt.Sprintf("%s - %s%s", fileSafe(app), at.Format(StampLayout), filepath.Ext(path))
	target := filepath.Join(filepath.Dir(path), name)
	if target == path {
		return path, nil
	}
	if _, err := os.Lstat(target); err == nil {
		return path, nil
	}
	if err := os.Rename(path, target); err != nil {
		return path, fmt.Errorf("rename clip: %w", err)
	}
	return target, nil
}

var unsafeChars = strings.NewReplacer("/", "-", "\\", "-", "\x00", "", ":", "-")

func fileSafe(s string) string {
	s = strings.TrimSpace(unsafeChars.Replace(s))
	if s == "" || s == "." || s == ".." {
		return "Clip"
	}
	return s
}
