package replay

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Handler processes one settled clip and returns any paths it created (for
// example the renamed clip) so the Watcher does not pick them up again.
type Handler func(ctx context.Context, path string) (created []string)

// Watcher runs a Handler for every new clip in a directory once the clip has
// had no writes for the settle period. Clips are handled one at a time.
type Watcher struct {
	dir     string
	settle  time.Duration
	handle  Handler
	ignored map[string]struct{}
}

func NewWatcher(dir string, settle time.Duration, h Handler) *Watcher {
	if settle <= 0 {
		settle = 2 * time.Second
	}
	return &Watcher{dir: dir, settle: settle, handle: h, ignored: make(map[string]struct{})}
}

// Run blocks until ctx is done or the watch fails.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer fw.Close()
	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	slog.Info("watching for clips", "dir", w.dir, "settle", w.settle)

	tick := time.NewTicker(max(w.settle/4, 10*time.Millisecond))
	defer tick.Stop()
	pending := make(map[string]time.Time)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !IsClip(ev.Name) || !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if _, skip := w.ignored[ev.Name]; skip {
				continue
			}
			pending[ev.Name] = time.Now()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", "dir", w.dir, "err", err)

		case now := <-tick.C:
			for path, last := range pending {
				if now.Sub(last) < w.settle {
					continue
				}
				delete(pending, path)
				if fi, err := os.Stat(path); err != nil || !fi.Mode().IsRegular() {
					continue
				}
				slog.Info("clip settled", "path", path)
				for _, p := range w.handle(ctx, path) {
					w.ignored[p] = struct{}{}
				}
				if ctx.Err() != nil {
					return nil
				}
			}
		}
	}
}
