//go:build darwin || windows

package clip

import (
	"log/slog"

	"go.klb.dev/clipup/internal/hostexec"
)

// New returns the native clipboard backend, falling back to clipboard
// programs reached through r.
func New(r hostexec.Runner) Backend {
	native, err := initNative()
	if err != nil {
		slog.Warn("clipboard init failed", "err", err)
	}
	var cmd Backend
	if r != nil {
		cmd = NewCommand(r)
	}
	return newChain(native, cmd)
}
