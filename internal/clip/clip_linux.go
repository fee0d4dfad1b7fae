//go:build linux

package clip

import (
	"log/slog"

	"go.klb.dev/clipup/internal/hostexec"
)

// New returns the Linux clipboard backend. X11 selections are owned by the
// writing process, so the external tools, which stay alive to serve the
// selection, are preferred over the in-process library.
func New(r hostexec.Runner) Backend {
	var cmd Backend
	if r != nil {
		cmd = NewCommand(r)
	}
	native, err := initNative()
	if err != nil {
		slog.Debug("native clipboard unavailable", "err", err)
	}
	return newChain(cmd, native)
}
