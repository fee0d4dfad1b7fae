//go:build !darwin && !windows && !linux

package clip

import "go.klb.dev/clipup/internal/hostexec"

// New returns a backend that uses clipboard programs reached through r, or a
// headless backend when r is nil.
func New(r hostexec.Runner) Backend {
	if r == nil {
		return headlessBackend{}
	}
	return NewCommand(r)
}
