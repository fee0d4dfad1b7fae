//go:build darwin || windows || linux

package clip

import (
	"golang.design/x/clipboard"
)

// nativeBackend talks to the platform clipboard directly. clipboard.Init is
// called from New rather than in init() so that sub-commands that never copy
// anything don't log warnings on headless systems.
type nativeBackend struct{}

func initNative() (Backend, error) {
	if err := clipboard.Init(); err != nil {
		return nil, err
	}
	return nativeBackend{}, nil
}

func (nativeBackend) Name() string { return "golang.design/x/clipboard" }

func (nativeBackend) WriteText(text string) error {
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}
