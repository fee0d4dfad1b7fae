// Package clip puts text on the system clipboard. Build constraints select
// the implementation:
//
//	clip_linux.go    external tools (wl-copy, xclip, xsel) first, then golang.design/x/clipboard
//	clip_desktop.go  macOS and Windows via golang.design/x/clipboard
//	clip_other.go    external tools only
//
// When nothing works New returns a headless backend that reports an error.
package clip

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnavailable is returned by the headless backend.
var ErrUnavailable = errors.New("no clipboard available")

// Backend is the interface that all clipboard implementations satisfy.
type Backend interface {
	// Name returns a human-readable name for the backend.
	Name() string

	// WriteText replaces the clipboard contents with text.
	WriteText(text string) error
}

// chain tries each backend in order until one succeeds.
type chain []Backend

func (c chain) Name() string {
	names := make([]string, len(c))
	for i, b := range c {
		names[i] = b.Name()
	}
	return strings.Join(names, ", ")
}

func (c chain) WriteText(text string) error {
	var errs []error
	for _, b := range c {
		err := b.WriteText(text)
		if err == nil {
			return nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", b.Name(), err))
	}
	return errors.Join(errs...)
}

func newChain(backends ...Backend) Backend {
	var c chain
	for _, b := range backends {
		if b != nil {
			c = append(c, b)
		}
	}
	switch len(c) {
	case 0:
		return headlessBackend{}
	case 1:
		return c[0]
	}
	return c
}
