package clip

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.klb.dev/clipup/internal/hostexec"
)

const commandTimeout = 3 * time.Second

// Commands are the clipboard programs tried by the command backend, in order.
var Commands = [][]string{
	{"wl-copy"},
	{"xclip", "-selection", "clipboard"},
	{"xsel", "--clipboard", "--input"},
	{"pbcopy"},
}

// commandBackend pipes text into the first clipboard program that works.
// It goes through the host runner so it also works from a Flatpak sandbox.
type commandBackend struct {
	runner hostexec.Runner
	cmds   [][]string
}

// NewCommand returns a backend that shells out through r.
func NewCommand(r hostexec.Runner) Backend {
	return &commandBackend{runner: r, cmds: Commands}
}

func (b *commandBackend) Name() string { return "clipboard command via " + b.runner.Name() }

func (b *commandBackend) WriteText(text string) error {
	var errs []error
	for _, argv := range b.cmds {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		_, err := b.runner.Run(ctx, strings.NewReader(text), argv[0], argv[1:]...)
		cancel()
		if err == nil {
			return nil
		}
		errs = append(errs, err)
	}
	return fmt.Errorf("no clipboard command succeeded: %w", errors.Join(errs...))
}
