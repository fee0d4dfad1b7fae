// Package hostexec runs desktop helper programs (xdotool, notify-send,
// paplay, wl-copy) on the host session.
//
// When clipup runs inside a Flatpak sandbox (for example launched from the
// Flatpak build of OBS) those programs live outside the sandbox and must be
// reached through "flatpak-spawn --host". The choice is made once by Detect
// and every caller goes through the returned Runner.
package hostexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"
)

// FlatpakInfoPath exists only inside a Flatpak sandbox.
const FlatpakInfoPath = "/.flatpak-info"

// DefaultDisplay is used when DISPLAY is unset, which is the norm for
// processes spawned by a recorder's scripting host.
const DefaultDisplay = ":0"

// pipeGrace bounds how long Run waits for output pipes after the program
// exits. wl-copy and xclip fork a child that keeps stdout open while it
// serves the selection.
const pipeGrace = 500 * time.Millisecond

// Runner executes a program and returns its stdout.
type Runner interface {
	// Name returns a human-readable name for the runner.
	Name() string

	// Run executes name with args, feeding stdin if non-nil. A non-zero exit
	// status is an error whose message includes the program's stderr.
	Run(ctx context.Context, stdin io.Reader, name string, args ...string) ([]byte, error)
}

// Output is Run without stdin.
func Output(ctx context.Context, r Runner, name string, args ...string) ([]byte, error) {
	return r.Run(ctx, nil, name, args...)
}

// Detect returns the Flatpak runner when running sandboxed and the direct
// runner otherwise.
func Detect() Runner {
	return detect(fileExists, os.Getenv)
}

func detect(exists func(string) bool, getenv func(string) string) Runner {
	display := getenv("DISPLAY")
	if exists(FlatpakInfoPath) {
		return &flatpakRunner{display: display}
	}
	return &directRunner{display: display}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

type directRunner struct {
	display string
}

func (r *directRunner) Name() string { return "direct" }

func (r *directRunner) Run(ctx context.Context, stdin io.Reader, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if r.display == "" {
		cmd.Env = append(os.Environ(), "DISPLAY="+DefaultDisplay)
	}
	return run(cmd, stdin)
}

type flatpakRunner struct {
	display string
}

func (r *flatpakRunner) Name() string { return "flatpak-spawn --host" }

func (r *flatpakRunner) Run(ctx context.Context, stdin io.Reader, name string, args ...string) ([]byte, error) {
	argv := r.argv(name, args)
	return run(exec.CommandContext(ctx, argv[0], argv[1:]...), stdin)
}

// argv builds the flatpak-spawn command line. Environment reaches the host
// process only through --env.
func (r *flatpakRunner) argv(name string, args []string) []string {
	argv := []string{"flatpak-spawn", "--host"}
	display := r.display
	if display == "" {
		display = DefaultDisplay
	}
	argv = append(argv, "--env=DISPLAY="+display, name)
	return append(argv, args...)
}

func run(cmd *exec.Cmd, stdin io.Reader) ([]byte, error) {
	var stderr bytes.Buffer
	cmd.Stdin = stdin
	cmd.Stderr = &stderr
	cmd.WaitDelay = pipeGrace
	out, err := cmd.Output()
	if errors.Is(err, exec.ErrWaitDelay) {
		err = nil
	}
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return out, fmt.Errorf("%s: %w: %s", cmd.Args[0], err, msg)
		}
		return out, fmt.Errorf("%s: %w", cmd.Args[0], err)
	}
	return out, nil
}
