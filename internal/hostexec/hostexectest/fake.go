// Package hostexectest provides a scripted hostexec.Runner for tests.
package hostexectest

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Response is what a scripted command returns.
type Response struct {
	Out string
	Err error
}

// Call records one invocation.
type Call struct {
	Argv  []string
	Stdin string
}

// Fake answers commands from a table keyed by the space-joined command line.
// Unknown commands fail as if the program were not installed.
type Fake struct {
	mu        sync.Mutex
	responses map[string]Response
	calls     []Call
}

// New returns an empty Fake.
func New() *Fake {
	return &Fake{responses: make(map[string]Response)}
}

// On scripts the response for a command line.
func (f *Fake) On(cmdline string, out string, err error) *Fake {
	f.mu.Lock()
	f.responses[cmdline] = Response{Out: out, Err: err}
	f.mu.Unlock()
	return f
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Run(ctx context.Context, stdin io.Reader, name string, args ...string) ([]byte, error) {
	argv := append([]string{name}, args...)
	call := Call{Argv: argv}
	if stdin != nil {
		b, _ := io.ReadAll(stdin)
		call.Stdin = string(b)
	}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	resp, ok := f.responses[strings.Join(argv, " ")]
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s: executable file not found in $PATH", name)
	}
	return []byte(resp.Out), resp.Err
}

// Calls returns a copy of the recorded invocations.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}
