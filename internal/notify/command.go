package notify

import (
	"context"
	"strings"

	"go.klb.dev/clipup/internal/hostexec"
)

// Command runs notify-send. With --action, notify-send prints the key of the
// clicked action and exits.
type Command struct {
	runner hostexec.Runner
	app    string
}

func NewCommand(r hostexec.Runner, app string) *Command {
	return &Command{runner: r, app: app}
}

func (c *Command) Name() string { return "notify-send via " + c.runner.Name() }

func (c *Command) Send(ctx context.Context, msg Message) (string, error) {
	out, err := c.runner.Run(ctx, nil, "notify-send", c.args(msg, true)...)
	switch {
	case err == nil:
		return strings.TrimSpace(string(out)), nil
	case ctx.Err() != nil && len(msg.Actions) > 0:
		// Timed out waiting for a click.
		return "", nil
	case len(msg.Actions) > 0:
		// Older notify-send builds reject --action.
		_, err = c.runner.Run(ctx, nil, "notify-send", c.args(msg, false)...)
	}
	return "", err
}

func (c *Command) args(msg Message, withActions bool) []string {
	args := []string{"-u", msg.Urgency.String(), "-a", c.app}
	if withActions {
		for _, a := range msg.Actions {
			args = append(args, "--action="+a.Key+"="+a.Label)
		}
	}
	return append(args, msg.Summary, msg.Body)
}
