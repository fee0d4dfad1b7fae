// Package notify tells the user how an upload went through the desktop
// notification service.
//
// The D-Bus backend talks to org.freedesktop.Notifications directly and can
// wait for an action click. The command backend runs notify-send through the
// host runner and is used when the session bus is out of reach, for example
// from a sandbox without a bus portal.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.klb.dev/clipup/internal/clip"
	"go.klb.dev/clipup/internal/failure"
	"go.klb.dev/clipup/internal/hostexec"
	"go.klb.dev/clipup/internal/pipeline"
)

// Backend delivers a Message. When the message carries actions Send blocks
// until one is clicked, the notification is dismissed, or ctx is done, and
// returns the clicked action key ("" for none).
type Backend interface {
	Name() string
	Send(ctx context.Context, msg Message) (action string, err error)
}

// Detect returns the D-Bus backend when the session bus is reachable and the
// notify-send backend otherwise.
func Detect(r hostexec.Runner) Backend {
	b, err := NewDBus(AppName)
	if err == nil {
		return b
	}
	slog.Debug("session bus unavailable, using notify-send", "err", err)
	return NewCommand(r, AppName)
}

// Options configure a Dispatcher.
type Options struct {
	// Actions offers Copy Link and Open in Browser on success.
	Actions bool
	// ActionTimeout bounds the wait for a click.
	ActionTimeout time.Duration
	Clipboard     clip.Backend
	// OpenURL opens a link in the browser.
	OpenURL func(url string) error
}

// Dispatcher formats results, sends them and carries out the chosen action.
type Dispatcher struct {
	backend Backend
	opts    Options
}

func NewDispatcher(b Backend, opts Options) *Dispatcher {
	if opts.Clipboard == nil || opts.OpenURL == nil {
		opts.Actions = false
	}
	return &Dispatcher{backend: b, opts: opts}
}

// Notify reports res. Errors are classified as notification failures; callers
// log them and must not let them change the upload outcome.
func (d *Dispatcher) Notify(ctx context.Context, res pipeline.Result) error {
	msg := Format(res, d.opts.Actions)

	sendCtx := ctx
	if len(msg.Actions) > 0 && d.opts.ActionTimeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, d.opts.ActionTimeout)
		defer cancel()
	}

	action, err := d.backend.Send(sendCtx, msg)
	if err != nil {
		return failure.New("notify", failure.KindNotification, fmt.Errorf("%s: %w", d.backend.Name(), err))
	}
	if action == "" {
		return nil
	}
	slog.Debug("notification action", "action", action)
	return d.act(ctx, action, msg.URL)
}

func (d *Dispatcher) act(ctx context.Context, action, url string) error {
	switch action {
	case ActionCopy:
		if err := d.opts.Clipboard.WriteText(url); err != nil {
			slog.Warn("copy to clipboard failed", "backend", d.opts.Clipboard.Name(), "err", err)
			_, sendErr := d.backend.Send(ctx, Message{
				Summary: "Copy Failed",
				Body:    "Install wl-copy or xclip",
				Urgency: UrgencyCritical,
			})
			return failure.New("copy link", failure.KindNotification, errors.Join(err, sendErr))
		}
		slog.Info("copied URL to clipboard", "url", url)
		if _, err := d.backend.Send(ctx, Message{Summary: "Link Copied!", Body: url, Urgency: UrgencyLow}); err != nil {
			return failure.New("notify", failure.KindNotification, err)
		}
	case ActionOpen:
		slog.Info("opening URL in browser", "url", url)
		if err := d.opts.OpenURL(url); err != nil {
			return failure.New("open link", failure.KindNotification, err)
		}
	default:
		slog.Debug("ignoring unknown notification action", "action", action)
	}
	return nil
}
