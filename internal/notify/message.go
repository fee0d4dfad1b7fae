package notify

import (
	"errors"
	"fmt"
	"path/filepath"

	"go.klb.dev/clipup/internal/failure"
	"go.klb.dev/clipup/internal/pipeline"
)

// AppName is shown by the notification server as the sender.
const AppName = "OBS Clip Uploader"

// Urgency levels understood by org.freedesktop.Notifications.
type Urgency byte

const (
	UrgencyLow Urgency = iota
	UrgencyNormal
	UrgencyCritical
)

func (u Urgency) String() string {
	switch u {
	case UrgencyLow:
		return "low"
	case UrgencyCritical:
		return "critical"
	default:
		return "normal"
	}
}

// Action keys returned by Backend.Send.
const (
	ActionCopy = "copy"
	ActionOpen = "open"
)

// Action is a button on a notification.
type Action struct {
	Key   string
	Label string
}

// Message is one desktop notification.
type Message struct {
	Summary string
	Body    string
	Urgency Urgency
	Actions []Action
	// URL is what the copy and open actions act on.
	URL string
}

var linkActions = []Action{
	{Key: ActionCopy, Label: "Copy Link"},
	{Key: ActionOpen, Label: "Open in Browser"},
}

// Format builds the notification for an upload result. Actions are only
// offered on success.
func Format(res pipeline.Result, withActions bool) Message {
	if res.OK() {
		m := Message{Summary: "Clip Uploaded!", Body: res.URL, URL: res.URL, Urgency: UrgencyNormal}
		if withActions {
			m.Actions = linkActions
		}
		return m
	}

	body := res.Reason
	if name := filepath.Base(res.Path); res.Path != "" {
		body = fmt.Sprintf("%s: %s", name, res.Reason)
	}
	if hint := hint(res); hint != "" {
		body += "\n" + hint
	}
	return Message{Summary: "Upload Failed", Body: body, Urgency: UrgencyCritical}
}

func hint(res pipeline.Result) string {
	switch res.Kind {
	case failure.KindAuth:
		return "Run `clipup auth` to sign in again."
	case failure.KindQuota:
		return "The YouTube upload quota is used up. Try again later."
	case failure.KindTransient:
		return fmt.Sprintf("Gave up after %d attempts.", res.Attempts)
	case failure.KindInput:
		if errors.Is(res.Err, failure.ErrEmptyFile) {
			return "The recording was probably still being written."
		}
	}
	return ""
}
