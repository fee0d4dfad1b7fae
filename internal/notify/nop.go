package notify

import "context"

// Nop drops every message. It backs notify.enabled=false.
type Nop struct{}

func (Nop) Name() string                                  { return "disabled" }
func (Nop) Send(context.Context, Message) (string, error) { return "", nil }
