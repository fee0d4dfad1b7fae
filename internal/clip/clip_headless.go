package clip

// headlessBackend is used when neither a display server nor a clipboard tool
// is reachable (containers, CI).
type headlessBackend struct{}

func (headlessBackend) Name() string             { return "headless (no-op)" }
func (headlessBackend) WriteText(_ string) error { return ErrUnavailable }
