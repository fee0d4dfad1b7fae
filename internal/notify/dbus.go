package notify

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	dbusDest  = "org.freedesktop.Notifications"
	dbusPath  = dbus.ObjectPath("/org/freedesktop/Notifications")
	dbusIface = "org.freedesktop.Notifications"

	signalActionInvoked = dbusIface + ".ActionInvoked"
	signalClosed        = dbusIface + ".NotificationClosed"
)

// DBus sends notifications over the session bus.
type DBus struct {
	conn *dbus.Conn
	app  string
}

// NewDBus connects to the session bus.
func NewDBus(app string) (*DBus, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}
	return &DBus{conn: conn, app: app}, nil
}

func (d *DBus) Name() string { return "dbus " + dbusDest }

// Close releases the bus connection.
func (d *DBus) Close() error { return d.conn.Close() }

func (d *DBus) Send(ctx context.Context, msg Message) (string, error) {
	var signals chan *dbus.Signal
	if len(msg.Actions) > 0 {
		// Subscribe before Notify so a fast click is not missed.
		matches := []dbus.MatchOption{dbus.WithMatchInterface(dbusIface), dbus.WithMatchObjectPath(dbusPath)}
		if err := d.conn.AddMatchSignal(matches...); err != nil {
			return "", fmt.Errorf("subscribe to notification signals: %w", err)
		}
		defer func() { _ = d.conn.RemoveMatchSignal(matches...) }()
		signals = make(chan *dbus.Signal, 8)
		d.conn.Signal(signals)
		defer d.conn.RemoveSignal(signals)
	}

	actions := make([]string, 0, 2*len(msg.Actions))
	for _, a := range msg.Actions {
		actions = append(actions, a.Key, a.Label)
	}
	hints := map[string]dbus.Variant{"urgency": dbus.MakeVariant(byte(msg.Urgency))}

	var id uint32
	obj := d.conn.Object(dbusDest, dbusPath)
	call := obj.CallWithContext(ctx, dbusIface+".Notify", 0,
		d.app, uint32(0), "", msg.Summary, msg.Body, actions, hints, int32(-1))
	if err := call.Store(&id); err != nil {
		return "", fmt.Errorf("notify call: %w", err)
	}
	if signals == nil {
		return "", nil
	}

	for {
		select {
		case <-ctx.Done():
			// No click within the timeout is a normal outcome.
			return "", nil
		case sig := <-signals:
			if action, done := actionFrom(sig, id); done {
				return action, nil
			}
		}
	}
}

// actionFrom interprets a notification signal for notification id. done is
// true once the notification was clicked or closed.
func actionFrom(sig *dbus.Signal, id uint32) (action string, done bool) {
	if sig == nil || len(sig.Body) == 0 {
		return "", false
	}
	sigID, ok := sig.Body[0].(uint32)
	if !ok || sigID != id {
		return "", false
	}
	switch sig.Name {
	case signalActionInvoked:
		if len(sig.Body) < 2 {
			return "", false
		}
		key, _ := sig.Body[1].(string)
		return key, true
	case signalClosed:
		return "", true
	}
	return "", false
}
