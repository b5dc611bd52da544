// Package desktopnotify emits a session-bus signal whenever an
// application's policy module is installed or removed, so desktop shells
// can refresh any permission/confinement indicator they show, the way
// snapd's dbusutil package emits signals for its own lifecycle events.
//
// This has no effect on policy semantics: the daemon keeps working with
// no session bus reachable (headless containers, CI), it just never
// notifies anyone.
package desktopnotify

import (
	"github.com/godbus/dbus/v5"
)

const (
	objectPath = dbus.ObjectPath("/org/redpesk/SecLSMManager")
	signalName = "org.redpesk.SecLSMManager1.ModuleChanged"
)

// Notifier emits ModuleChanged signals on the session bus.
type Notifier struct {
	conn *dbus.Conn
}

// Connect dials the session bus. Callers should treat a non-nil error as
// non-fatal: running without desktop integration is a degraded mode, not a
// failure of the daemon's actual job.
func Connect() (*Notifier, error) {
	conn, err := dbus.SessionBusPrivate()
	if err != nil {
		return nil, err
	}
	if err := conn.Auth(nil); err != nil {
		conn.Close()
		return nil, err
	}
	if err := conn.Hello(); err != nil {
		conn.Close()
		return nil, err
	}
	return &Notifier{conn: conn}, nil
}

// ModuleChanged announces that id's installed state is now installed.
func (n *Notifier) ModuleChanged(id string, installed bool) error {
	return n.conn.Emit(objectPath, signalName, id, installed)
}

// Close releases the bus connection.
func (n *Notifier) Close() error {
	return n.conn.Close()
}
