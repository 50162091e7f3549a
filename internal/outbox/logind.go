package outbox

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	login1Path    = "/org/freedesktop/login1"
	login1Manager = "org.freedesktop.login1.Manager"
	login1Session = "org.freedesktop.login1.Session"
)

// Logind fires when the machine wakes from sleep or a session is unlocked,
// the moments a laptop typically regains its network.
type Logind struct{}

func (Logind) String() string { return "logind" }

func (Logind) Watch(ctx context.Context, fire func()) error {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return fmt.Errorf("failed to connect to system bus: %w", err)
	}
	defer conn.Close()

	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(login1Path),
		dbus.WithMatchInterface(login1Manager),
		dbus.WithMatchMember("PrepareForSleep"),
	); err != nil {
		return fmt.Errorf("add match failed: %w", err)
	}
	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface("org.freedesktop.DBus.Properties"),
		dbus.WithMatchMember("PropertiesChanged"),
	); err != nil {
		return fmt.Errorf("add match for PropertiesChanged failed: %w", err)
	}

	c := make(chan *dbus.Signal, 10)
	conn.Signal(c)
	defer conn.RemoveSignal(c)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sig, ok := <-c:
			if !ok {
				return fmt.Errorf("system bus connection closed")
			}
			if wokeOrUnlocked(sig) {
				fire()
			}
		}
	}
}

// wokeOrUnlocked reports whether sig is a resume from sleep or a session
// unlock.
func wokeOrUnlocked(sig *dbus.Signal) bool {
	switch sig.Name {
	case login1Manager + ".PrepareForSleep":
		if len(sig.Body) == 0 {
			return false
		}
		sleeping, _ := sig.Body[0].(bool)
		return !sleeping
	case "org.freedesktop.DBus.Properties.PropertiesChanged":
		if len(sig.Body) < 2 {
			return false
		}
		if iface, _ := sig.Body[0].(string); iface != login1Session {
			return false
		}
		changed, ok := sig.Body[1].(map[string]dbus.Variant)
		if !ok {
			return false
		}
		val, exists := changed["LockedHint"]
		if !exists {
			return false
		}
		locked, _ := val.Value().(bool)
		return !locked
	}
	return false
}
