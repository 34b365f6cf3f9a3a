package main

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	notifyDest   = "org.freedesktop.Notifications"
	notifyPath   = "/org/freedesktop/Notifications"
	notifyMethod = "org.freedesktop.Notifications.Notify"

	notifyTimeoutMs = 5000
)

// notifySink shows a desktop notification for the committed color.
type notifySink struct{}

func (notifySink) Name() string { return "notify" }

func (notifySink) Commit(ctx context.Context, c RGB) error {
	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("connecting to session bus: %w", err)
	}

	obj := conn.Object(notifyDest, dbus.ObjectPath(notifyPath))
	call := obj.CallWithContext(ctx, notifyMethod, 0,
		"pickme",       // app_name
		uint32(0),      // replaces_id
		"color-select", // app_icon
		"Color picked", // summary
		notifyBody(c),  // body
		[]string{},     // actions
		map[string]dbus.Variant{},
		int32(notifyTimeoutMs),
	)
	if call.Err != nil {
		return fmt.Errorf("sending notification: %w", call.Err)
	}
	return nil
}

func notifyBody(c RGB) string {
	return fmt.Sprintf("%s copied to clipboard (rgb %d, %d, %d)", c, c.R, c.G, c.B)
}
