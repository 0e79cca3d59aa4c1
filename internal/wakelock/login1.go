package wakelock

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/godbus/dbus/v5"
)

const (
	login1Service = "org.freedesktop.login1"
	login1Path    = dbus.ObjectPath("/org/freedesktop/login1")
	login1Inhibit = "org.freedesktop.login1.Manager.Inhibit"
)

// Login1 takes a systemd-logind "block" inhibitor for sleep and idle. The
// inhibitor lives as long as the returned file descriptor stays open.
type Login1 struct {
	connect func() (*dbus.Conn, error)
}

// NewLogin1 returns a provider talking to the system bus.
func NewLogin1() *Login1 {
	return &Login1{connect: func() (*dbus.Conn, error) { return dbus.ConnectSystemBus() }}
}

func (l *Login1) Name() string { return "login1" }

func (l *Login1) Inhibit(ctx context.Context, reason string) (io.Closer, error) {
	conn, err := l.connect()
	if err != nil {
		return nil, fmt.Errorf("%w: connect system bus: %v", ErrUnavailable, err)
	}
	defer conn.Close()

	var fd dbus.UnixFD
	call := conn.Object(login1Service, login1Path).CallWithContext(ctx, login1Inhibit, 0,
		"sleep:idle", "cadence", reason, "block")
	if err := call.Store(&fd); err != nil {
		return nil, fmt.Errorf("login1 inhibit: %w", err)
	}
	if fd < 0 {
		return nil, fmt.Errorf("login1 inhibit: invalid descriptor %d", fd)
	}
	return os.NewFile(uintptr(fd), "login1-inhibitor"), nil
}
