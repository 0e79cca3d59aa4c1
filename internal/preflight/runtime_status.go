package preflight

import (
	"fmt"
	"os"
	"strings"

	"cadence/internal/config"
)

// systemBusSocket is where the system D-Bus listens on systemd hosts.
var systemBusSocket = "/run/dbus/system_bus_socket"

// NotificationStatus summarises the ntfy configuration without sending anything.
func NotificationStatus(cfg *config.Config) Result {
	const name = "Notifications"
	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	var events []string
	if cfg.Notifications.Queue {
		events = append(events, "queue")
	}
	if cfg.Notifications.Errors {
		events = append(events, "errors")
	}
	if len(events) == 0 {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (all events off)", topic)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", topic, strings.Join(events, ", "))}
}

// WakeLockStatus reports whether the configured wake-lock provider can plausibly work.
// A failed check is not fatal; the queue runs without a wake lock.
func WakeLockStatus(cfg *config.Config) Result {
	const name = "Wake lock"
	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	provider := strings.ToLower(strings.TrimSpace(cfg.WakeLock.Provider))
	switch provider {
	case "none":
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	case "", "login1":
		if _, err := os.Stat(systemBusSocket); err != nil {
			return Result{Name: name, Detail: "login1 (system bus not available)"}
		}
		return Result{Name: name, Passed: true, Detail: "login1 (system bus available)"}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("unknown provider %q", provider)}
	}
}
