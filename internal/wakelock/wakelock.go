package wakelock

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"cadence/internal/config"
	"cadence/internal/logging"
)

// ErrUnavailable reports that the host offers no way to keep itself awake.
var ErrUnavailable = errors.New("wake lock unavailable")

// Provider requests a sleep inhibitor from the host. Closing the returned
// value releases it.
type Provider interface {
	Name() string
	Inhibit(ctx context.Context, reason string) (io.Closer, error)
}

// Handle is a held wake lock.
type Handle struct {
	once   sync.Once
	closer io.Closer
	err    error
}

func (h *Handle) release() error {
	h.once.Do(func() {
		if h.closer != nil {
			h.err = h.closer.Close()
		}
	})
	return h.err
}

// Manager acquires and releases wake locks on a best-effort basis. Failures
// are logged and never surface to callers.
type Manager struct {
	provider Provider
	reason   string
	logger   *slog.Logger
}

// NewManager returns a manager backed by provider. A nil provider behaves like
// a host without the capability.
func NewManager(provider Provider, reason string, logger *slog.Logger) *Manager {
	if provider == nil {
		provider = None{}
	}
	if strings.TrimSpace(reason) == "" {
		reason = "Converting audio files"
	}
	return &Manager{
		provider: provider,
		reason:   reason,
		logger:   logging.NewComponentLogger(logger, "wakelock"),
	}
}

// NewFromConfig builds a manager for the configured provider.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Manager, error) {
	if cfg == nil {
		return NewManager(None{}, "", logger), nil
	}
	provider, err := ProviderByName(cfg.WakeLock.Provider)
	if err != nil {
		return nil, err
	}
	return NewManager(provider, cfg.WakeLock.Reason, logger), nil
}

// ProviderByName resolves a provider from its configuration name.
func ProviderByName(name string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "login1":
		return NewLogin1(), nil
	case "none":
		return None{}, nil
	default:
		return nil, fmt.Errorf("unknown wake lock provider %q", name)
	}
}

// Acquire makes one attempt to obtain a wake lock. It returns nil when the
// capability is absent or the request fails.
func (m *Manager) Acquire(ctx context.Context) *Handle {
	if m == nil {
		return nil
	}
	closer, err := m.provider.Inhibit(ctx, m.reason)
	if err != nil {
		hint := "check that systemd-logind is reachable on the system bus"
		if errors.Is(err, ErrUnavailable) {
			hint = "set wake_lock.provider = \"none\" to silence this warning"
		}
		logging.WarnWithContext(m.logger, "wake lock not acquired", "wake_lock_unavailable",
			logging.String("provider", m.provider.Name()),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, hint),
			logging.String(logging.FieldImpact, "host may sleep during conversion"),
		)
		return nil
	}
	m.logger.Debug("wake lock acquired",
		logging.String("provider", m.provider.Name()),
		logging.String(logging.FieldEventType, "wake_lock_acquired"),
	)
	return &Handle{closer: closer}
}

// Release drops handle. Nil and already released handles are ignored.
func (m *Manager) Release(handle *Handle) {
	if handle == nil {
		return
	}
	if err := handle.release(); err != nil {
		if m != nil {
			logging.WarnWithContext(m.logger, "wake lock release failed", "wake_lock_release_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "host sleep may stay inhibited until cadence exits"),
			)
		}
		return
	}
	if m != nil {
		m.logger.Debug("wake lock released", logging.String(logging.FieldEventType, "wake_lock_released"))
	}
}

// None is the provider for hosts without a sleep inhibitor.
type None struct{}

func (None) Name() string { return "none" }

func (None) Inhibit(context.Context, string) (io.Closer, error) {
	return nil, ErrUnavailable
}
