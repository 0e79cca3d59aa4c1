package testsupport

import (
	"testing"

	"cadence/internal/config"
	"cadence/internal/convqueue"
	"cadence/internal/logging"
	"cadence/internal/output"
	"cadence/internal/transcode"
	"cadence/internal/wakelock"
)

// NewQueue builds a queue over backend that saves into cfg's output
// directory and never takes a wake lock.
func NewQueue(t testing.TB, cfg *config.Config, backend transcode.Backend) *convqueue.Queue {
	t.Helper()
	logger := logging.NewNop()
	return convqueue.New(
		backend,
		wakelock.NewManager(wakelock.None{}, "", logger),
		output.NewFromConfig(cfg, logger),
		logger,
	)
}
