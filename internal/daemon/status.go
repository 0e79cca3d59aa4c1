package daemon

import (
	"time"

	"cadence/internal/api"
)

// DTO converts the status to its wire representation.
func (s Status) DTO() api.DaemonStatus {
	dto := api.DaemonStatus{
		Running:      s.Running,
		PID:          s.PID,
		LockFilePath: s.LockFilePath,
		HistoryPath:  s.HistoryPath,
		Stats:        api.FromStats(s.Stats),
		Dependencies: api.FromDependencies(s.Dependencies),
		Device:       api.FromDevice(s.Device),
	}
	if !s.StartedAt.IsZero() {
		dto.StartedAt = s.StartedAt.UTC().Format(time.RFC3339)
	}
	if s.Current != nil {
		current := api.FromJob(*s.Current)
		dto.Current = &current
	}
	return dto
}
