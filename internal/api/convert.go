package api

import (
	"time"

	"cadence/internal/convqueue"
	"cadence/internal/deps"
	"cadence/internal/device"
	"cadence/internal/history"
)

// FromJob converts a queue job to its API representation.
func FromJob(job convqueue.Job) Job {
	dto := Job{
		ID:         job.ID,
		Name:       job.Name,
		Format:     string(job.Options.Format),
		Bitrate:    job.Options.EffectiveBitrate(),
		Status:     string(job.Status),
		Progress:   job.Progress,
		Error:      job.Error,
		OutputPath: job.OutputPath,
		OutputName: job.OutputName(),
		CreatedAt:  formatTime(job.CreatedAt),
		StartedAt:  formatTime(job.StartedAt),
		FinishedAt: formatTime(job.FinishedAt),
	}
	if !job.StartedAt.IsZero() {
		dto.ElapsedMS = job.Elapsed().Milliseconds()
	}
	return dto
}

// FromJobs converts a queue snapshot, preserving order.
func FromJobs(jobs []convqueue.Job) []Job {
	out := make([]Job, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, FromJob(job))
	}
	return out
}

// FromStats converts queue counters.
func FromStats(stats convqueue.Stats) QueueStats {
	return QueueStats(stats)
}

// FromDependencies converts dependency checks.
func FromDependencies(statuses []deps.Status) []DependencyStatus {
	out := make([]DependencyStatus, 0, len(statuses))
	for _, dep := range statuses {
		out = append(out, DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Path:        dep.Path,
			Version:     dep.Version,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		})
	}
	return out
}

// FromDevice converts a device probe.
func FromDevice(info device.Info) DeviceInfo {
	return DeviceInfo{
		RAMBytes: info.RAMBytes,
		Cores:    info.Cores,
		LowEnd:   info.LowEnd,
		Summary:  info.Summary(),
	}
}

// FromHistory converts history rows, preserving order.
func FromHistory(entries []history.Entry) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, HistoryEntry{
			JobID:      e.JobID,
			SourceName: e.SourceName,
			Format:     e.Format,
			Bitrate:    e.Bitrate,
			Status:     e.Status,
			OutputPath: e.OutputPath,
			Error:      e.Error,
			StartedAt:  formatTime(e.StartedAt),
			FinishedAt: formatTime(e.FinishedAt),
			DurationMS: e.Duration.Milliseconds(),
		})
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

// ParseTime parses an API timestamp, returning the zero time when empty or invalid.
func ParseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	return time.Time{}
}
