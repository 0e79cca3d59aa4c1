package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Job describes a queued conversion in a transport-friendly format.
type Job struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Format     string  `json:"format"`
	Bitrate    string  `json:"bitrate"`
	Status     string  `json:"status"`
	Progress   float64 `json:"progress"`
	Error      string  `json:"error,omitempty"`
	OutputPath string  `json:"outputPath,omitempty"`
	OutputName string  `json:"outputName,omitempty"`
	CreatedAt  string  `json:"createdAt,omitempty"`
	StartedAt  string  `json:"startedAt,omitempty"`
	FinishedAt string  `json:"finishedAt,omitempty"`
	ElapsedMS  int64   `json:"elapsedMs,omitempty"`
}

// QueueStats counts jobs per status.
type QueueStats struct {
	Waiting    int `json:"waiting"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Path        string `json:"path,omitempty"`
	Version     string `json:"version,omitempty"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// DeviceInfo reports host capabilities.
type DeviceInfo struct {
	RAMBytes uint64 `json:"ramBytes"`
	Cores    int    `json:"cores"`
	LowEnd   bool   `json:"lowEnd"`
	Summary  string `json:"summary"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	StartedAt    string             `json:"startedAt,omitempty"`
	LockFilePath string             `json:"lockFilePath"`
	HistoryPath  string             `json:"historyPath,omitempty"`
	Stats        QueueStats         `json:"stats"`
	Current      *Job               `json:"current,omitempty"`
	Dependencies []DependencyStatus `json:"dependencies"`
	Device       DeviceInfo         `json:"device"`
}

// QueueListResponse wraps the queue snapshot.
type QueueListResponse struct {
	Jobs []Job `json:"jobs"`
}

// JobResponse wraps a single job.
type JobResponse struct {
	Job Job `json:"job"`
}

// AddRequest submits local files for conversion. Empty Format and Bitrate use
// the daemon defaults.
type AddRequest struct {
	Paths   []string `json:"paths"`
	Format  string   `json:"format,omitempty"`
	Bitrate string   `json:"bitrate,omitempty"`
	NoStart bool     `json:"noStart,omitempty"`
}

// AddResponse lists the jobs created by an AddRequest.
type AddResponse struct {
	Jobs []Job `json:"jobs"`
}

// HistoryEntry is a finished conversion recorded by the daemon.
type HistoryEntry struct {
	JobID      string `json:"jobId"`
	SourceName string `json:"sourceName"`
	Format     string `json:"format"`
	Bitrate    string `json:"bitrate"`
	Status     string `json:"status"`
	OutputPath string `json:"outputPath,omitempty"`
	Error      string `json:"error,omitempty"`
	StartedAt  string `json:"startedAt,omitempty"`
	FinishedAt string `json:"finishedAt,omitempty"`
	DurationMS int64  `json:"durationMs"`
}

// HistoryListResponse wraps history entries, newest first.
type HistoryListResponse struct {
	Entries []HistoryEntry `json:"entries"`
}

// StatusLine is one labelled row of status output.
type StatusLine struct {
	Label    string `json:"label"`
	Severity string `json:"severity"`
	Detail   string `json:"detail"`
}

// DependencySummary aggregates dependency readiness.
type DependencySummary struct {
	Total           int    `json:"total"`
	Available       int    `json:"available"`
	MissingRequired int    `json:"missingRequired"`
	MissingOptional int    `json:"missingOptional"`
	Severity        string `json:"severity"`
	Detail          string `json:"detail"`
}
