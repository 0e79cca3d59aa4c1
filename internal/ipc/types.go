package ipc

import "cadence/internal/api"

// Job mirrors the HTTP API job DTO for IPC callers.
type Job = api.Job

// HistoryEntry mirrors the HTTP API history DTO.
type HistoryEntry = api.HistoryEntry

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse is the combined daemon and queue status.
type StatusResponse = api.DaemonStatus

// AddRequest submits local files for conversion.
type AddRequest = api.AddRequest

// AddResponse lists the jobs created by Add.
type AddResponse = api.AddResponse

// QueueListRequest filters the queue snapshot by status.
type QueueListRequest struct {
	Statuses []string `json:"statuses"`
}

// QueueListResponse contains the queue snapshot in submission order.
type QueueListResponse struct {
	Jobs []Job `json:"jobs"`
}

// ProcessRequest wakes the queue worker.
type ProcessRequest struct{}

// ProcessResponse reports the queue counts after the wake-up.
type ProcessResponse struct {
	Stats api.QueueStats `json:"stats"`
}

// HistoryRequest lists finished jobs.
type HistoryRequest struct {
	Limit int `json:"limit"`
}

// HistoryResponse contains finished jobs, newest first.
type HistoryResponse struct {
	Entries []HistoryEntry `json:"entries"`
}

// StopRequest asks the daemon process to exit.
type StopRequest struct{}

// StopResponse acknowledges a stop request.
type StopResponse struct {
	Stopping bool `json:"stopping"`
}

// TestNotificationRequest triggers a test notification.
type TestNotificationRequest struct{}

// TestNotificationResponse reports the test result.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
