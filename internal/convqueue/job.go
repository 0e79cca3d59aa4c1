package convqueue

import (
	"path/filepath"
	"time"

	"cadence/internal/transcode"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Terminal reports whether no further transition can leave s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Job is one conversion request. Values handed out by the queue are copies.
type Job struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Source     transcode.Source  `json:"-"`
	Options    transcode.Options `json:"options"`
	Status     Status            `json:"status"`
	Progress   float64           `json:"progress"`
	Error      string            `json:"error,omitempty"`
	OutputPath string            `json:"output_path,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	StartedAt  time.Time         `json:"started_at,omitzero"`
	FinishedAt time.Time         `json:"finished_at,omitzero"`
}

// OutputName is the base name of the saved output, empty until completed.
func (j Job) OutputName() string {
	if j.OutputPath == "" {
		return ""
	}
	return filepath.Base(j.OutputPath)
}

// Elapsed is the processing time of a started job.
func (j Job) Elapsed() time.Duration {
	if j.StartedAt.IsZero() {
		return 0
	}
	end := j.FinishedAt
	if end.IsZero() {
		end = time.Now()
	}
	return end.Sub(j.StartedAt)
}

// Stats counts jobs per status.
type Stats struct {
	Waiting    int `json:"waiting"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}

// Total is the number of jobs ever added.
func (s Stats) Total() int {
	return s.Waiting + s.Processing + s.Completed + s.Failed
}

// Pending counts jobs not yet finished.
func (s Stats) Pending() int {
	return s.Waiting + s.Processing
}
