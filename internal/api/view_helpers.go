package api

import (
	"fmt"
	"time"
)

// ProgressLabel renders a job's progress for tables.
func ProgressLabel(job Job) string {
	switch job.Status {
	case "completed":
		return "100%"
	case "error":
		return "failed"
	case "waiting":
		return "-"
	default:
		return fmt.Sprintf("%.0f%%", job.Progress)
	}
}

// ResultLabel renders the output name for completed jobs or the error for failed ones.
func ResultLabel(job Job) string {
	if job.Error != "" {
		return job.Error
	}
	return job.OutputName
}

// ElapsedLabel renders elapsed processing time rounded to seconds.
func ElapsedLabel(ms int64) string {
	if ms <= 0 {
		return "-"
	}
	return (time.Duration(ms) * time.Millisecond).Round(time.Second).String()
}
