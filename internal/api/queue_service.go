package api

import (
	"strings"

	"cadence/internal/convqueue"
)

// QueueReader abstracts the queue reads needed for API queries.
type QueueReader interface {
	Queue() []convqueue.Job
	Job(id string) (convqueue.Job, bool)
	Stats() convqueue.Stats
}

// QueueService exposes read-only queue operations returning API DTOs.
type QueueService struct {
	queue QueueReader
}

// NewQueueService constructs a QueueService around the provided reader.
func NewQueueService(q QueueReader) *QueueService {
	if q == nil {
		return nil
	}
	return &QueueService{queue: q}
}

// List returns jobs in submission order, optionally filtered by status.
func (s *QueueService) List(statuses ...string) []Job {
	if s == nil || s.queue == nil {
		return nil
	}
	wanted := make(map[convqueue.Status]bool, len(statuses))
	for _, status := range statuses {
		if trimmed := strings.ToLower(strings.TrimSpace(status)); trimmed != "" {
			wanted[convqueue.Status(trimmed)] = true
		}
	}
	jobs := s.queue.Queue()
	out := make([]Job, 0, len(jobs))
	for _, job := range jobs {
		if len(wanted) > 0 && !wanted[job.Status] {
			continue
		}
		out = append(out, FromJob(job))
	}
	return out
}

// Stats returns queue summary counts.
func (s *QueueService) Stats() QueueStats {
	if s == nil || s.queue == nil {
		return QueueStats{}
	}
	return FromStats(s.queue.Stats())
}

// Describe fetches a single job.
func (s *QueueService) Describe(id string) (*Job, bool) {
	if s == nil || s.queue == nil {
		return nil, false
	}
	job, ok := s.queue.Job(strings.TrimSpace(id))
	if !ok {
		return nil, false
	}
	dto := FromJob(job)
	return &dto, true
}
