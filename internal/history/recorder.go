package history

import (
	"context"
	"log/slog"
	"time"

	"cadence/internal/convqueue"
	"cadence/internal/logging"
)

const recordTimeout = 5 * time.Second

// Recorder writes every finished job to the store.
type Recorder struct {
	store  *Store
	logger *slog.Logger
}

// NewRecorder returns a queue listener backed by store.
func NewRecorder(store *Store, logger *slog.Logger) *Recorder {
	return &Recorder{store: store, logger: logging.NewComponentLogger(logger, "history")}
}

// HandleQueueEvent implements convqueue.Listener.
func (r *Recorder) HandleQueueEvent(event convqueue.Event) {
	if event.Type != convqueue.EventJobFinished || r.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	if err := r.store.Record(ctx, EntryFromJob(event.Job)); err != nil {
		logging.WarnWithContext(r.logger, "history write failed", "history_write_failed",
			logging.String(logging.FieldJobID, event.Job.ID),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permissions on paths.state_dir"),
			logging.String(logging.FieldImpact, "job missing from `cadence history list`"),
		)
	}
}

// EntryFromJob converts a finished job into a history entry.
func EntryFromJob(job convqueue.Job) Entry {
	return Entry{
		JobID:      job.ID,
		SourceName: job.Name,
		Format:     string(job.Options.Format),
		Bitrate:    job.Options.EffectiveBitrate(),
		Status:     string(job.Status),
		Error:      job.Error,
		OutputPath: job.OutputPath,
		CreatedAt:  job.CreatedAt,
		StartedAt:  job.StartedAt,
		FinishedAt: job.FinishedAt,
		Duration:   job.Elapsed(),
	}
}

var _ convqueue.Listener = (*Recorder)(nil)
