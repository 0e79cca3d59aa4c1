package api

import (
	"testing"

	"cadence/internal/convqueue"
	"cadence/internal/transcode"
)

type queueStub struct {
	jobs []convqueue.Job
}

func (s *queueStub) Queue() []convqueue.Job { return s.jobs }

func (s *queueStub) Job(id string) (convqueue.Job, bool) {
	for _, job := range s.jobs {
		if job.ID == id {
			return job, true
		}
	}
	return convqueue.Job{}, false
}

func (s *queueStub) Stats() convqueue.Stats {
	var stats convqueue.Stats
	for _, job := range s.jobs {
		switch job.Status {
		case convqueue.StatusWaiting:
			stats.Waiting++
		case convqueue.StatusCompleted:
			stats.Completed++
		}
	}
	return stats
}

func TestQueueServiceListFilters(t *testing.T) {
	opts := transcode.Options{Format: transcode.FormatM4A}
	svc := NewQueueService(&queueStub{jobs: []convqueue.Job{
		{ID: "1", Name: "a.wav", Status: convqueue.StatusCompleted, Options: opts},
		{ID: "2", Name: "b.wav", Status: convqueue.StatusWaiting, Options: opts},
		{ID: "3", Name: "c.wav", Status: convqueue.StatusWaiting, Options: opts},
	}})

	all := svc.List()
	if len(all) != 3 || all[0].ID != "1" || all[2].ID != "3" {
		t.Fatalf("unexpected list %#v", all)
	}
	waiting := svc.List(" Waiting ")
	if len(waiting) != 2 || waiting[0].ID != "2" {
		t.Fatalf("unexpected filtered list %#v", waiting)
	}
	if stats := svc.Stats(); stats.Waiting != 2 || stats.Completed != 1 {
		t.Fatalf("unexpected stats %#v", stats)
	}
}

func TestQueueServiceDescribe(t *testing.T) {
	svc := NewQueueService(&queueStub{jobs: []convqueue.Job{{ID: "1", Name: "a.wav"}}})
	if job, ok := svc.Describe("1"); !ok || job.Name != "a.wav" {
		t.Fatalf("describe = %#v %v", job, ok)
	}
	if _, ok := svc.Describe("missing"); ok {
		t.Fatal("expected missing job")
	}
	var nilSvc *QueueService
	if nilSvc.List() != nil {
		t.Fatal("nil service should list nothing")
	}
}
