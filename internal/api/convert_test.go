package api

import (
	"testing"
	"time"

	"cadence/internal/convqueue"
	"cadence/internal/history"
	"cadence/internal/transcode"
)

func TestFromJob(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	job := convqueue.Job{
		ID:         "abc",
		Name:       "song.flac",
		Options:    transcode.Options{Format: transcode.FormatMP3},
		Status:     convqueue.StatusCompleted,
		Progress:   100,
		OutputPath: "/music/song.mp3",
		CreatedAt:  start.Add(-time.Minute),
		StartedAt:  start,
		FinishedAt: start.Add(90 * time.Second),
	}

	dto := FromJob(job)
	if dto.Format != "mp3" || dto.Bitrate != "128k" {
		t.Fatalf("unexpected format/bitrate %q %q", dto.Format, dto.Bitrate)
	}
	if dto.OutputName != "song.mp3" {
		t.Fatalf("output name = %q", dto.OutputName)
	}
	if dto.StartedAt != "2026-03-01T10:00:00.000Z" {
		t.Fatalf("started at = %q", dto.StartedAt)
	}
	if dto.ElapsedMS != 90_000 {
		t.Fatalf("elapsed = %d", dto.ElapsedMS)
	}
	if !ParseTime(dto.FinishedAt).Equal(job.FinishedAt) {
		t.Fatalf("finished at does not round trip: %q", dto.FinishedAt)
	}
}

func TestFromJobWaitingOmitsTimes(t *testing.T) {
	dto := FromJob(convqueue.Job{ID: "w", Status: convqueue.StatusWaiting, Options: transcode.Options{Format: transcode.FormatM4A, Bitrate: "192k"}})
	if dto.StartedAt != "" || dto.FinishedAt != "" || dto.ElapsedMS != 0 {
		t.Fatalf("waiting job should have no timing: %#v", dto)
	}
	if dto.Bitrate != "192k" {
		t.Fatalf("bitrate = %q", dto.Bitrate)
	}
	if got := ProgressLabel(dto); got != "-" {
		t.Fatalf("progress label = %q", got)
	}
}

func TestFromHistory(t *testing.T) {
	entries := FromHistory([]history.Entry{{JobID: "1", Status: "error", Error: "boom", Duration: 2500 * time.Millisecond}})
	if len(entries) != 1 || entries[0].DurationMS != 2500 || entries[0].Error != "boom" {
		t.Fatalf("unexpected entries %#v", entries)
	}
	if ElapsedLabel(entries[0].DurationMS) != "3s" {
		t.Fatalf("elapsed label = %q", ElapsedLabel(entries[0].DurationMS))
	}
}
