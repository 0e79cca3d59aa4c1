package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"

	"cadence/internal/convqueue"
)

// progressRenderer prints conversion progress for jobs it was told to track.
// On a terminal each job gets a redrawn progress bar; otherwise it prints a
// line when each job starts and finishes.
type progressRenderer struct {
	out         io.Writer
	interactive bool

	mu      sync.Mutex
	tracked map[string]int
	total   int
	bars    map[string]*progressbar.ProgressBar
	started map[string]bool
}

func newProgressRenderer(out io.Writer, interactive bool) *progressRenderer {
	return &progressRenderer{
		out:         out,
		interactive: interactive,
		tracked:     make(map[string]int),
		bars:        make(map[string]*progressbar.ProgressBar),
		started:     make(map[string]bool),
	}
}

func (p *progressRenderer) track(jobs []convqueue.Job) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, job := range jobs {
		p.total++
		p.tracked[job.ID] = p.total
	}
}

// HandleQueueEvent implements convqueue.Listener.
func (p *progressRenderer) HandleQueueEvent(event convqueue.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch event.Type {
	case convqueue.EventJobFinished:
		p.finished(event.Job)
	case convqueue.EventSnapshot:
		for _, job := range event.Jobs {
			if job.Status == convqueue.StatusProcessing {
				p.progress(job)
			}
		}
	}
}

func (p *progressRenderer) progress(job convqueue.Job) {
	pos, ok := p.tracked[job.ID]
	if !ok {
		return
	}
	if !p.interactive {
		if !p.started[job.ID] {
			p.started[job.ID] = true
			fmt.Fprintf(p.out, "[%d/%d] converting %s\n", pos, p.total, job.Name)
		}
		return
	}
	bar, ok := p.bars[job.ID]
	if !ok {
		bar = progressbar.NewOptions(100,
			progressbar.OptionSetWriter(p.out),
			progressbar.OptionSetDescription(fmt.Sprintf("[%d/%d] %s", pos, p.total, job.Name)),
			progressbar.OptionSetWidth(24),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionClearOnFinish(),
		)
		p.bars[job.ID] = bar
	}
	_ = bar.Set(int(job.Progress))
}

func (p *progressRenderer) finished(job convqueue.Job) {
	pos, ok := p.tracked[job.ID]
	if !ok {
		return
	}
	if bar, ok := p.bars[job.ID]; ok {
		_ = bar.Clear()
		delete(p.bars, job.ID)
	}
	if job.Status == convqueue.StatusCompleted {
		fmt.Fprintf(p.out, "[%d/%d] %s -> %s\n", pos, p.total, job.Name, job.OutputName())
		return
	}
	fmt.Fprintf(p.out, "[%d/%d] %s failed: %s\n", pos, p.total, job.Name, job.Error)
}
