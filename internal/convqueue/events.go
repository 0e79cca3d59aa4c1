package convqueue

// EventType distinguishes queue notifications.
type EventType string

const (
	// EventSnapshot follows every state change and carries the full queue.
	EventSnapshot EventType = "snapshot"
	// EventJobFinished is sent once per job entering a terminal status,
	// before the snapshot of the same transition.
	EventJobFinished EventType = "job_finished"
)

// Event is delivered to listeners. Jobs is set for snapshots; Job for
// finished events.
type Event struct {
	Type EventType
	Jobs []Job
	Job  Job
}

// Listener observes queue events. Events arrive one at a time in a single
// total order shared by all listeners. A listener may call AddFiles; the
// events of that call are delivered after the listener returns. A listener
// must not call Wait.
type Listener interface {
	HandleQueueEvent(Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Event)

func (f ListenerFunc) HandleQueueEvent(e Event) { f(e) }
