package jobs

import (
	"sync"
	"time"

	"captioner/internal/queue"
)

// EventType classifies job events.
type EventType string

const (
	EventCreated   EventType = "created"
	EventStarted   EventType = "started"
	EventProgress  EventType = "progress"
	EventCompleted EventType = "completed"
	EventFailed    EventType = "failed"
)

// Event is one job transition.
type Event struct {
	Sequence   uint64       `json:"seq"`
	Timestamp  time.Time    `json:"ts"`
	JobID      string       `json:"job_id"`
	Type       EventType    `json:"type"`
	Status     queue.Status `json:"status"`
	Stage      string       `json:"stage,omitempty"`
	Percent    float64      `json:"percent"`
	Message    string       `json:"message,omitempty"`
	OutputPath string       `json:"output_path,omitempty"`
	Error      string       `json:"error,omitempty"`
}

// Terminal reports whether the job will publish no further events.
func (e Event) Terminal() bool {
	return e.Type == EventCompleted || e.Type == EventFailed
}

type subscriber struct {
	jobID string
	ch    chan Event
}

// hub retains a bounded event window for polling and fans events out to
// channel subscribers. Slow subscribers miss events rather than block
// publishers; polling clients can recover them by sequence.
type hub struct {
	mu       sync.Mutex
	capacity int
	buffer   []Event
	nextSeq  uint64
	subs     map[int]subscriber
	nextSub  int
}

func newHub(capacity int) *hub {
	if capacity <= 0 {
		capacity = 1024
	}
	return &hub{capacity: capacity, subs: make(map[int]subscriber)}
}

func (h *hub) publish(evt Event) Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextSeq++
	evt.Sequence = h.nextSeq
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	if len(h.buffer) == h.capacity {
		h.buffer = append(h.buffer[:0], h.buffer[1:]...)
	}
	h.buffer = append(h.buffer, evt)
	for _, sub := range h.subs {
		if sub.jobID != "" && sub.jobID != evt.JobID {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
		}
	}
	return evt
}

func (h *hub) subscribe(jobID string, buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan Event, buffer)
	h.mu.Lock()
	id := h.nextSub
	h.nextSub++
	h.subs[id] = subscriber{jobID: jobID, ch: ch}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

func (h *hub) subscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *hub) fetch(jobID string, since uint64) ([]Event, uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshotLocked(jobID, since), h.nextSeq
}

func (h *hub) snapshotLocked(jobID string, since uint64) []Event {
	var out []Event
	for _, evt := range h.buffer {
		if evt.Sequence <= since {
			continue
		}
		if jobID != "" && evt.JobID != jobID {
			continue
		}
		out = append(out, evt)
	}
	return out
}
