package services

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/manthysbr/briefing/internal/core/domain"
)

type EventType string

const (
	EventTypeStatus EventType = "status"
	EventTypeLog    EventType = "log"
)

// Event is a job lifecycle notification. Data is a JSON payload for status
// events and raw text for log events.
type Event struct {
	JobID     domain.JobID
	Type      EventType
	Data      string
	Timestamp int64
}

// StatusPayload is the JSON body of a status event.
type StatusPayload struct {
	Status   domain.JobStatus `json:"status"`
	Progress int              `json:"progress"`
}

type EventBus struct {
	logger *slog.Logger
	mu     sync.RWMutex
	subs   map[domain.JobID][]chan Event
}

func NewEventBus(logger *slog.Logger) *EventBus {
	return &EventBus{
		logger: logger,
		subs:   make(map[domain.JobID][]chan Event),
	}
}

// Subscribe returns a channel that receives events for a specific job and a
// function that closes it.
func (b *EventBus) Subscribe(jobID domain.JobID) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, 32)
	b.subs[jobID] = append(b.subs[jobID], ch)

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()

			subscribers := b.subs[jobID]
			for i, sub := range subscribers {
				if sub == ch {
					close(ch)
					b.subs[jobID] = append(subscribers[:i], subscribers[i+1:]...)
					break
				}
			}
			if len(b.subs[jobID]) == 0 {
				delete(b.subs, jobID)
			}
		})
	}

	return ch, unsub
}

// Close ends every subscription of the job. Their channels are closed and
// later unsubscribes are no-ops.
func (b *EventBus) Close(jobID domain.JobID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs[jobID] {
		close(ch)
	}
	delete(b.subs, jobID)
}

// Publish sends an event to all subscribers of the job. Slow subscribers lose
// events rather than block the publisher.
func (b *EventBus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs[e.JobID] {
		select {
		case ch <- e:
		default:
			b.logger.Warn("event bus channel full, dropping event", "job_id", e.JobID)
		}
	}
}

// PublishStatus emits a status event with a progress percentage.
func (b *EventBus) PublishStatus(jobID domain.JobID, status domain.JobStatus, progress int) {
	data, err := json.Marshal(StatusPayload{Status: status, Progress: progress})
	if err != nil {
		return
	}
	b.Publish(Event{
		JobID:     jobID,
		Type:      EventTypeStatus,
		Data:      string(data),
		Timestamp: time.Now().Unix(),
	})
}

// PublishLog emits a free-form log line for the job.
func (b *EventBus) PublishLog(jobID domain.JobID, line string) {
	b.Publish(Event{
		JobID:     jobID,
		Type:      EventTypeLog,
		Data:      line,
		Timestamp: time.Now().Unix(),
	})
}
