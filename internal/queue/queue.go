// internal/queue/queue.go
package queue

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Queue decouples run submission from run execution. Publish hands a
// payload to every subscriber of the topic; delivery semantics depend on
// the implementation.
type Queue interface {
	Publish(topic string, payload any) error
	Subscribe(topic string, handler func(payload any) error) error
}

// InMemoryQueue delivers payloads to in-process subscribers, redelivering
// to failed handlers with a linear backoff. The single-binary server runs
// on it; production deployments consume over AMQP (amqp.go).
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]func(payload any) error
	log      *zap.SugaredLogger

	// MaxRetries is how many redeliveries a failing handler gets after its
	// first attempt; Backoff scales linearly with the attempt number.
	MaxRetries int
	Backoff    time.Duration
}

func NewInMemoryQueue(log *zap.SugaredLogger) *InMemoryQueue {
	return &InMemoryQueue{
		handlers:   make(map[string][]func(payload any) error),
		log:        log,
		MaxRetries: 3,
		Backoff:    500 * time.Millisecond,
	}
}

// Publish fans the payload out to every subscriber of the topic, each on
// its own goroutine. Publishing to a topic nobody subscribed to is an
// error; the payload would be silently lost otherwise.
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}
	for _, handler := range handlers {
		go q.processJob(handler, payload)
	}
	return nil
}

func (q *InMemoryQueue) processJob(handler func(payload any) error, payload any) {
	for attempt := 1; ; attempt++ {
		err := handler(payload)
		if err == nil {
			return
		}
		if attempt > q.MaxRetries {
			q.log.Errorw("job permanently failed", "attempts", attempt, "payload", payload)
			return
		}
		q.log.Warnw("job failed, will retry", "attempt", attempt, "max", q.MaxRetries, "error", err)
		time.Sleep(time.Duration(attempt) * q.Backoff)
	}
}

// Subscribe registers a handler for a topic. Multiple handlers per topic
// each receive every payload.
func (q *InMemoryQueue) Subscribe(topic string, handler func(payload any) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}
