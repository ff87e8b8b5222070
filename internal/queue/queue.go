package queue

import (
	"context"
	"errors"
	"sync"
)

// ErrSaturated is returned by Enqueue when a configured pending bound is hit.
var ErrSaturated = errors.New("transcription queue is full")

// Queue is a FIFO of pending transcription jobs. Enqueue never blocks the
// caller; Dequeue blocks the worker until a job arrives. Capacity is
// unbounded unless maxPending > 0.
type Queue struct {
	mu         sync.Mutex
	jobs       []*Job
	notify     chan struct{}
	maxPending int
}

// NewQueue creates a queue. maxPending of 0 means unbounded.
func NewQueue(maxPending int) *Queue {
	return &Queue{
		notify:     make(chan struct{}, 1),
		maxPending: maxPending,
	}
}

// Enqueue appends job to the tail and wakes the worker if it is waiting.
func (q *Queue) Enqueue(job *Job) error {
	q.mu.Lock()
	if q.maxPending > 0 && len(q.jobs) >= q.maxPending {
		q.mu.Unlock()
		return ErrSaturated
	}
	q.jobs = append(q.jobs, job)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return nil
}

// Dequeue removes and returns the oldest job, blocking until one is
// available or ctx is cancelled.
func (q *Queue) Dequeue(ctx context.Context) (*Job, error) {
	for {
		q.mu.Lock()
		if len(q.jobs) > 0 {
			job := q.jobs[0]
			q.jobs = q.jobs[1:]
			q.mu.Unlock()
			return job, nil
		}
		q.mu.Unlock()

		select {
		case <-q.notify:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Len returns the number of pending jobs.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}
