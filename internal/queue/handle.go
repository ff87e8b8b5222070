package queue

import (
	"context"
	"sync"
)

// Handle is a single-fulfillment, multi-observer future for a transcription
// result. The worker fulfills it exactly once; any number of requesters can
// await or poll it without mutating it.
type Handle struct {
	done chan struct{}
	once sync.Once
	text string
	err  error
}

// NewHandle creates an unfulfilled handle.
func NewHandle() *Handle {
	return &Handle{done: make(chan struct{})}
}

// ResolvedHandle creates a handle already fulfilled with text, used for
// cache hits where no job is queued.
func ResolvedHandle(text string) *Handle {
	h := NewHandle()
	h.Fulfill(text, nil)
	return h
}

// Fulfill resolves the handle with either a text or an error. Only the first
// call has any effect.
func (h *Handle) Fulfill(text string, err error) {
	h.once.Do(func() {
		h.text = text
		h.err = err
		close(h.done)
	})
}

// Done is closed once the handle is fulfilled.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the handle is fulfilled or ctx is cancelled.
func (h *Handle) Wait(ctx context.Context) (string, error) {
	select {
	case <-h.done:
		return h.text, h.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Poll returns the result without blocking. ok reports whether the handle
// has been fulfilled yet; text and err are only meaningful when it is.
func (h *Handle) Poll() (text string, ok bool, err error) {
	select {
	case <-h.done:
		return h.text, true, h.err
	default:
		return "", false, nil
	}
}
