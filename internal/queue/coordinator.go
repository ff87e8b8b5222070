package queue

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/voicescribe/voicescribe/internal/cache"
	"github.com/voicescribe/voicescribe/internal/transcription"
)

// Coordinator is the entry point for transcription requests. It computes the
// voice-note identity, short-circuits on cache hits, fans duplicate
// concurrent requests into one in-flight job, and enqueues the rest.
type Coordinator struct {
	store   cache.Store
	queue   *Queue
	tracker *inflight
}

// NewCoordinator creates a coordinator over the given store and queue.
func NewCoordinator(store cache.Store, q *Queue) *Coordinator {
	return &Coordinator{
		store:   store,
		queue:   q,
		tracker: newInflight(),
	}
}

// Worker builds the sequential worker sharing this coordinator's in-flight
// table, so fulfillment clears the registration the coordinator made.
func (c *Coordinator) Worker(t transcription.Transcriber, timeout time.Duration) *Worker {
	return &Worker{
		queue:       c.queue,
		store:       c.store,
		transcriber: t,
		tracker:     c.tracker,
		timeout:     timeout,
	}
}

// Request resolves the voice note at audioPath to a Handle. The returned
// position is the queue slot at enqueue time (0 when nothing was queued,
// cached or shared). enqueued reports whether this call created a new job
// and therefore transferred ownership of audioPath to the worker.
func (c *Coordinator) Request(audioPath string) (h *Handle, identity string, position int, enqueued bool, err error) {
	identity, err = Identify(audioPath)
	if err != nil {
		return nil, "", 0, false, err
	}

	entry, err := c.store.Get(identity)
	if err != nil {
		// A broken cache never blocks a transcription.
		log.Printf("Coordinator: cache lookup degraded for %s: %v", identity, err)
	}
	if entry != nil {
		return ResolvedHandle(entry.Text), identity, 0, false, nil
	}

	job := NewJob(identity, audioPath)
	h, registered := c.tracker.lookupOrRegister(identity, job.Sink)
	if !registered {
		// Same note is already queued or transcribing; share its result.
		log.Printf("Coordinator: joining in-flight transcription for %s", identity)
		return h, identity, 0, false, nil
	}

	if err := c.queue.Enqueue(job); err != nil {
		c.tracker.clear(identity)
		return nil, identity, 0, false, err
	}
	position = c.queue.Len()
	log.Printf("Coordinator: job %s enqueued (identity: %s, position: %d)", job.ID, identity, position)
	return h, identity, position, true, nil
}

// Lookup returns the in-flight handle for identity, if any.
func (c *Coordinator) Lookup(identity string) (*Handle, bool) {
	return c.tracker.lookup(identity)
}

// InflightCount returns the number of identities queued or transcribing.
func (c *Coordinator) InflightCount() int {
	return c.tracker.size()
}

// QueueLen returns the number of pending jobs.
func (c *Coordinator) QueueLen() int {
	return c.queue.Len()
}

// Identify derives the stable identity of a voice note from its content.
// Identical audio always hashes to the same key, so a note re-uploaded under
// a different name still dedups.
func Identify(audioPath string) (string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("failed to read audio for identity: %v", err)
	}
	defer f.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, f); err != nil {
		return "", fmt.Errorf("failed to hash audio: %v", err)
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
