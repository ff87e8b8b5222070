package queue

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime/debug"
	"time"

	"github.com/voicescribe/voicescribe/internal/cache"
	"github.com/voicescribe/voicescribe/internal/transcription"
)

// Worker is the sole consumer of the queue. It processes one job at a time,
// in submission order; no transcription ever runs in parallel with another.
type Worker struct {
	queue       *Queue
	store       cache.Store
	transcriber transcription.Transcriber
	tracker     *inflight
	timeout     time.Duration
}

// Run loops until ctx is cancelled. Call it from exactly one goroutine.
func (w *Worker) Run(ctx context.Context) {
	log.Println("Worker started")
	for {
		job, err := w.queue.Dequeue(ctx)
		if err != nil {
			log.Printf("Worker stopping: %v", err)
			return
		}

		// Panic recovery: a bad job must not kill the loop or leave its
		// requesters hanging.
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("Worker: PANIC processing job %s: %v\n%s",
						job.ID, r, string(debug.Stack()))
					w.finish(job, "", fmt.Errorf("%w: worker panic: %v", transcription.ErrFailed, r))
				}
			}()

			w.processJob(ctx, job)
		}()
	}
}

// processJob runs the per-job pipeline: cache re-check, transcribe, store,
// fulfill.
func (w *Worker) processJob(ctx context.Context, job *Job) {
	log.Printf("Worker: processing job %s (identity: %s, queued %s ago)",
		job.ID, job.Identity, time.Since(job.SubmittedAt).Round(time.Millisecond))

	// An identical job may have completed and populated the cache while this
	// one sat in the queue.
	entry, err := w.store.Get(job.Identity)
	if err != nil {
		log.Printf("Worker: cache lookup degraded for job %s: %v", job.ID, err)
	}
	if entry != nil {
		log.Printf("Worker: job %s fulfilled from cache", job.ID)
		w.finish(job, entry.Text, nil)
		return
	}

	tctx := ctx
	if w.timeout > 0 {
		var cancel context.CancelFunc
		tctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := w.transcriber.Transcribe(tctx, job.AudioPath)
	if err != nil {
		log.Printf("Worker: transcription failed for job %s: %v", job.ID, err)
		w.finish(job, "", fmt.Errorf("%w: %v", transcription.ErrFailed, err))
		return
	}
	log.Printf("Worker: job %s transcribed in %s", job.ID, time.Since(start).Round(time.Millisecond))

	// Store before fulfilling, so anything reacting to the fulfillment
	// already sees the cache hit. A failed put only skips caching.
	if err := w.store.Put(job.Identity, text); err != nil {
		log.Printf("Worker: cache put failed for job %s (result still delivered): %v", job.ID, err)
	}

	w.finish(job, text, nil)
}

// finish resolves the sink, clears the in-flight registration and removes
// the temp audio file. Fulfill is non-blocking, so a slow observer can never
// stall the loop.
func (w *Worker) finish(job *Job, text string, err error) {
	job.Sink.Fulfill(text, err)
	w.tracker.clear(job.Identity)
	w.cleanupTempFile(job.AudioPath)
}

// cleanupTempFile removes a temporary file
func (w *Worker) cleanupTempFile(filePath string) {
	if filePath == "" {
		return
	}
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to cleanup temp file %s: %v", filePath, err)
	}
}
