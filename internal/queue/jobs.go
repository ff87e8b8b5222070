package queue

import (
	"time"

	"github.com/google/uuid"
)

// Job represents one pending or in-flight transcription request. A job is
// never mutated after creation; the worker delivers its outcome through Sink.
type Job struct {
	ID          string
	Identity    string
	AudioPath   string
	Sink        *Handle
	SubmittedAt time.Time
}

// NewJob creates a job for the voice note at audioPath.
func NewJob(identity, audioPath string) *Job {
	return &Job{
		ID:          uuid.New().String(),
		Identity:    identity,
		AudioPath:   audioPath,
		Sink:        NewHandle(),
		SubmittedAt: time.Now(),
	}
}
