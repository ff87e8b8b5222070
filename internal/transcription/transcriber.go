package transcription

import (
	"context"
	"errors"
)

// ErrFailed wraps any speech-to-text failure, including timeouts. The cause
// is carried in the wrapping message for the requester to see.
var ErrFailed = errors.New("transcription failed")

// Transcriber converts the audio file at audioPath to text. Implementations
// may take seconds to minutes; they must honor ctx cancellation.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}
