package types

// Request status constants
const (
	StatusQueued     = "QUEUED"
	StatusProcessing = "PROCESSING"
	StatusDone       = "DONE"
	StatusFailed     = "FAILED"
)

// TranscribeAck is the immediate response to a transcription request.
type TranscribeAck struct {
	Identity string `json:"identity"`
	Status   string `json:"status"`
	Position int    `json:"position,omitempty"`
	Text     string `json:"text,omitempty"`
	Cached   bool   `json:"cached,omitempty"`
	Error    string `json:"error,omitempty"`
}

// TranscriptionStatus is the poll/push view of a request's progress.
type TranscriptionStatus struct {
	Identity string `json:"identity"`
	Status   string `json:"status"`
	Text     string `json:"text,omitempty"`
	Error    string `json:"error,omitempty"`
}
