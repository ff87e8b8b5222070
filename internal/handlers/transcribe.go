package handlers

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/voicescribe/voicescribe/internal/queue"
	"github.com/voicescribe/voicescribe/internal/transcription"
	"github.com/voicescribe/voicescribe/internal/types"
)

// TranscribeHandler accepts voice-note uploads
type TranscribeHandler struct {
	coordinator    *queue.Coordinator
	tempDir        string
	maxSizeMB      int
	maxDurationSec int
}

// NewTranscribeHandler creates a new transcribe handler
func NewTranscribeHandler(coordinator *queue.Coordinator, tempDir string, maxSizeMB, maxDurationSec int) *TranscribeHandler {
	return &TranscribeHandler{
		coordinator:    coordinator,
		tempDir:        tempDir,
		maxSizeMB:      maxSizeMB,
		maxDurationSec: maxDurationSec,
	}
}

// Handle processes the transcription request
func (h *TranscribeHandler) Handle(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "No voice note uploaded",
			"code":  "ERR_NO_FILE",
		})
	}

	maxSize := int64(h.maxSizeMB) * 1024 * 1024
	if file.Size > maxSize {
		return c.Status(400).JSON(fiber.Map{
			"error": fmt.Sprintf("File too large (max %dMB)", h.maxSizeMB),
			"code":  "ERR_FILE_TOO_LARGE",
		})
	}

	if !transcription.ValidateAudioFormat(file.Filename) {
		return c.Status(400).JSON(fiber.Map{
			"error": "Unsupported audio format",
			"code":  "ERR_INVALID_FORMAT",
		})
	}

	tempPath := filepath.Join(h.tempDir,
		fmt.Sprintf("%s%s", uuid.New().String(), filepath.Ext(file.Filename)))
	if err := c.SaveFile(file, tempPath); err != nil {
		log.Printf("Failed to save uploaded voice note: %v", err)
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to save file",
			"code":  "ERR_SAVE_FAILED",
		})
	}

	if h.maxDurationSec > 0 {
		duration, err := transcription.ProbeDuration(tempPath)
		if err != nil {
			log.Printf("Failed to probe voice note duration: %v", err)
		} else if duration > float64(h.maxDurationSec) {
			h.removeTempFile(tempPath)
			return c.Status(400).JSON(fiber.Map{
				"error": fmt.Sprintf("Voice note too long (max %ds)", h.maxDurationSec),
				"code":  "ERR_TOO_LONG",
			})
		}
	}

	handle, identity, position, enqueued, err := h.coordinator.Request(tempPath)
	if err != nil {
		h.removeTempFile(tempPath)
		if errors.Is(err, queue.ErrSaturated) {
			return c.Status(503).JSON(fiber.Map{
				"error": "Transcription queue is full, try again later",
				"code":  "ERR_QUEUE_FULL",
			})
		}
		log.Printf("Transcription request failed: %v", err)
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to process request",
			"code":  "ERR_REQUEST_FAILED",
		})
	}

	// On a cache hit or an in-flight join no job took the file over.
	if !enqueued {
		h.removeTempFile(tempPath)
	}

	return c.JSON(ackFor(handle, identity, position, enqueued))
}

// ackFor translates the handle's state into the immediate response. A handle
// already fulfilled with a failure (a joined in-flight job that just failed)
// must ack as failed, never as an empty success.
func ackFor(handle *queue.Handle, identity string, position int, enqueued bool) types.TranscribeAck {
	if text, done, err := handle.Poll(); done {
		if err != nil {
			return types.TranscribeAck{
				Identity: identity,
				Status:   types.StatusFailed,
				Error:    err.Error(),
			}
		}
		return types.TranscribeAck{
			Identity: identity,
			Status:   types.StatusDone,
			Text:     text,
			Cached:   !enqueued,
		}
	}
	return types.TranscribeAck{
		Identity: identity,
		Status:   types.StatusQueued,
		Position: position,
	}
}

func (h *TranscribeHandler) removeTempFile(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to cleanup temp file %s: %v", path, err)
	}
}
