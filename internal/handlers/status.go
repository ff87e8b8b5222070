package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/voicescribe/voicescribe/internal/cache"
	"github.com/voicescribe/voicescribe/internal/queue"
	"github.com/voicescribe/voicescribe/internal/types"
)

// StatusHandler serves poll, listing and stats endpoints
type StatusHandler struct {
	store       cache.Store
	coordinator *queue.Coordinator
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(store cache.Store, coordinator *queue.Coordinator) *StatusHandler {
	return &StatusHandler{
		store:       store,
		coordinator: coordinator,
	}
}

// Status reports the progress of a transcription by identity
func (h *StatusHandler) Status(c *fiber.Ctx) error {
	identity := c.Params("identity")

	entry, err := h.store.Get(identity)
	if err != nil {
		log.Printf("Cache lookup degraded for %s: %v", identity, err)
	}
	if entry != nil {
		return c.JSON(types.TranscriptionStatus{
			Identity: identity,
			Status:   types.StatusDone,
			Text:     entry.Text,
		})
	}

	if handle, ok := h.coordinator.Lookup(identity); ok {
		if text, done, ferr := handle.Poll(); done {
			status := types.TranscriptionStatus{Identity: identity, Status: types.StatusDone, Text: text}
			if ferr != nil {
				status.Status = types.StatusFailed
				status.Error = ferr.Error()
				status.Text = ""
			}
			return c.JSON(status)
		}
		return c.JSON(types.TranscriptionStatus{
			Identity: identity,
			Status:   types.StatusProcessing,
		})
	}

	return c.Status(404).JSON(fiber.Map{
		"error": "Transcription not found",
		"code":  "ERR_NOT_FOUND",
	})
}

// List returns cached transcriptions, newest first
func (h *StatusHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	entries, err := h.store.List(limit)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	if entries == nil {
		entries = []cache.Entry{}
	}
	return c.JSON(entries)
}

// Stats reports queue depth and in-flight count
func (h *StatusHandler) Stats(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"queue_depth": h.coordinator.QueueLen(),
		"in_flight":   h.coordinator.InflightCount(),
	})
}
