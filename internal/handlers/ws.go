package handlers

import (
	"log"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/voicescribe/voicescribe/internal/cache"
	"github.com/voicescribe/voicescribe/internal/queue"
	"github.com/voicescribe/voicescribe/internal/types"
)

// WSHandler pushes transcription results over WebSocket so a client can
// await a queued job instead of polling.
type WSHandler struct {
	store       cache.Store
	coordinator *queue.Coordinator
}

// NewWSHandler creates a new WebSocket handler
func NewWSHandler(store cache.Store, coordinator *queue.Coordinator) *WSHandler {
	return &WSHandler{
		store:       store,
		coordinator: coordinator,
	}
}

// Handle processes WebSocket connections
func (h *WSHandler) Handle(c *websocket.Conn) {
	defer c.Close()

	identity := c.Params("identity")
	log.Printf("WebSocket connection established for %s", identity)

	entry, err := h.store.Get(identity)
	if err != nil {
		log.Printf("Cache lookup degraded for %s: %v", identity, err)
	}
	if entry != nil {
		if err := c.WriteJSON(types.TranscriptionStatus{
			Identity: identity,
			Status:   types.StatusDone,
			Text:     entry.Text,
		}); err != nil {
			log.Printf("WebSocket write error: %v", err)
		}
		return
	}

	handle, ok := h.coordinator.Lookup(identity)
	if !ok {
		if err := c.WriteJSON(types.TranscriptionStatus{
			Identity: identity,
			Status:   types.StatusFailed,
			Error:    "transcription not found",
		}); err != nil {
			log.Printf("WebSocket write error: %v", err)
		}
		return
	}

	if err := c.WriteJSON(types.TranscriptionStatus{
		Identity: identity,
		Status:   types.StatusProcessing,
	}); err != nil {
		log.Printf("WebSocket write error: %v", err)
		return
	}

	// Keepalive pings while the job waits its turn in the queue.
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-handle.Done():
			text, _, ferr := handle.Poll()
			status := types.TranscriptionStatus{Identity: identity, Status: types.StatusDone, Text: text}
			if ferr != nil {
				status.Status = types.StatusFailed
				status.Error = ferr.Error()
				status.Text = ""
			}
			if err := c.WriteJSON(status); err != nil {
				log.Printf("WebSocket write error: %v", err)
			}
			return
		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("WebSocket connection lost for %s: %v", identity, err)
				return
			}
		}
	}
}
