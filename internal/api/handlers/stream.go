package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Harshitk-cp/strainfeed/internal/service"
	"go.uber.org/zap"
)

// StreamHandler relays the update bus to browsers as server-sent events.
type StreamHandler struct {
	bus    *service.UpdateBus
	logger *zap.Logger
}

func NewStreamHandler(bus *service.UpdateBus, logger *zap.Logger) *StreamHandler {
	return &StreamHandler{bus: bus, logger: logger}
}

// Updates writes one `data: <batch>` frame per batch or heartbeat until the
// client goes away or the subscription ends.
func (h *StreamHandler) Updates(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	sub := h.bus.Subscribe()
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	for {
		batch, err := sub.Next(ctx)
		if err != nil {
			if errors.Is(err, service.ErrSubscriberOverrun) {
				h.logger.Warn("closing lagging update stream", zap.String("subscription_id", sub.ID()))
			}
			return
		}

		payload, err := json.Marshal(batch)
		if err != nil {
			h.logger.Error("failed to encode batch", zap.Error(err))
			return
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			return
		}
		flusher.Flush()
	}
}
