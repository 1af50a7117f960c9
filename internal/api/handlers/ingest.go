package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Harshitk-cp/strainfeed/internal/service"
	"go.uber.org/zap"
)

type IngestHandler struct {
	svc    *service.IngestService
	logger *zap.Logger
}

func NewIngestHandler(svc *service.IngestService, logger *zap.Logger) *IngestHandler {
	return &IngestHandler{svc: svc, logger: logger}
}

type ingestRequest struct {
	Prompt string `json:"prompt"`
}

func (h *IngestHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.Ingest(r.Context(), req.Prompt)
	if err != nil {
		if errors.Is(err, service.ErrEmptyInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to ingest prompt", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to ingest prompt")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
