package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Harshitk-cp/strainfeed/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// GraphHandler serves the read projections of the strain graph.
type GraphHandler struct {
	svc    *service.QueryService
	logger *zap.Logger
}

func NewGraphHandler(svc *service.QueryService, logger *zap.Logger) *GraphHandler {
	return &GraphHandler{svc: svc, logger: logger}
}

func (h *GraphHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		h.internalError(w, "failed to compute stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *GraphHandler) Agents(w http.ResponseWriter, r *http.Request) {
	agents, err := h.svc.Agents(r.Context(), listOptions(r))
	if err != nil {
		h.internalError(w, "failed to list agents", err)
		return
	}
	writeJSON(w, http.StatusOK, agents)
}

func (h *GraphHandler) Entities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := service.EntityFilter{Category: q.Get("entity_type")}

	if s := q.Get("strain_threshold"); s != "" {
		threshold, err := strconv.ParseFloat(s, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid strain_threshold")
			return
		}
		filter.MinAmplitude = &threshold
	}

	entities, err := h.svc.Entities(r.Context(), filter, listOptions(r))
	if err != nil {
		h.internalError(w, "failed to list entities", err)
		return
	}
	writeJSON(w, http.StatusOK, entities)
}

// Relationships lists edges, optionally only those leaving agent_id.
func (h *GraphHandler) Relationships(w http.ResponseWriter, r *http.Request) {
	edges, err := h.svc.Edges(r.Context(), r.URL.Query().Get("agent_id"))
	if err != nil {
		h.internalError(w, "failed to list relationships", err)
		return
	}
	writeJSON(w, http.StatusOK, edges)
}

func (h *GraphHandler) Node(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Node(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, service.ErrNodeNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.internalError(w, "failed to get node", err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *GraphHandler) GraphData(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.GraphData(r.Context())
	if err != nil {
		h.internalError(w, "failed to build graph data", err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (h *GraphHandler) internalError(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, zap.Error(err))
	writeError(w, http.StatusInternalServerError, msg)
}

// listOptions reads ?access=true, which makes a listing count as a read of
// every node it returns.
func listOptions(r *http.Request) service.ListOptions {
	access, _ := strconv.ParseBool(r.URL.Query().Get("access"))
	return service.ListOptions{Access: access}
}
