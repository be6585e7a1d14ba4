package handlers

import (
	"net/http"

	"github.com/mrheathv/mtg-deck-builder/internal/api/response"
	"github.com/mrheathv/mtg-deck-builder/internal/version"
)

// SystemHandler handles status and metrics requests.
type SystemHandler struct {
	builder DeckBuilder
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(builder DeckBuilder) *SystemHandler {
	return &SystemHandler{builder: builder}
}

// SystemStatus describes the running service.
type SystemStatus struct {
	Version       string `json:"version"`
	CatalogLoaded bool   `json:"catalog_loaded"`
	CatalogCards  int    `json:"catalog_cards"`
	OpenSessions  int    `json:"open_sessions"`
}

// GetStatus returns the system status.
func (h *SystemHandler) GetStatus(w http.ResponseWriter, _ *http.Request) {
	status := SystemStatus{
		Version:      version.String(),
		OpenSessions: h.builder.SessionCount(),
	}
	if catalog := h.builder.Catalog(); catalog != nil {
		status.CatalogLoaded = true
		status.CatalogCards = catalog.Len()
	}
	response.Success(w, status)
}

// GetMetrics returns deck request latency and outcome counters.
func (h *SystemHandler) GetMetrics(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, h.builder.Metrics().GetStats())
}

// ResetMetrics clears all counters and latency samples.
func (h *SystemHandler) ResetMetrics(w http.ResponseWriter, _ *http.Request) {
	h.builder.Metrics().Reset()
	response.Success(w, map[string]string{"status": "reset"})
}
