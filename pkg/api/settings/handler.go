// Package settings exposes read/update endpoints for the screening
// thresholds and transaction assumptions.
package settings

import (
	"encoding/json"
	"net/http"

	"github.com/we-re-wolf/Aperture-LBO-Screener/pkg/core/lbo"
	"github.com/we-re-wolf/Aperture-LBO-Screener/pkg/core/screen"
)

// Store is the mutable settings state, implemented by the screening handler.
type Store interface {
	Thresholds() screen.Thresholds
	Assumptions() lbo.Assumptions
	SetAssumptions(lbo.Assumptions)
}

type Response struct {
	Criteria    screen.Thresholds `json:"criteria"`
	Assumptions lbo.Assumptions   `json:"assumptions"`
}

// Handler holds dependencies for settings endpoints.
type Handler struct {
	store Store
}

// NewHandler creates a new settings handler.
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// HandleSettings returns the current settings on GET and replaces the
// transaction assumptions on POST. Criteria updates go through the screen
// endpoint so they re-screen in the same request.
func (h *Handler) HandleSettings(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(Response{
			Criteria:    h.store.Thresholds(),
			Assumptions: h.store.Assumptions(),
		})
	case http.MethodPost:
		// Start from current values so a partial body only changes the
		// fields it names.
		a := h.store.Assumptions()
		if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if a.ProjectionYears <= 0 {
			http.Error(w, "projection_years must be positive", http.StatusBadRequest)
			return
		}
		h.store.SetAssumptions(a)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(Response{
			Criteria:    h.store.Thresholds(),
			Assumptions: a,
		})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
