package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/capitalize-ai/sales-deck/internal/middleware"
	"github.com/capitalize-ai/sales-deck/internal/model"
	"github.com/capitalize-ai/sales-deck/internal/service"
	"github.com/capitalize-ai/sales-deck/pkg/logger"
)

// DeckHandler handles deck endpoints.
type DeckHandler struct {
	service *service.DeckService
	logger  *logger.Logger
}

// NewDeckHandler creates a new deck handler.
func NewDeckHandler(svc *service.DeckService, log *logger.Logger) *DeckHandler {
	return &DeckHandler{
		service: svc,
		logger:  log,
	}
}

// Generate handles POST /api/decks/generate
func (h *DeckHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req model.GenerateDeckRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	d, err := h.service.Generate(r.Context(), middleware.GetUserID(r.Context()), req.LeadID)
	if err != nil {
		respondError(w, h.logger, err, "failed to generate deck")
		return
	}

	writeJSON(w, http.StatusOK, d)
}

// List handles GET /api/decks
func (h *DeckHandler) List(w http.ResponseWriter, r *http.Request) {
	decks, err := h.service.List(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondError(w, h.logger, err, "failed to list decks")
		return
	}

	writeJSON(w, http.StatusOK, decks)
}

// Get handles GET /api/decks/{id}
func (h *DeckHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !pathID(w, "deck", id) {
		return
	}

	d, err := h.service.Get(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		respondError(w, h.logger, err, "failed to get deck")
		return
	}

	writeJSON(w, http.StatusOK, d)
}
