package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/capitalize-ai/sales-deck/internal/middleware"
	"github.com/capitalize-ai/sales-deck/internal/model"
	"github.com/capitalize-ai/sales-deck/internal/service"
	"github.com/capitalize-ai/sales-deck/pkg/logger"
)

// LeadHandler handles lead endpoints.
type LeadHandler struct {
	service *service.LeadService
	logger  *logger.Logger
}

// NewLeadHandler creates a new lead handler.
func NewLeadHandler(svc *service.LeadService, log *logger.Logger) *LeadHandler {
	return &LeadHandler{
		service: svc,
		logger:  log,
	}
}

// Create handles POST /api/leads
func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateLeadRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	l, err := h.service.Create(r.Context(), middleware.GetUserID(r.Context()), &req)
	if err != nil {
		respondError(w, h.logger, err, "failed to create lead")
		return
	}

	writeJSON(w, http.StatusOK, l)
}

// List handles GET /api/leads
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	leads, err := h.service.List(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondError(w, h.logger, err, "failed to list leads")
		return
	}

	writeJSON(w, http.StatusOK, leads)
}

// Update handles PATCH /api/leads/{id}
func (h *LeadHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !pathID(w, "lead", id) {
		return
	}

	var req model.UpdateLeadRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	l, err := h.service.Update(r.Context(), middleware.GetUserID(r.Context()), id, &req)
	if err != nil {
		respondError(w, h.logger, err, "failed to update lead")
		return
	}

	writeJSON(w, http.StatusOK, l)
}

// Delete handles DELETE /api/leads/{id}
func (h *LeadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !pathID(w, "lead", id) {
		return
	}

	if err := h.service.Delete(r.Context(), middleware.GetUserID(r.Context()), id); err != nil {
		respondError(w, h.logger, err, "failed to delete lead")
		return
	}

	writeJSON(w, http.StatusOK, model.SuccessResponse{Success: true})
}
