package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/capitalize-ai/sales-deck/internal/middleware"
	"github.com/capitalize-ai/sales-deck/internal/model"
	"github.com/capitalize-ai/sales-deck/internal/service"
	"github.com/capitalize-ai/sales-deck/pkg/logger"
)

// ClientHandler handles client endpoints.
type ClientHandler struct {
	service *service.ClientService
	logger  *logger.Logger
}

// NewClientHandler creates a new client handler.
func NewClientHandler(svc *service.ClientService, log *logger.Logger) *ClientHandler {
	return &ClientHandler{
		service: svc,
		logger:  log,
	}
}

// Create handles POST /api/clients
func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateClientRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := h.service.Create(r.Context(), middleware.GetUserID(r.Context()), &req)
	if err != nil {
		respondError(w, h.logger, err, "failed to create client")
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// List handles GET /api/clients
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	clients, err := h.service.List(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondError(w, h.logger, err, "failed to list clients")
		return
	}

	writeJSON(w, http.StatusOK, clients)
}

// Update handles PATCH /api/clients/{id}
func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !pathID(w, "client", id) {
		return
	}

	var req model.UpdateClientRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := h.service.Update(r.Context(), middleware.GetUserID(r.Context()), id, &req)
	if err != nil {
		respondError(w, h.logger, err, "failed to update client")
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// Delete handles DELETE /api/clients/{id}
func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !pathID(w, "client", id) {
		return
	}

	if err := h.service.Delete(r.Context(), middleware.GetUserID(r.Context()), id); err != nil {
		respondError(w, h.logger, err, "failed to delete client")
		return
	}

	writeJSON(w, http.StatusOK, model.SuccessResponse{Success: true})
}
