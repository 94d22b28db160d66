package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/capitalize-ai/sales-deck/internal/middleware"
	"github.com/capitalize-ai/sales-deck/internal/model"
	"github.com/capitalize-ai/sales-deck/internal/service"
	"github.com/capitalize-ai/sales-deck/pkg/logger"
)

// maxUploadBytes caps asset uploads.
const maxUploadBytes = 10 << 20

// AssetHandler handles asset endpoints.
type AssetHandler struct {
	service *service.AssetService
	logger  *logger.Logger
}

// NewAssetHandler creates a new asset handler.
func NewAssetHandler(svc *service.AssetService, log *logger.Logger) *AssetHandler {
	return &AssetHandler{
		service: svc,
		logger:  log,
	}
}

// Create handles POST /api/assets
func (h *AssetHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateAssetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	a, err := h.service.Create(r.Context(), middleware.GetUserID(r.Context()), &req)
	if err != nil {
		respondError(w, h.logger, err, "failed to create asset")
		return
	}

	writeJSON(w, http.StatusOK, a)
}

// Upload handles POST /api/assets/upload, a multipart form with file, type
// and name fields.
func (h *AssetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	assetType := model.AssetType(r.FormValue("type"))
	name := r.FormValue("name")
	if !assetType.Valid() {
		writeError(w, http.StatusUnprocessableEntity, "type must be one of: product_description use_case general")
		return
	}
	if name == "" {
		writeError(w, http.StatusUnprocessableEntity, "name is required")
		return
	}

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		writeError(w, http.StatusUnprocessableEntity, "file is required")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	a, err := h.service.Upload(r.Context(), middleware.GetUserID(r.Context()), assetType, name, header.Filename, data)
	if err != nil {
		respondError(w, h.logger, err, "failed to upload asset")
		return
	}

	writeJSON(w, http.StatusOK, a)
}

// List handles GET /api/assets, optionally filtered by ?asset_type=.
func (h *AssetHandler) List(w http.ResponseWriter, r *http.Request) {
	assetType := model.AssetType(r.URL.Query().Get("asset_type"))

	assets, err := h.service.List(r.Context(), middleware.GetUserID(r.Context()), assetType)
	if err != nil {
		respondError(w, h.logger, err, "failed to list assets")
		return
	}

	writeJSON(w, http.StatusOK, assets)
}

// Delete handles DELETE /api/assets/{id}
func (h *AssetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !pathID(w, "asset", id) {
		return
	}

	if err := h.service.Delete(r.Context(), middleware.GetUserID(r.Context()), id); err != nil {
		respondError(w, h.logger, err, "failed to delete asset")
		return
	}

	writeJSON(w, http.StatusOK, model.SuccessResponse{Success: true})
}
