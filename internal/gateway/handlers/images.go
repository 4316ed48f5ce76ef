package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/genai-playground/gateway/internal/gateway/providers"
	"github.com/genai-playground/gateway/internal/shared/database"
	"github.com/genai-playground/gateway/internal/shared/models"
)

type ImagesHandler struct {
	gateway *providers.Gateway
	history database.HistoryStore
	logger  *zap.Logger
}

func NewImagesHandler(gateway *providers.Gateway, history database.HistoryStore, logger *zap.Logger) *ImagesHandler {
	return &ImagesHandler{gateway: gateway, history: history, logger: logger}
}

// HandleGenerate handles POST /images/generate.
func (h *ImagesHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	username := UsernameFromContext(r.Context())

	req, ok := h.decodeImageRequest(w, r)
	if !ok {
		return
	}

	h.logger.Info("generating image",
		zap.String("username", username),
		zap.String("model", req.Model))

	image, err := h.gateway.Generate(r.Context(), username, req.Prompt, req.Model)
	if err != nil {
		h.writeGenerationError(w, err)
		return
	}
	writePNG(w, image)
}

// HandleEdit handles POST /images/edit-image.
func (h *ImagesHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	username := UsernameFromContext(r.Context())

	req, ok := h.decodeImageRequest(w, r)
	if !ok {
		return
	}
	if req.Image == "" {
		writeError(w, http.StatusBadRequest, "image is required")
		return
	}

	h.logger.Info("editing image",
		zap.String("username", username),
		zap.String("model", req.Model))

	image, err := h.gateway.Edit(r.Context(), username, req.Prompt, req.Model, req.Image)
	if err != nil {
		h.writeGenerationError(w, err)
		return
	}
	writePNG(w, image)
}

// HandleHistory handles GET /images/history.
func (h *ImagesHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	username := UsernameFromContext(r.Context())

	records, err := h.history.Query(r.Context(), username, database.DefaultHistoryLimit)
	if err != nil {
		h.logger.Error("failed to fetch history",
			zap.String("username", username), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch history")
		return
	}
	if records == nil {
		records = []models.HistoryRecord{}
	}
	writeJSON(w, http.StatusOK, models.HistoryResponse{History: records})
}

func (h *ImagesHandler) decodeImageRequest(w http.ResponseWriter, r *http.Request) (models.ImageRequest, bool) {
	var req models.ImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	if req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return req, false
	}
	if req.Model == "" {
		writeError(w, http.StatusBadRequest, "model is required")
		return req, false
	}
	return req, true
}

// writeGenerationError maps the generation error taxonomy to HTTP statuses.
// Upstream failures pass the provider's status code through for debugging.
func (h *ImagesHandler) writeGenerationError(w http.ResponseWriter, err error) {
	var unknownModel *providers.UnknownModelError
	var unsupported *providers.UnsupportedEditError
	var upstream *providers.UpstreamError

	switch {
	case errors.Is(err, providers.ErrNoAPIKey):
		writeError(w, http.StatusInternalServerError, "inference API key not configured")
	case errors.As(err, &unknownModel):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &unsupported):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &upstream):
		status := upstream.StatusCode
		if status < http.StatusBadRequest {
			status = http.StatusBadGateway
		}
		h.logger.Error("upstream call failed", zap.Int("upstream_status", upstream.StatusCode))
		writeError(w, status, "image generation failed: "+upstream.Body)
	default:
		h.logger.Error("image generation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writePNG(w http.ResponseWriter, image []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", "inline")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(image)
}
