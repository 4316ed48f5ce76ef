package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/genai-playground/gateway/internal/gateway/deploy"
	"github.com/genai-playground/gateway/internal/shared/models"
)

type TextHandler struct {
	service *deploy.Service
	logger  *zap.Logger
}

func NewTextHandler(service *deploy.Service, logger *zap.Logger) *TextHandler {
	return &TextHandler{service: service, logger: logger}
}

// HandleDeploy handles POST /text/deploy.
func (h *TextHandler) HandleDeploy(w http.ResponseWriter, r *http.Request) {
	var req models.DeployRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status, err := h.service.Deploy(r.Context(), req.ModelPath, req.DeploymentName)
	if err != nil {
		h.writeDeployError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// HandleConnect handles POST /text/connect.
func (h *TextHandler) HandleConnect(w http.ResponseWriter, r *http.Request) {
	var req models.ConnectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DeploymentName == "" {
		writeError(w, http.StatusBadRequest, "deployment_name is required")
		return
	}

	status, err := h.service.Connect(r.Context(), req.DeploymentName, req.ModelPath)
	if err != nil {
		if errors.Is(err, deploy.ErrNoCredentials) {
			h.writeDeployError(w, err)
			return
		}
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// HandleStatus handles GET /text/status.
func (h *TextHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Status(r.Context()))
}

// HandleListDeployments handles GET /text/deployments.
func (h *TextHandler) HandleListDeployments(w http.ResponseWriter, r *http.Request) {
	deployments, err := h.service.List(r.Context())
	if err != nil {
		h.writeDeployError(w, err)
		return
	}
	if deployments == nil {
		deployments = []models.DeploymentSummary{}
	}
	writeJSON(w, http.StatusOK, deployments)
}

// HandleGenerateText handles POST /text/generate.
func (h *TextHandler) HandleGenerateText(w http.ResponseWriter, r *http.Request) {
	username := UsernameFromContext(r.Context())

	var req models.TextGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	resp, err := h.service.GenerateText(r.Context(), username, req)
	if err != nil {
		h.writeDeployError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleChat handles POST /text/chat.
func (h *TextHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	username := UsernameFromContext(r.Context())

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "messages are required")
		return
	}

	resp, err := h.service.Chat(r.Context(), username, req)
	if err != nil {
		h.writeDeployError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleDelete handles DELETE /text/deploy.
func (h *TextHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.Delete(r.Context())
	if err != nil {
		h.writeDeployError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *TextHandler) writeDeployError(w http.ResponseWriter, err error) {
	var notHealthy *deploy.NotHealthyError
	switch {
	case errors.As(err, &notHealthy):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, deploy.ErrNoDeployment):
		writeError(w, http.StatusInternalServerError, "no active deployment, deploy a model first")
	default:
		h.logger.Error("deployment operation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
