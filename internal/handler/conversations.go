// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/renato-saldanha/talk-to-api/internal/middleware"
	"github.com/renato-saldanha/talk-to-api/internal/model"
	"github.com/renato-saldanha/talk-to-api/internal/service"
	"github.com/renato-saldanha/talk-to-api/pkg/logger"
)

// ConversationHandler handles the public lead endpoints.
type ConversationHandler struct {
	service *service.ConversationService
	logger  *logger.Logger
}

// NewConversationHandler creates a new conversation handler.
func NewConversationHandler(svc *service.ConversationService, log *logger.Logger) *ConversationHandler {
	return &ConversationHandler{
		service: svc,
		logger:  log,
	}
}

// SubmitMessage handles POST /api/v1/conversations/{phoneNumber}/messages
func (h *ConversationHandler) SubmitMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	phoneNumber := chi.URLParam(r, "phoneNumber")

	if err := middleware.ValidatePhoneNumber(phoneNumber); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req model.SubmitMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateMessageContent(req.Content); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reply, snapshot, err := h.service.SubmitMessage(ctx, phoneNumber, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrConversationExpired):
			writeError(w, http.StatusConflict, "conversation has expired")
		case errors.Is(err, service.ErrConversationFinished):
			writeError(w, http.StatusConflict, "conversation is already finished")
		default:
			h.logger.Error("failed to process message", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to process message")
		}
		return
	}

	writeJSON(w, http.StatusOK, &model.SubmitMessageResponse{
		Reply:        reply,
		Conversation: *snapshot,
	})
}

// GetStatus handles GET /api/v1/conversations/{phoneNumber}/status
func (h *ConversationHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	phoneNumber := chi.URLParam(r, "phoneNumber")

	if err := middleware.ValidatePhoneNumber(phoneNumber); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snapshot, err := h.service.GetStatus(ctx, phoneNumber)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeError(w, http.StatusNotFound, "conversation not found")
			return
		}
		h.logger.Error("failed to get status", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to get status")
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}
