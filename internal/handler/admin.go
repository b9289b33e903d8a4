package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/renato-saldanha/talk-to-api/internal/middleware"
	"github.com/renato-saldanha/talk-to-api/internal/service"
	"github.com/renato-saldanha/talk-to-api/pkg/logger"
)

// AdminHandler handles the JWT-protected operator endpoints used by clinic
// staff for lead follow-up.
type AdminHandler struct {
	service *service.ConversationService
	logger  *logger.Logger
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(svc *service.ConversationService, log *logger.Logger) *AdminHandler {
	return &AdminHandler{
		service: svc,
		logger:  log,
	}
}

// ListConversations handles GET /api/v1/admin/conversations
func (h *AdminHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 20
	offset := 0

	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	resp, err := h.service.ListConversations(ctx, limit, offset)
	if err != nil {
		h.logger.Error("failed to list conversations", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list conversations")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetTranscript handles GET /api/v1/admin/conversations/{phoneNumber}
func (h *AdminHandler) GetTranscript(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	phoneNumber := chi.URLParam(r, "phoneNumber")

	if err := middleware.ValidatePhoneNumber(phoneNumber); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.service.GetTranscript(ctx, phoneNumber)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeError(w, http.StatusNotFound, "conversation not found")
			return
		}
		h.logger.Error("failed to get transcript", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to get transcript")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
