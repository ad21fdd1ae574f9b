package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"bitsafe.io/advisor-api/internal/alerts"
	"bitsafe.io/advisor-api/internal/core"
	"bitsafe.io/advisor-api/internal/store"
)

const maxBodyBytes = 1 << 20

type StatusStore interface {
	CreateStatusCheck(ctx context.Context, clientName string) (*store.StatusCheck, error)
	ListStatusChecks(ctx context.Context) ([]store.StatusCheck, error)
}

type AlertFeed interface {
	Recent(ctx context.Context) []alerts.Alert
}

type ChatResponder interface {
	Respond(ctx context.Context, message string, user store.UserInfo) (*core.ChatResult, error)
}

type APIHandler struct {
	statusStore StatusStore
	alertFeed   AlertFeed
	chat        ChatResponder
}

func NewAPIHandler(ss StatusStore, feed AlertFeed, chat ChatResponder) *APIHandler {
	return &APIHandler{
		statusStore: ss,
		alertFeed:   feed,
		chat:        chat,
	}
}

func (h *APIHandler) RootHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Hello World"})
}

func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Pointer fields tell a missing key apart from an empty string.
type CreateStatusRequest struct {
	ClientName *string `json:"client_name"`
}

func (h *APIHandler) CreateStatusHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ClientName == nil {
		writeDetail(w, http.StatusUnprocessableEntity, "client_name is required")
		return
	}

	check, err := h.statusStore.CreateStatusCheck(r.Context(), *req.ClientName)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to store status check", "client_name", *req.ClientName, "err", err)
		writeDetail(w, http.StatusInternalServerError, "Failed to store status check")
		return
	}
	writeJSON(w, http.StatusOK, check)
}

func (h *APIHandler) ListStatusHandler(w http.ResponseWriter, r *http.Request) {
	checks, err := h.statusStore.ListStatusChecks(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list status checks", "err", err)
		writeDetail(w, http.StatusInternalServerError, "Failed to list status checks")
		return
	}
	writeJSON(w, http.StatusOK, checks)
}

// ScamAlertsHandler always answers 200; the feed falls back to a static list.
func (h *APIHandler) ScamAlertsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.alertFeed.Recent(r.Context()))
}

type UserInfoRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

type ChatRequest struct {
	Message  *string          `json:"message"`
	UserInfo *UserInfoRequest `json:"user_info"`
}

func (req ChatRequest) validate() string {
	switch {
	case req.Message == nil:
		return "message is required"
	case req.UserInfo == nil:
		return "user_info is required"
	case req.UserInfo.Name == nil:
		return "user_info.name is required"
	case req.UserInfo.Email == nil:
		return "user_info.email is required"
	case req.UserInfo.Phone == nil:
		return "user_info.phone is required"
	}
	return ""
}

func (h *APIHandler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		writeDetail(w, http.StatusUnprocessableEntity, msg)
		return
	}

	user := store.UserInfo{
		Name:  *req.UserInfo.Name,
		Email: *req.UserInfo.Email,
		Phone: *req.UserInfo.Phone,
	}
	result, err := h.chat.Respond(r.Context(), *req.Message, user)
	if err != nil {
		slog.ErrorContext(r.Context(), "error in chat endpoint", "err", err)
		var procErr *core.ProcessingError
		switch {
		case errors.Is(err, core.ErrConfiguration):
			writeDetail(w, http.StatusInternalServerError, err.Error())
		case errors.As(err, &procErr):
			writeDetail(w, http.StatusInternalServerError, "Error processing chat: "+procErr.Err.Error())
		default:
			writeDetail(w, http.StatusInternalServerError, "Error processing chat: "+err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "err", err)
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
