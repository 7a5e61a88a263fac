package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/abdufattohfattoyev/test-bot-web/internal/app/apiresp"
)

type Handler struct {
	svc authService
}

type authService interface {
	IsAdmin(ctx context.Context, telegramID int64) (bool, error)
	GetUser(ctx context.Context, telegramID int64) (*User, error)
	SaveUser(ctx context.Context, telegramID int64, fullName, username string) (*User, error)
	TouchUser(ctx context.Context, telegramID int64) error
}

type authRequest struct {
	TelegramID int64 `json:"telegram_id"`
}

type saveUserRequest struct {
	TelegramID int64  `json:"telegram_id"`
	FullName   string `json:"full_name"`
	Username   string `json:"username"`
}

func NewHandler(svc authService) *Handler {
	return &Handler{svc: svc}
}

// Auth reports whether the caller is on the admin allow-list and returns the
// stored profile when one exists.
func (h *Handler) Auth(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiresp.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TelegramID == 0 {
		apiresp.WriteError(w, http.StatusBadRequest, "Telegram ID kerak")
		return
	}

	isAdmin, err := h.svc.IsAdmin(r.Context(), req.TelegramID)
	if err != nil {
		apiresp.WriteError(w, http.StatusInternalServerError, "Server xatosi")
		return
	}

	user, err := h.svc.GetUser(r.Context(), req.TelegramID)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		apiresp.WriteError(w, http.StatusInternalServerError, "Server xatosi")
		return
	}

	message := "Oddiy foydalanuvchi"
	if isAdmin {
		message = "Admin tasdiqlandi"
	}
	apiresp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"is_admin": isAdmin,
		"user":     user,
		"message":  message,
	})
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	rawID := strings.TrimSpace(r.URL.Query().Get("telegram_id"))
	if rawID == "" {
		apiresp.WriteError(w, http.StatusBadRequest, "Telegram ID kerak")
		return
	}
	telegramID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		apiresp.WriteError(w, http.StatusBadRequest, "Telegram ID notogri")
		return
	}

	user, err := h.svc.GetUser(r.Context(), telegramID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			apiresp.WriteError(w, http.StatusNotFound, "Foydalanuvchi topilmadi")
			return
		}
		apiresp.WriteError(w, http.StatusInternalServerError, "Server xatosi")
		return
	}

	_ = h.svc.TouchUser(r.Context(), telegramID)

	apiresp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    user,
	})
}

func (h *Handler) SaveUser(w http.ResponseWriter, r *http.Request) {
	var req saveUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiresp.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TelegramID == 0 || strings.TrimSpace(req.FullName) == "" {
		apiresp.WriteError(w, http.StatusBadRequest, "Malumotlar yetarli emas")
		return
	}

	user, err := h.svc.SaveUser(r.Context(), req.TelegramID, req.FullName, req.Username)
	if err != nil {
		apiresp.WriteError(w, http.StatusInternalServerError, "Server xatosi")
		return
	}

	apiresp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    user,
	})
}

// RegisterUser stores the student's profile ahead of any test submission.
func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req saveUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiresp.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TelegramID == 0 || strings.TrimSpace(req.FullName) == "" {
		apiresp.WriteError(w, http.StatusBadRequest, "Malumotlar yetarli emas")
		return
	}

	user, err := h.svc.SaveUser(r.Context(), req.TelegramID, req.FullName, req.Username)
	if err != nil {
		apiresp.WriteError(w, http.StatusInternalServerError, "Server xatosi")
		return
	}

	apiresp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"student": user,
	})
}
