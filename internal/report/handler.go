package report

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/abdufattohfattoyev/test-bot-web/internal/app/apiresp"
	"github.com/abdufattohfattoyev/test-bot-web/internal/quiz"
)

type Handler struct {
	svc    *Service
	admins quiz.AdminChecker
}

func NewHandler(svc *Service, admins quiz.AdminChecker) *Handler {
	return &Handler{svc: svc, admins: admins}
}

// ExportResults downloads the completed attempts for a test code. The format
// query parameter selects csv (default) or xlsx.
func (h *Handler) ExportResults(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(r.URL.Query().Get("code"))
	rawID := strings.TrimSpace(r.URL.Query().Get("telegram_id"))
	if code == "" || rawID == "" {
		apiresp.WriteError(w, http.StatusBadRequest, "Test kodi va Telegram ID kerak")
		return
	}
	telegramID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		apiresp.WriteError(w, http.StatusBadRequest, "Telegram ID notogri")
		return
	}
	if !h.requireAdmin(w, r.Context(), telegramID) {
		return
	}

	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	switch format {
	case "", "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=test_%s_results.csv", code))
		if err := h.svc.WriteCSV(r.Context(), w, code); err != nil {
			// Headers are already written at this point.
			log.Printf("export csv for %s: %v", code, err)
			return
		}
	case "xlsx":
		f, err := h.svc.BuildXLSX(r.Context(), code)
		if err != nil {
			apiresp.WriteError(w, http.StatusInternalServerError, "Server xatosi")
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=test_%s_results.xlsx", code))
		_ = f.Write(w)
	default:
		apiresp.WriteError(w, http.StatusBadRequest, "format csv yoki xlsx bolishi kerak")
	}
}

func (h *Handler) requireAdmin(w http.ResponseWriter, ctx context.Context, telegramID int64) bool {
	isAdmin, err := h.admins.IsAdmin(ctx, telegramID)
	if err != nil {
		apiresp.WriteError(w, http.StatusInternalServerError, "Server xatosi")
		return false
	}
	if !isAdmin {
		apiresp.WriteError(w, http.StatusForbidden, "Admin huquqlari kerak")
		return false
	}
	return true
}
