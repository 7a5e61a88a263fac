package quiz

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
	svc    quizService
	admins AdminChecker
}

type quizService interface {
	SubmitTest(ctx context.Context, in SubmitInput) (*SubmitResult, error)
	CreateTest(ctx context.Context, in CreateTestInput) (*Test, error)
	GetTestByCode(ctx context.Context, code string) (*Test, error)
	ReplaceAnswerKey(ctx context.Context, testID int64, answers map[string]string) error
	ListResults(ctx context.Context, testCode string) ([]Attempt, error)
	Stats(ctx context.Context, testCode string) (*TestStats, error)
}

// AdminChecker decides whether a telegram id belongs to an administrator. The
// default implementation is a flat allow-list lookup; it is a capability
// check, not authentication.
type AdminChecker interface {
	IsAdmin(ctx context.Context, telegramID int64) (bool, error)
}

type submitTestRequest struct {
	TelegramID int64             `json:"telegram_id"`
	FullName   string            `json:"full_name"`
	TestCode   string            `json:"test_code"`
	Answers    map[string]string `json:"answers"`
}

type submitTestResponse struct {
	Success    bool   `json:"success"`
	Score      int    `json:"score"`
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
	Message    string `json:"message"`
}

type saveAnswersRequest struct {
	TelegramID int64             `json:"telegram_id"`
	TestCode   string            `json:"test_code"`
	Answers    map[string]string `json:"answers"`
}

type createTestRequest struct {
	TelegramID           int64  `json:"telegram_id"`
	Code                 string `json:"code"`
	Title                string `json:"title"`
	OpenQuestionsCount   int    `json:"open_questions_count"`
	ClosedQuestionsCount int    `json:"closed_questions_count"`
	OptionsCount         int    `json:"options_count"`
}

func NewHandler(svc quizService, admins AdminChecker) *Handler {
	return &Handler{svc: svc, admins: admins}
}

func (h *Handler) SubmitTest(w http.ResponseWriter, r *http.Request) {
	var req submitTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiresp.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TelegramID == 0 || strings.TrimSpace(req.FullName) == "" || strings.TrimSpace(req.TestCode) == "" {
		apiresp.WriteError(w, http.StatusBadRequest, "Malumotlar yetarli emas")
		return
	}
	if req.Answers == nil {
		req.Answers = map[string]string{}
	}

	result, err := h.svc.SubmitTest(r.Context(), SubmitInput{
		TelegramID: req.TelegramID,
		FullName:   req.FullName,
		TestCode:   req.TestCode,
		Answers:    req.Answers,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrTestNotFound):
			apiresp.WriteError(w, http.StatusNotFound, "Test topilmadi")
		case errors.Is(err, ErrAttemptNotSaved):
			apiresp.WriteError(w, http.StatusBadRequest, "O'quvchini saqlashda xatolik")
		case errors.Is(err, ErrResultNotSaved):
			apiresp.WriteError(w, http.StatusBadRequest, "Test natijasini saqlashda xatolik")
		default:
			apiresp.WriteError(w, http.StatusInternalServerError, "Server xatosi")
		}
		return
	}

	apiresp.WriteJSON(w, http.StatusOK, submitTestResponse{
		Success:    true,
		Score:      result.Score,
		Total:      result.Total,
		Percentage: result.Percentage,
		Message:    "Test muvaffaqiyatli topshirildi",
	})
}

func (h *Handler) SaveAnswers(w http.ResponseWriter, r *http.Request) {
	var req saveAnswersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiresp.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !h.requireAdmin(w, r.Context(), req.TelegramID) {
		return
	}

	test, err := h.svc.GetTestByCode(r.Context(), req.TestCode)
	if err != nil {
		if errors.Is(err, ErrTestNotFound) {
			apiresp.WriteError(w, http.StatusNotFound, "Test topilmadi")
			return
		}
		apiresp.WriteError(w, http.StatusInternalServerError, "Server xatosi")
		return
	}

	if err := h.svc.ReplaceAnswerKey(r.Context(), test.ID, req.Answers); err != nil {
		apiresp.WriteError(w, http.StatusBadRequest, "Javoblarni saqlashda xatolik")
		return
	}

	apiresp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Javoblar saqlandi",
	})
}

func (h *Handler) CreateTest(w http.ResponseWriter, r *http.Request) {
	var req createTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiresp.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Code) == "" || strings.TrimSpace(req.Title) == "" {
		apiresp.WriteError(w, http.StatusBadRequest, "Malumotlar yetarli emas")
		return
	}
	if !h.requireAdmin(w, r.Context(), req.TelegramID) {
		return
	}

	test, err := h.svc.CreateTest(r.Context(), CreateTestInput{
		Code:                 req.Code,
		Title:                req.Title,
		AdminTelegramID:      req.TelegramID,
		OpenQuestionsCount:   req.OpenQuestionsCount,
		ClosedQuestionsCount: req.ClosedQuestionsCount,
		OptionsCount:         req.OptionsCount,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrTestCodeTaken):
			apiresp.WriteError(w, http.StatusBadRequest, "Bu kod bilan test allaqachon mavjud")
		case errors.Is(err, ErrAdminNotFound):
			apiresp.WriteError(w, http.StatusForbidden, "Admin huquqlari kerak")
		default:
			apiresp.WriteError(w, http.StatusBadRequest, "Test yaratishda xatolik")
		}
		return
	}

	apiresp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"test":    test,
	})
}

func (h *Handler) GetTest(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(r.URL.Query().Get("code"))
	if code == "" {
		apiresp.WriteError(w, http.StatusBadRequest, "Test kodi kerak")
		return
	}

	test, err := h.svc.GetTestByCode(r.Context(), code)
	if err != nil {
		if errors.Is(err, ErrTestNotFound) {
			apiresp.WriteError(w, http.StatusNotFound, "Test topilmadi")
			return
		}
		apiresp.WriteError(w, http.StatusInternalServerError, "Server xatosi")
		return
	}

	apiresp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"test":    test,
	})
}

func (h *Handler) GetResults(w http.ResponseWriter, r *http.Request) {
	code, telegramID, ok := resultsQueryParams(w, r)
	if !ok {
		return
	}
	if !h.requireAdmin(w, r.Context(), telegramID) {
		return
	}

	results, err := h.svc.ListResults(r.Context(), code)
	if err != nil {
		apiresp.WriteError(w, http.StatusInternalServerError, "Server xatosi")
		return
	}

	apiresp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"results": results,
	})
}

func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	code, telegramID, ok := resultsQueryParams(w, r)
	if !ok {
		return
	}
	if !h.requireAdmin(w, r.Context(), telegramID) {
		return
	}

	stats, err := h.svc.Stats(r.Context(), code)
	if err != nil {
		apiresp.WriteError(w, http.StatusInternalServerError, "Server xatosi")
		return
	}

	apiresp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"statistics": stats,
		"message":    "Statistika olindi",
	})
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

func resultsQueryParams(w http.ResponseWriter, r *http.Request) (code string, telegramID int64, ok bool) {
	code = strings.TrimSpace(r.URL.Query().Get("code"))
	rawID := strings.TrimSpace(r.URL.Query().Get("telegram_id"))
	if code == "" || rawID == "" {
		apiresp.WriteError(w, http.StatusBadRequest, "Test kodi va Telegram ID kerak")
		return "", 0, false
	}
	telegramID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		apiresp.WriteError(w, http.StatusBadRequest, "Telegram ID notogri")
		return "", 0, false
	}
	return code, telegramID, true
}
