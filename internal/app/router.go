package app

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/abdufattohfattoyev/test-bot-web/internal/app/apiresp"
	"github.com/abdufattohfattoyev/test-bot-web/internal/app/observability"
	"github.com/abdufattohfattoyev/test-bot-web/internal/auth"
	"github.com/abdufattohfattoyev/test-bot-web/internal/db"
	"github.com/abdufattohfattoyev/test-bot-web/internal/quiz"
	"github.com/abdufattohfattoyev/test-bot-web/internal/report"
)

func NewRouter(cfg Config, dbConn *sql.DB) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	collector := observability.NewCollector(dbConn)
	r.Use(collector.Middleware)

	authSvc := auth.NewService(dbConn)
	authHandler := auth.NewHandler(authSvc)

	quizSvc := quiz.NewService(dbConn)
	quizHandler := quiz.NewHandler(quizSvc, authSvc)

	reportSvc := report.NewService(quizSvc)
	reportHandler := report.NewHandler(reportSvc, authSvc)

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", collector.Health)
		api.Get("/status", collector.Status)

		api.Post("/init", func(w http.ResponseWriter, r *http.Request) {
			if err := db.EnsureSchema(r.Context(), dbConn, cfg.DBDriver); err != nil {
				apiresp.WriteError(w, http.StatusInternalServerError, "Ma'lumotlar bazasini sozlashda xatolik")
				return
			}
			if cfg.PrimaryAdminTelegramID != 0 {
				if err := db.SeedPrimaryAdmin(r.Context(), dbConn, cfg.PrimaryAdminTelegramID, cfg.PrimaryAdminUsername, cfg.PrimaryAdminFullName); err != nil {
					apiresp.WriteError(w, http.StatusInternalServerError, "Ma'lumotlar bazasini sozlashda xatolik")
					return
				}
			}
			apiresp.WriteJSON(w, http.StatusOK, map[string]interface{}{
				"success": true,
				"message": "Ma'lumotlar bazasi muvaffaqiyatli sozlandi",
			})
		})

		api.Post("/auth", authHandler.Auth)
		api.Post("/register-user", authHandler.RegisterUser)
		api.Get("/get-user", authHandler.GetUser)
		api.Post("/save-user", authHandler.SaveUser)

		api.Post("/submit-test", quizHandler.SubmitTest)
		api.Get("/get-test", quizHandler.GetTest)
		api.Post("/create-test", quizHandler.CreateTest)
		api.Post("/save-answers", quizHandler.SaveAnswers)
		api.Get("/get-results", quizHandler.GetResults)
		api.Get("/statistics", quizHandler.Statistics)
		api.Get("/export-results", reportHandler.ExportResults)
	})

	return r
}
