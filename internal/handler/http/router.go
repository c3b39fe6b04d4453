package http

import (
	"log/slog"

	"github.com/cmlabs-hris/shop-erp-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/shop-erp-backend-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterConfig struct {
	Logger         *slog.Logger
	AllowedOrigins []string
}

func NewRouter(
	cfg RouterConfig,
	JWTService jwt.Service,
	payrollHandler PayrollHandler,
	attendanceHandler AttendanceHandler,
	leaveHandler LeaveHandler,
	eventHandler EventHandler,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Content-Disposition"},
		MaxAge:           300,
	}))

	if cfg.Logger != nil {
		r.Use(httplog.RequestLogger(cfg.Logger, &httplog.Options{
			Level:  slog.LevelInfo,
			Schema: httplog.SchemaECS,
		}))
	}

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {
		// Token travels in the query string
		r.Get("/events/stream", eventHandler.Stream)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired)
			r.Use(middleware.RequireShop)
			r.Use(chiMiddleware.AllowContentType("application/json"))

			r.Post("/events/token", eventHandler.GetSSEToken)

			r.Route("/attendance", func(r chi.Router) {
				r.Post("/check-in", attendanceHandler.CheckIn)
				r.Post("/check-out", attendanceHandler.CheckOut)
				r.Get("/employees/{employeeId}/summary", attendanceHandler.Summary)
			})

			r.Route("/leave/requests", func(r chi.Router) {
				r.Post("/", leaveHandler.CreateRequest)
				r.Post("/{id}/cancel", leaveHandler.CancelRequest)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireManager)
					r.Post("/{id}/approve", leaveHandler.ApproveRequest)
					r.Post("/{id}/reject", leaveHandler.RejectRequest)
				})
			})

			// Manager only
			r.Route("/payroll", func(r chi.Router) {
				r.Use(middleware.RequireManager)

				r.Route("/periods", func(r chi.Router) {
					r.Get("/", payrollHandler.ListPeriods)
					r.Post("/", payrollHandler.CreatePeriod)
					r.Route("/{id}", func(r chi.Router) {
						r.Get("/", payrollHandler.GetPeriod)
						r.Post("/finalize-attendance", payrollHandler.FinalizeAttendance)
						r.Get("/payslips", payrollHandler.ListPayslips)
						r.Get("/export", payrollHandler.ExportBatch)
					})
				})

				r.Route("/batches", func(r chi.Router) {
					r.Post("/preview", payrollHandler.PreviewBatch)
					r.Post("/confirm", payrollHandler.ConfirmBatch)
					r.Post("/generate", payrollHandler.GenerateBatch)
					r.Post("/retry", payrollHandler.RetryBatch)
				})

				r.Route("/payslips", func(r chi.Router) {
					r.Post("/", payrollHandler.GeneratePayslip)
					r.Get("/{id}", payrollHandler.GetPayslip)
					r.Patch("/{id}/status", payrollHandler.UpdatePayslipStatus)
				})

				r.Get("/employees/{employeeId}/summary", payrollHandler.GetEmployeeSummary)
			})
		})
	})

	return r
}
