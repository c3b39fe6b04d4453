package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/shop-erp-backend-go/internal/config"
	"github.com/cmlabs-hris/shop-erp-backend-go/internal/domain/attendance"
	appHTTP "github.com/cmlabs-hris/shop-erp-backend-go/internal/handler/http"
	"github.com/cmlabs-hris/shop-erp-backend-go/internal/pkg/cron"
	"github.com/cmlabs-hris/shop-erp-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/shop-erp-backend-go/internal/pkg/email"
	"github.com/cmlabs-hris/shop-erp-backend-go/internal/pkg/events"
	"github.com/cmlabs-hris/shop-erp-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/shop-erp-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/shop-erp-backend-go/internal/pkg/storage"
	"github.com/cmlabs-hris/shop-erp-backend-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/shop-erp-backend-go/internal/service/attendance"
	"github.com/cmlabs-hris/shop-erp-backend-go/internal/service/leave"
	payrollService "github.com/cmlabs-hris/shop-erp-backend-go/internal/service/payroll"
	"github.com/go-chi/httplog/v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Error loading config: ", err)
	}

	logFormat := httplog.SchemaECS.Concise(cfg.App.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.SlogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "shop-erp-payroll"),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	loc, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		log.Fatal("Invalid timezone: ", err)
	}

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
	if err != nil {
		log.Fatal("Error connecting to database: ", err)
	}
	defer db.Close()

	employeeRepo := postgresql.NewEmployeeRepository(db)
	periodRepo := postgresql.NewPeriodRepository(db)
	payslipRepo := postgresql.NewPayslipRepository(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	leaveTypeRepo := postgresql.NewLeaveTypeRepository(db)
	leaveBalanceRepo := postgresql.NewLeaveBalanceRepository(db)
	leaveRequestRepo := postgresql.NewLeaveRequestRepository(db)
	transactor := postgresql.NewTransactor(db)

	var fileStorage storage.FileStorage
	switch cfg.Storage.Type {
	case "local":
		fileStorage, err = storage.NewLocalStorage(cfg.Storage.BasePath)
		if err != nil {
			log.Fatal("Failed to initialize local storage: ", err)
		}
	default:
		log.Fatal("Unsupported storage types: ", cfg.Storage.Type)
	}

	mailer, err := email.NewPayslipMailer(cfg.SMTP, cfg.Payroll.DefaultCurrency)
	if err != nil {
		log.Fatal("Failed to initialize payslip mailer: ", err)
	}

	publisher := events.NewNoopPublisher()
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(events.NewKafkaWriter(cfg.Kafka.Brokers), cfg.Kafka.Topic)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			slog.Error("failed to close event publisher", "error", err)
		}
	}()

	hub := sse.NewHub()
	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	attendanceSvc := attendanceService.NewAttendanceService(attendanceRepo, employeeRepo, leaveRequestRepo, attendance.DefaultShift, loc)
	leaveSvc := leave.NewRequestService(transactor, leaveTypeRepo, leaveBalanceRepo, leaveRequestRepo, employeeRepo, loc)

	scheduler := cron.NewScheduler(context.Background())
	cron.NewAttendanceJobs(attendanceSvc, time.Hour).RegisterJobs(scheduler)
	scheduler.Start()
	defer scheduler.Stop()

	notifications := payrollService.NewNotificationQueue(mailer, payrollService.NotificationQueueConfig{
		WorkerCount: cfg.Payroll.NotifyWorkers,
		QueueSize:   cfg.Payroll.NotifyQueueSize,
	})

	engine := payrollService.NewEngine(nil)
	workflow := payrollService.NewWorkflow(transactor, employeeRepo, payslipRepo, attendanceSvc, engine, notifications, publisher)
	batch := payrollService.NewBatchOrchestrator(workflow, engine, attendanceSvc, hub, cfg.Payroll.BatchWorkers)
	exporter := payrollService.NewExporter(fileStorage, cfg.Payroll.DefaultCurrency)
	payrollSvc := payrollService.NewPayrollService(periodRepo, payslipRepo, employeeRepo, attendanceSvc, engine, workflow, batch, exporter, JWTService)

	router := appHTTP.NewRouter(
		appHTTP.RouterConfig{Logger: logger, AllowedOrigins: []string{cfg.App.FrontendURL}},
		JWTService,
		appHTTP.NewPayrollHandler(payrollSvc),
		appHTTP.NewAttendanceHandler(attendanceSvc),
		appHTTP.NewLeaveHandler(leaveSvc),
		appHTTP.NewEventHandler(hub, JWTService),
	)

	// No write timeout: the progress stream stays open for the whole batch
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("server running", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server error: ", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}
	if err := notifications.Close(ctx); err != nil {
		slog.Error("payslip notifications left undelivered", "error", err)
	}
}
