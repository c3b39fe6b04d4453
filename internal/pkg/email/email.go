package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/shop-erp-backend-go/internal/config"
	"github.com/cmlabs-hris/shop-erp-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/shop-erp-backend-go/internal/domain/payroll"
	"golang.org/x/time/rate"
	"gopkg.in/gomail.v2"
)

//go:embed templates/*.html
var templateFS embed.FS

const maxRetries = 3

// Sender delivers one composed message. *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// PayslipMailer tells employees their payslip is ready.
type PayslipMailer struct {
	cfg       config.SMTPConfig
	currency  string
	sender    Sender
	templates *template.Template
	backoff   func(attempt int) time.Duration

	// limiter paces SMTP dials; a batch can notify hundreds of employees
	limiter *rate.Limiter
}

// NewPayslipMailer returns a mailer that logs and skips sends when no SMTP
// host is configured.
func NewPayslipMailer(cfg config.SMTPConfig, currency string) (*PayslipMailer, error) {
	var sender Sender
	if cfg.Host != "" {
		sender = gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	}
	return newPayslipMailer(cfg, currency, sender)
}

func newPayslipMailer(cfg config.SMTPConfig, currency string, sender Sender) (*PayslipMailer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	limit, burst := rate.Inf, 1
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
		burst = max(1, int(cfg.RatePerSecond))
	}

	return &PayslipMailer{
		limiter:   rate.NewLimiter(limit, burst),
		cfg:       cfg,
		currency:  currency,
		sender:    sender,
		templates: tmpl,
		backoff: func(attempt int) time.Duration {
			// 1s, 2s, 4s
			return time.Duration(1<<(attempt-1)) * time.Second
		},
	}, nil
}

type payslipEmailData struct {
	EmployeeName    string
	PeriodLabel     string
	Currency        string
	GrossPay        string
	TotalEarnings   string
	TotalDeductions string
	NetPay          string
	PaymentMethod   string
	PayslipID       string
}

// NotifyPayslip mails the employee a summary of slip. Employees without an
// email address are skipped.
func (s *PayslipMailer) NotifyPayslip(ctx context.Context, emp employee.Employee, period payroll.Period, slip payroll.Payslip) error {
	if emp.Email == nil || *emp.Email == "" {
		slog.Info("employee has no email, skipping payslip notification", "employee_id", emp.ID)
		return nil
	}

	calc := slip.Calculation
	data := payslipEmailData{
		EmployeeName:    emp.DisplayName(),
		PeriodLabel:     period.Label,
		Currency:        s.currency,
		GrossPay:        calc.Summary.GrossPay.StringFixed(2),
		TotalEarnings:   calc.Earnings.TotalEarnings.StringFixed(2),
		TotalDeductions: calc.Deductions.TotalDeductions.StringFixed(2),
		NetPay:          calc.Summary.NetPay.StringFixed(2),
		PaymentMethod:   string(slip.PaymentMethod),
		PayslipID:       slip.ID,
	}

	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, "payslip.html", data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	return s.sendHTML(ctx, *emp.Email, fmt.Sprintf("Your payslip for %s", period.Label), body.String())
}

func (s *PayslipMailer) sendHTML(ctx context.Context, to, subject, htmlBody string) error {
	// Skip sending if SMTP is not configured
	if s.sender == nil {
		slog.Warn("SMTP not configured, skipping email send", "to", to, "subject", subject)
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("email send throttled: %w", err)
		}
		err := s.sender.DialAndSend(m)
		if err == nil {
			slog.Info("Email sent successfully", "to", to, "subject", subject, "attempt", attempt)
			return nil
		}

		lastErr = err
		slog.Error("Failed to send email",
			"to", to,
			"subject", subject,
			"attempt", attempt,
			"max_retries", maxRetries,
			"error", err,
		)

		if attempt < maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.backoff(attempt)):
			}
		}
	}

	return fmt.Errorf("failed to send email after %d attempts: %w", maxRetries, lastErr)
}
