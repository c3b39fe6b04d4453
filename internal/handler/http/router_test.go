package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/shop-erp-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/shop-erp-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/shop-erp-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/shop-erp-backend-go/internal/pkg/sse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const routerTestSecret = "test-secret-key-for-jwt"

// fakePayrollService panics on methods a test did not stub.
type fakePayrollService struct {
	payroll.PayrollService
	getPeriod       func(ctx context.Context, id string) (payroll.PeriodResponse, error)
	createPeriod    func(ctx context.Context, req payroll.CreatePeriodRequest) (payroll.PeriodResponse, error)
	generatePayslip func(ctx context.Context, req payroll.GeneratePayslipRequest) (payroll.PayslipResponse, error)
	generateBatch   func(ctx context.Context, req payroll.GenerateBatchRequest) (payroll.BatchResult, error)
	exportBatch     func(ctx context.Context, periodID, format string) (payroll.ExportFile, error)
}

func (f *fakePayrollService) GetPeriod(ctx context.Context, id string) (payroll.PeriodResponse, error) {
	return f.getPeriod(ctx, id)
}

func (f *fakePayrollService) CreatePeriod(ctx context.Context, req payroll.CreatePeriodRequest) (payroll.PeriodResponse, error) {
	return f.createPeriod(ctx, req)
}

func (f *fakePayrollService) GeneratePayslip(ctx context.Context, req payroll.GeneratePayslipRequest) (payroll.PayslipResponse, error) {
	return f.generatePayslip(ctx, req)
}

func (f *fakePayrollService) GenerateBatch(ctx context.Context, req payroll.GenerateBatchRequest) (payroll.BatchResult, error) {
	return f.generateBatch(ctx, req)
}

func (f *fakePayrollService) ExportBatch(ctx context.Context, periodID, format string) (payroll.ExportFile, error) {
	return f.exportBatch(ctx, periodID, format)
}

type routerFixture struct {
	jwt     jwt.Service
	payroll *fakePayrollService
	handler http.Handler
}

func newRouterFixture() *routerFixture {
	f := &routerFixture{
		jwt:     jwt.NewJWTService(routerTestSecret, "1h"),
		payroll: &fakePayrollService{},
	}
	f.handler = NewRouter(
		RouterConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		f.jwt,
		NewPayrollHandler(f.payroll),
		NewAttendanceHandler(nil),
		NewLeaveHandler(nil),
		NewEventHandler(sse.NewHub(), f.jwt),
	)
	return f
}

func (f *routerFixture) do(t *testing.T, method, path, role string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if role != "" {
		token, _, err := f.jwt.GenerateAccessToken("user-1", "shop-1", role)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var env response.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestRouter_RequiresAccessToken(t *testing.T) {
	f := newRouterFixture()

	rec := f.do(t, http.MethodGet, "/api/v1/payroll/periods/p-1", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	sseToken, _, err := f.jwt.GenerateSSEToken("user-1")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/payroll/periods/p-1", nil)
	req.Header.Set("Authorization", "Bearer "+sseToken)
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_PayrollIsManagerOnly(t *testing.T) {
	f := newRouterFixture()

	rec := f.do(t, http.MethodGet, "/api/v1/payroll/periods/p-1", "staff", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/leave/requests/lr-1/approve", "staff", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_ErrorMapping(t *testing.T) {
	f := newRouterFixture()
	f.payroll.getPeriod = func(ctx context.Context, id string) (payroll.PeriodResponse, error) {
		return payroll.PeriodResponse{}, payroll.ErrPeriodNotFound
	}
	f.payroll.generatePayslip = func(ctx context.Context, req payroll.GeneratePayslipRequest) (payroll.PayslipResponse, error) {
		return payroll.PayslipResponse{}, payroll.ErrPayslipAlreadyExists
	}
	f.payroll.generateBatch = func(ctx context.Context, req payroll.GenerateBatchRequest) (payroll.BatchResult, error) {
		return payroll.BatchResult{}, payroll.ErrBatchNotConfirmed
	}
	f.payroll.createPeriod = func(ctx context.Context, req payroll.CreatePeriodRequest) (payroll.PeriodResponse, error) {
		return payroll.PeriodResponse{}, req.Validate()
	}

	rec := f.do(t, http.MethodGet, "/api/v1/payroll/periods/p-1", "manager", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeEnvelope(t, rec).Error.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/payroll/payslips", "owner", payroll.GeneratePayslipRequest{EmployeeID: "e", PeriodID: "p", PaymentMethod: "cash"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/payroll/batches/generate", "owner", payroll.GenerateBatchRequest{PeriodID: "p"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "BUSINESS_RULE_VIOLATION", decodeEnvelope(t, rec).Error.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/payroll/periods", "owner", payroll.CreatePeriodRequest{Label: "Oct"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Details, "working_days")
}

func TestRouter_ConfirmationErrors(t *testing.T) {
	f := newRouterFixture()
	f.payroll.generateBatch = func(ctx context.Context, req payroll.GenerateBatchRequest) (payroll.BatchResult, error) {
		if req.ConfirmationToken == "stale" {
			return payroll.BatchResult{}, payroll.ErrConfirmationStale
		}
		return payroll.BatchResult{}, fmt.Errorf("%w: token is expired", payroll.ErrInvalidConfirmation)
	}

	rec := f.do(t, http.MethodPost, "/api/v1/payroll/batches/generate", "owner", payroll.GenerateBatchRequest{PeriodID: "p", ConfirmationToken: "stale"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/payroll/batches/generate", "owner", payroll.GenerateBatchRequest{PeriodID: "p", ConfirmationToken: "old"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "BUSINESS_RULE_VIOLATION", env.Error.Code)
	assert.Nil(t, env.Data)
}

func TestRouter_MalformedBody(t *testing.T) {
	f := newRouterFixture()
	token, _, err := f.jwt.GenerateAccessToken("user-1", "shop-1", "owner")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payroll/batches/generate", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_ExportStreamsFile(t *testing.T) {
	f := newRouterFixture()
	f.payroll.exportBatch = func(ctx context.Context, periodID, format string) (payroll.ExportFile, error) {
		assert.Equal(t, "p-1", periodID)
		assert.Equal(t, "csv", format)
		body := "employee_code,employee_name\n"
		return payroll.ExportFile{
			Filename:    "payroll-register-october.csv",
			ContentType: "text/csv",
			Content:     strings.NewReader(body),
			Size:        int64(len(body)),
		}, nil
	}

	rec := f.do(t, http.MethodGet, "/api/v1/payroll/periods/p-1/export", "manager", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="payroll-register-october.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "employee_code,employee_name\n", rec.Body.String())
}

func TestRouter_SSETokenAndStreamAuth(t *testing.T) {
	f := newRouterFixture()

	rec := f.do(t, http.MethodPost, "/api/v1/events/token", "staff", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var env struct {
		Data SSETokenResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	userID, err := f.jwt.ValidateSSEToken(env.Data.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/events/stream", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/events/stream?token=garbage", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStream_DeliversPublishedEvents(t *testing.T) {
	hub := sse.NewHub()
	svc := jwt.NewJWTService(routerTestSecret, "1h")
	h := NewEventHandler(hub, svc)

	token, _, err := svc.GenerateSSEToken("user-1")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/events/stream?token="+token, nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		h.Stream(rec, req)
		close(done)
	}()

	require.Eventually(t, func() bool { return hub.SubscriberCount("user-1") == 1 }, time.Second, 5*time.Millisecond)
	hub.Publish("user-1", sse.Event{UserID: "user-1", Event: "payroll.batch.progress", Data: map[string]int{"done": 3}})

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	body := rec.Body.String()
	assert.Contains(t, body, "event: connected")
	assert.Contains(t, body, "event: payroll.batch.progress\ndata: {\"done\":3}")
	assert.Equal(t, 0, hub.SubscriberCount("user-1"))
}
