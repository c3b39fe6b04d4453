package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cmlabs-hris/shop-erp-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/shop-erp-backend-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestSuccess_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Success(rec, []string{"ps-1", "ps-2"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, []any{"ps-1", "ps-2"}, body["data"])
	for _, key := range []string{"error", "message", "meta"} {
		assert.NotContains(t, body, key)
	}
}

func TestCreated_CarriesMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	Created(rec, "Payslip generated", map[string]string{"id": "ps-1"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Payslip generated", body["message"])
	assert.Len(t, body, 3)
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", fmt.Errorf("get: %w", payroll.ErrPeriodNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"stale confirmation", payroll.ErrConfirmationStale, http.StatusConflict, "CONFLICT"},
		{"invalid confirmation", payroll.ErrInvalidConfirmation, http.StatusUnprocessableEntity, "BUSINESS_RULE_VIOLATION"},
		{"unsupported format", payroll.ErrUnsupportedFormat, http.StatusBadRequest, "BAD_REQUEST"},
		{"validation", validator.ValidationErrors{{Field: "period_id", Message: "period_id is required"}}, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleError(rec, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, false, body["success"])
			errBody, ok := body["error"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, tt.code, errBody["code"])
		})
	}
}
