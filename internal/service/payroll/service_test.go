package payroll

import (
	"context"
	"io"
	"testing"

	"github.com/cmlabs-hris/shop-erp-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/shop-erp-backend-go/internal/domain/payroll"
	appjwt "github.com/cmlabs-hris/shop-erp-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/shop-erp-backend-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededFixture(emps ...employee.Employee) *fixture {
	f := newFixture(emps...)
	p := finalizedPeriod(22)
	f.periods.periods[p.ID] = p
	return f
}

func TestPayrollService_RequiresShopClaim(t *testing.T) {
	f := seededFixture()
	_, err := f.service.ListPeriods(context.Background())
	assert.Error(t, err)

	_, err = f.service.ListPeriods(claimsContext("", "user-1"))
	assert.Error(t, err)
}

func TestPayrollService_PeriodLifecycle(t *testing.T) {
	f := seededFixture()
	ctx := claimsContext("shop-1", "user-1")

	_, err := f.service.CreatePeriod(ctx, payroll.CreatePeriodRequest{Label: "Nov", StartDate: "2026-11-30", EndDate: "2026-11-01", WorkingDays: 20})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "end_date", verrs[0].Field)

	created, err := f.service.CreatePeriod(ctx, payroll.CreatePeriodRequest{Label: "Nov", StartDate: "2026-11-01", EndDate: "2026-11-30", WorkingDays: 20})
	require.NoError(t, err)
	assert.Equal(t, "not_started", created.AttendanceStatus)

	finalized, err := f.service.FinalizeAttendance(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "finalized", finalized.AttendanceStatus)

	_, err = f.service.FinalizeAttendance(ctx, created.ID)
	assert.ErrorIs(t, err, payroll.ErrPeriodAlreadyFinalized)

	_, err = f.service.GetPeriod(claimsContext("shop-2", "user-9"), created.ID)
	assert.ErrorIs(t, err, payroll.ErrPeriodNotFound)

	periods, err := f.service.ListPeriods(ctx)
	require.NoError(t, err)
	assert.Len(t, periods, 2)
}

func TestPayrollService_GeneratePayslipAndStatusFlow(t *testing.T) {
	f := seededFixture(staffMember("a", "22000"))
	ctx := claimsContext("shop-1", "user-1")

	slip, err := f.service.GeneratePayslip(ctx, payroll.GeneratePayslipRequest{
		EmployeeID:     "a",
		PeriodID:       "period-1",
		PaymentMethod:  "bank_transfer",
		ExpectedNetPay: money("20450"),
	})
	require.NoError(t, err)
	assert.Equal(t, "generated", slip.Status)
	assert.Equal(t, "user-1", slip.GeneratedBy)
	assert.Len(t, f.notifier.sent, 1)

	_, err = f.service.GeneratePayslip(ctx, payroll.GeneratePayslipRequest{EmployeeID: "a", PeriodID: "period-1", PaymentMethod: "cash"})
	assert.ErrorIs(t, err, payroll.ErrPayslipAlreadyExists)

	_, err = f.service.UpdatePayslipStatus(ctx, slip.ID, payroll.UpdatePayslipStatusRequest{Status: "paid"})
	assert.ErrorIs(t, err, payroll.ErrInvalidStatusChange)

	approved, err := f.service.UpdatePayslipStatus(ctx, slip.ID, payroll.UpdatePayslipStatusRequest{Status: "approved"})
	require.NoError(t, err)
	assert.Equal(t, "approved", approved.Status)

	paid, err := f.service.UpdatePayslipStatus(ctx, slip.ID, payroll.UpdatePayslipStatusRequest{Status: "paid"})
	require.NoError(t, err)
	assert.Equal(t, "paid", paid.Status)

	_, err = f.service.UpdatePayslipStatus(ctx, slip.ID, payroll.UpdatePayslipStatusRequest{Status: "generated"})
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)

	got, err := f.service.GetPayslip(ctx, slip.ID)
	require.NoError(t, err)
	assert.Equal(t, "paid", got.Status)
}

func confirmBatch(t *testing.T, f *fixture, ctx context.Context, ids ...string) payroll.ConfirmBatchResponse {
	t.Helper()
	resp, err := f.service.ConfirmBatch(ctx, payroll.ConfirmBatchRequest{PeriodID: "period-1", EmployeeIDs: ids, AcknowledgeWarnings: true})
	require.NoError(t, err)
	require.NotEmpty(t, resp.ConfirmationToken)
	return resp
}

func TestPayrollService_GenerateBatchResolvesUnknownIDs(t *testing.T) {
	f := seededFixture(staffMember("a", "22000"), staffMember("b", "18000"))
	ctx := claimsContext("shop-1", "user-1")
	ids := []string{"a", "b", "a", "missing"}
	confirmed := confirmBatch(t, f, ctx, ids...)

	res, err := f.service.GenerateBatch(ctx, payroll.GenerateBatchRequest{
		PeriodID:          "period-1",
		EmployeeIDs:       ids,
		PaymentMethod:     "cash",
		ConfirmationToken: confirmed.ConfirmationToken,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 1, res.Errors)
	assert.Equal(t, []string{"missing"}, res.RetryQueue)
	assert.Equal(t, "employee not found in this shop", res.ErrorDetails[0].Error)
	assert.Empty(t, f.notifier.sent)

	slips, err := f.service.ListPayslips(ctx, "period-1")
	require.NoError(t, err)
	assert.Len(t, slips, 2)

	file, err := f.service.ExportBatch(ctx, "period-1", "csv")
	require.NoError(t, err)
	body, err := io.ReadAll(file.Content)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Staff a")
}

func TestPayrollService_GenerateBatchNeedsConfirmation(t *testing.T) {
	f := seededFixture(staffMember("a", "22000"))
	ctx := claimsContext("shop-1", "user-1")
	req := payroll.GenerateBatchRequest{PeriodID: "period-1", EmployeeIDs: []string{"a"}, PaymentMethod: "cash"}

	_, err := f.service.GenerateBatch(ctx, req)
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.ToMap(), "confirmation_token")

	req.ConfirmationToken = "not-a-token"
	_, err = f.service.GenerateBatch(ctx, req)
	assert.ErrorIs(t, err, payroll.ErrInvalidConfirmation)

	forged, _, err := appjwt.NewJWTService("other-secret", "1h").GenerateBatchConfirmationToken(appjwt.BatchConfirmation{
		ShopID: "shop-1", UserID: "user-1", PeriodID: "period-1", Digest: "anything",
	})
	require.NoError(t, err)
	req.ConfirmationToken = forged
	_, err = f.service.GenerateBatch(ctx, req)
	assert.ErrorIs(t, err, payroll.ErrInvalidConfirmation)

	_, err = f.service.RetryBatch(ctx, payroll.RetryBatchRequest{PeriodID: "period-1", EmployeeIDs: []string{"a"}, PaymentMethod: "cash"})
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.ToMap(), "confirmation_token")

	assert.Equal(t, 0, f.slips.count())
}

func TestPayrollService_ConfirmationBindsPreview(t *testing.T) {
	ctx := claimsContext("shop-1", "user-1")
	generate := func(f *fixture, ctx context.Context, token string, ids ...string) (payroll.BatchResult, error) {
		return f.service.GenerateBatch(ctx, payroll.GenerateBatchRequest{
			PeriodID: "period-1", EmployeeIDs: ids, PaymentMethod: "cash", ConfirmationToken: token,
		})
	}

	t.Run("different employee set", func(t *testing.T) {
		f := seededFixture(staffMember("a", "22000"), staffMember("b", "18000"))
		token := confirmBatch(t, f, ctx, "a", "b").ConfirmationToken
		_, err := generate(f, ctx, token, "a")
		assert.ErrorIs(t, err, payroll.ErrConfirmationStale)
		assert.Equal(t, 0, f.slips.count())
	})

	t.Run("figures changed since confirm", func(t *testing.T) {
		f := seededFixture(staffMember("a", "22000"))
		token := confirmBatch(t, f, ctx, "a").ConfirmationToken
		f.source.summaries["a"] = summary("168", "0", "0", 1)
		_, err := generate(f, ctx, token, "a")
		assert.ErrorIs(t, err, payroll.ErrConfirmationStale)
		assert.Equal(t, 0, f.slips.count())
	})

	t.Run("other user or period", func(t *testing.T) {
		f := seededFixture(staffMember("a", "22000"))
		token := confirmBatch(t, f, ctx, "a").ConfirmationToken
		_, err := generate(f, claimsContext("shop-1", "user-2"), token, "a")
		assert.ErrorIs(t, err, payroll.ErrInvalidConfirmation)

		other := finalizedPeriod(22)
		other.ID = "period-2"
		f.periods.periods[other.ID] = other
		_, err = f.service.GenerateBatch(ctx, payroll.GenerateBatchRequest{
			PeriodID: "period-2", EmployeeIDs: []string{"a"}, PaymentMethod: "cash", ConfirmationToken: token,
		})
		assert.ErrorIs(t, err, payroll.ErrInvalidConfirmation)
	})

	t.Run("confirmed token generates", func(t *testing.T) {
		f := seededFixture(staffMember("a", "22000"))
		resp := confirmBatch(t, f, ctx, "a")
		res, err := generate(f, ctx, resp.ConfirmationToken, resp.EmployeeIDs...)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Created)
		assert.Equal(t, payroll.BatchCompleted, res.State)
	})
}

func TestPayrollService_ConfirmBatch(t *testing.T) {
	f := seededFixture(staffMember("a", "22000"), staffMember("idle", "22000"))
	f.source.summaries["idle"] = summary("0", "0", "0", 0)
	ctx := claimsContext("shop-1", "user-1")

	_, err := f.service.ConfirmBatch(ctx, payroll.ConfirmBatchRequest{PeriodID: "period-1"})
	assert.ErrorIs(t, err, payroll.ErrWarningsNotAcknowledged)

	resp, err := f.service.ConfirmBatch(ctx, payroll.ConfirmBatchRequest{PeriodID: "period-1", AcknowledgeWarnings: true})
	require.NoError(t, err)
	assert.Equal(t, payroll.BatchConfirmed, resp.State)
	assert.Equal(t, 2, resp.Preview.Summary.Candidates)
	assert.ElementsMatch(t, []string{"a", "idle"}, resp.EmployeeIDs)
	assert.NotEmpty(t, resp.ConfirmationToken)
	assert.NotZero(t, resp.ExpiresAt)
}

func TestPayrollService_DefaultRosterSkipsInactiveAndPaid(t *testing.T) {
	inactive := staffMember("gone", "22000")
	inactive.Status = employee.StatusInactive
	f := seededFixture(staffMember("a", "22000"), inactive, staffMember("paid", "22000"))
	ctx := claimsContext("shop-1", "user-1")

	_, err := f.service.GeneratePayslip(ctx, payroll.GeneratePayslipRequest{EmployeeID: "paid", PeriodID: "period-1", PaymentMethod: "cash"})
	require.NoError(t, err)

	resp, err := f.service.ConfirmBatch(ctx, payroll.ConfirmBatchRequest{PeriodID: "period-1", AcknowledgeWarnings: true})
	require.NoError(t, err)
	assert.Equal(t, payroll.BatchConfirmed, resp.State)
	assert.Equal(t, 1, resp.Preview.Summary.Candidates)
	assert.Empty(t, resp.Preview.Errors)
	assert.Equal(t, []string{"a"}, resp.EmployeeIDs)
}

func TestPayrollService_EmployeeSummary(t *testing.T) {
	f := seededFixture(staffMember("a", "22000"))
	f.source.summaries["a"] = summary("160", "4", "2", 2)
	ctx := claimsContext("shop-1", "user-1")

	sum, err := f.service.GetEmployeeSummary(ctx, "a", "period-1")
	require.NoError(t, err)
	assert.Equal(t, 2, sum.AbsentDays)
	assert.False(t, sum.HasSlip)
	assertMoney(t, "160", sum.RegularHours)
	assert.Equal(t, 0, f.slips.count())

	_, err = f.service.GetEmployeeSummary(ctx, "nobody", "period-1")
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}
