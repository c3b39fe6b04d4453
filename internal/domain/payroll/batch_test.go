package payroll

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchState_HappyPath(t *testing.T) {
	state := BatchIdle
	steps := []struct {
		event BatchEvent
		want  BatchState
	}{
		{EventRequestPreview, BatchPreviewRequested},
		{EventPreviewOK, BatchPreviewReady},
		{EventConfirm, BatchConfirmed},
		{EventGenerate, BatchGenerating},
		{EventSomeFailed, BatchCompletedWithErrors},
		{EventRetry, BatchRetrying},
		{EventRetryDone, BatchRetryCompleted},
		{EventRetry, BatchRetrying},
	}
	for _, step := range steps {
		next, err := state.Next(step.event)
		require.NoError(t, err, "%s on %s", step.event, state)
		assert.Equal(t, step.want, next)
		state = next
	}
}

func TestBatchState_InvalidTransitions(t *testing.T) {
	tests := []struct {
		from  BatchState
		event BatchEvent
	}{
		{BatchPreviewFailed, EventConfirm},
		{BatchPreviewRequested, EventConfirm},
		{BatchCompleted, EventRetry},
		{BatchCompleted, EventGenerate},
		{BatchGenerating, EventRequestPreview},
		{BatchIdle, EventConfirm},
	}
	for _, tt := range tests {
		next, err := tt.from.Next(tt.event)
		assert.ErrorIs(t, err, ErrInvalidBatchTransition, "%s on %s", tt.event, tt.from)
		assert.Equal(t, tt.from, next)
	}
}

func TestBatchState_FailedPreviewCanBeRerun(t *testing.T) {
	next, err := BatchPreviewFailed.Next(EventRequestPreview)
	require.NoError(t, err)
	assert.Equal(t, BatchPreviewRequested, next)
}

func TestPayslipStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, PayslipStatusGenerated.CanTransitionTo(PayslipStatusApproved))
	assert.True(t, PayslipStatusApproved.CanTransitionTo(PayslipStatusPaid))
	assert.False(t, PayslipStatusGenerated.CanTransitionTo(PayslipStatusPaid))
	assert.False(t, PayslipStatusPaid.CanTransitionTo(PayslipStatusApproved))
	assert.False(t, PayslipStatusApproved.CanTransitionTo(PayslipStatusGenerated))
}

func TestGenerateBatchRequest_Validate(t *testing.T) {
	req := GenerateBatchRequest{}
	err := req.Validate()
	require.Error(t, err)
	fields := err.(interface{ ToMap() map[string]string }).ToMap()
	assert.Len(t, fields, 4)
	assert.Contains(t, fields, "confirmation_token")

	req = GenerateBatchRequest{PeriodID: "p", EmployeeIDs: []string{"e"}, PaymentMethod: "check", ConfirmationToken: "t"}
	assert.NoError(t, req.Validate())
}
