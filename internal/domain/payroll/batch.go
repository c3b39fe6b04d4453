package payroll

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// BatchState is a step of the batch generation state machine.
type BatchState string

const (
	BatchIdle                BatchState = "idle"
	BatchPreviewRequested    BatchState = "preview_requested"
	BatchPreviewReady        BatchState = "preview_ready"
	BatchPreviewFailed       BatchState = "preview_failed"
	BatchConfirmed           BatchState = "confirmed"
	BatchGenerating          BatchState = "generating"
	BatchCompleted           BatchState = "completed"
	BatchCompletedWithErrors BatchState = "completed_with_errors"
	BatchRetrying            BatchState = "retrying"
	BatchRetryCompleted      BatchState = "retry_completed"
)

type BatchEvent string

const (
	EventRequestPreview BatchEvent = "request_preview"
	EventPreviewOK      BatchEvent = "preview_ok"
	EventPreviewErrors  BatchEvent = "preview_errors"
	EventConfirm        BatchEvent = "confirm"
	EventGenerate       BatchEvent = "generate"
	EventAllSucceeded   BatchEvent = "all_succeeded"
	EventSomeFailed     BatchEvent = "some_failed"
	EventRetry          BatchEvent = "retry"
	EventRetryDone      BatchEvent = "retry_done"
)

var batchTransitions = map[BatchState]map[BatchEvent]BatchState{
	BatchIdle: {
		EventRequestPreview: BatchPreviewRequested,
		EventGenerate:       BatchGenerating,
	},
	BatchPreviewRequested: {
		EventPreviewOK:     BatchPreviewReady,
		EventPreviewErrors: BatchPreviewFailed,
	},
	BatchPreviewReady: {
		EventConfirm:        BatchConfirmed,
		EventRequestPreview: BatchPreviewRequested,
	},
	BatchPreviewFailed: {
		EventRequestPreview: BatchPreviewRequested,
	},
	BatchConfirmed: {
		EventGenerate: BatchGenerating,
	},
	BatchGenerating: {
		EventAllSucceeded: BatchCompleted,
		EventSomeFailed:   BatchCompletedWithErrors,
	},
	BatchCompletedWithErrors: {
		EventRetry: BatchRetrying,
	},
	BatchRetrying: {
		EventRetryDone: BatchRetryCompleted,
	},
	BatchRetryCompleted: {
		EventRetry: BatchRetrying,
	},
}

// Next returns the state reached by applying ev, or ErrInvalidBatchTransition.
func (s BatchState) Next(ev BatchEvent) (BatchState, error) {
	if next, ok := batchTransitions[s][ev]; ok {
		return next, nil
	}
	return s, fmt.Errorf("%w: %s on %s", ErrInvalidBatchTransition, ev, s)
}

// IssueKind tags why a candidate was left out of the previews.
type IssueKind string

const (
	IssueEmployeeInactive  IssueKind = "employee_inactive"
	IssueSlipExists        IssueKind = "slip_exists"
	IssueNoRate            IssueKind = "no_rate_configured"
	IssuePeriodNotFinal    IssueKind = "period_not_finalized"
	IssueZeroHours         IssueKind = "zero_hours"
	IssueNegativeNet       IssueKind = "negative_net"
	IssueFullyAbsent       IssueKind = "fully_absent"
	IssueCalculationFailed IssueKind = "calculation_failed"
)

type EmployeePreview struct {
	EmployeeID   string      `json:"employee_id"`
	EmployeeName string      `json:"employee_name"`
	Calculation  Calculation `json:"calculation"`
}

type BatchIssue struct {
	EmployeeID   string    `json:"employee_id"`
	EmployeeName string    `json:"employee_name"`
	Kind         IssueKind `json:"kind"`
	Message      string    `json:"message"`
}

type PreviewSummary struct {
	Candidates int             `json:"candidates"`
	Previewed  int             `json:"previewed"`
	Warnings   int             `json:"warnings"`
	Errors     int             `json:"errors"`
	TotalGross decimal.Decimal `json:"total_gross"`
	TotalNet   decimal.Decimal `json:"total_net"`
}

// BatchPreview is computed without persisting anything. Each candidate lands
// in exactly one of Previews, Warnings or Errors.
type BatchPreview struct {
	PeriodID string            `json:"period_id"`
	State    BatchState        `json:"state"`
	Previews []EmployeePreview `json:"previews"`
	Warnings []BatchIssue      `json:"warnings"`
	Errors   []BatchIssue      `json:"errors"`
	Summary  PreviewSummary    `json:"summary"`
}

type ErrorDetail struct {
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	Error        string `json:"error"`
}

type ResultSummary struct {
	TotalGross decimal.Decimal `json:"total_gross"`
	TotalNet   decimal.Decimal `json:"total_net"`
}

// BatchResult reports one generate or retry run. Created + Errors equals the
// number of employees attempted.
type BatchResult struct {
	RunID        string        `json:"run_id"`
	PeriodID     string        `json:"period_id"`
	State        BatchState    `json:"state"`
	Created      int           `json:"created"`
	Errors       int           `json:"errors"`
	PayslipIDs   []string      `json:"payslip_ids"`
	ErrorDetails []ErrorDetail `json:"error_details"`
	RetryQueue   []string      `json:"retry_queue"`
	Summary      ResultSummary `json:"summary"`
}

// BatchProgress is pushed to the requesting user while a run is in flight.
type BatchProgress struct {
	RunID     string `json:"run_id"`
	PeriodID  string `json:"period_id"`
	Total     int    `json:"total"`
	Done      int    `json:"done"`
	Failed    int    `json:"failed"`
	Completed bool   `json:"completed"`
}
