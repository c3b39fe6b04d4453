package leave

import "context"

type LeaveService interface {
	CreateRequest(ctx context.Context, shopID string, req CreateLeaveRequestRequest) (LeaveRequest, error)
	Approve(ctx context.Context, shopID, requestID, approverID string) (LeaveRequest, error)
	Reject(ctx context.Context, shopID, requestID, approverID, reason string) (LeaveRequest, error)
	Cancel(ctx context.Context, shopID, requestID string) (LeaveRequest, error)
}
