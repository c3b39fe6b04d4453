package payroll

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/shop-erp-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/shop-erp-backend-go/internal/domain/payroll"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedNotifier blocks every delivery until release is closed.
type gatedNotifier struct {
	release chan struct{}
	mu      sync.Mutex
	sent    []string
	ctxErrs []error
}

func newGatedNotifier() *gatedNotifier {
	return &gatedNotifier{release: make(chan struct{})}
}

func (g *gatedNotifier) NotifyPayslip(ctx context.Context, emp employee.Employee, period payroll.Period, slip payroll.Payslip) error {
	<-g.release
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = append(g.sent, slip.ID)
	g.ctxErrs = append(g.ctxErrs, ctx.Err())
	return nil
}

func (g *gatedNotifier) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sent)
}

func notice(q *NotificationQueue, ctx context.Context, slipID string) error {
	return q.NotifyPayslip(ctx, employee.Employee{ID: "emp-1"}, finalizedPeriod(22), payroll.Payslip{ID: slipID})
}

func TestNotificationQueue_AcceptsWithoutWaitingForDelivery(t *testing.T) {
	next := newGatedNotifier()
	q := NewNotificationQueue(next, NotificationQueueConfig{WorkerCount: 1, QueueSize: 8})

	ctx, cancel := context.WithCancel(context.Background())
	for i := 0; i < 3; i++ {
		require.NoError(t, notice(q, ctx, fmt.Sprintf("slip-%d", i)))
	}
	cancel()
	assert.Equal(t, 0, next.count())

	close(next.release)
	require.NoError(t, q.Close(context.Background()))
	assert.Equal(t, 3, next.count())
	for _, err := range next.ctxErrs {
		assert.NoError(t, err, "delivery must not inherit the request's cancellation")
	}

	assert.ErrorIs(t, notice(q, context.Background(), "late"), ErrNotificationQueueClosed)
}

func TestNotificationQueue_FullQueueHonoursContext(t *testing.T) {
	next := newGatedNotifier()
	q := NewNotificationQueue(next, NotificationQueueConfig{WorkerCount: 1, QueueSize: 1})

	require.NoError(t, notice(q, context.Background(), "slip-1"))
	require.NoError(t, notice(q, context.Background(), "slip-2"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, notice(q, ctx, "slip-3"), context.DeadlineExceeded)

	close(next.release)
	require.NoError(t, q.Close(context.Background()))
	assert.Equal(t, 2, next.count())
}

func TestNotificationQueue_CloseHonoursDeadline(t *testing.T) {
	next := newGatedNotifier()
	q := NewNotificationQueue(next, NotificationQueueConfig{WorkerCount: 1, QueueSize: 1})
	require.NoError(t, notice(q, context.Background(), "slip-1"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Close(ctx), context.DeadlineExceeded)

	close(next.release)
	assert.Eventually(t, func() bool { return next.count() == 1 }, time.Second, 5*time.Millisecond)
}

func TestWorkflow_SlowMailDoesNotBlockGeneration(t *testing.T) {
	emp := staffMember("emp-1", "22000")
	f := newFixture(emp)
	next := newGatedNotifier()
	queue := NewNotificationQueue(next, NotificationQueueConfig{WorkerCount: 1})
	f.workflow.notifier = queue

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := f.workflow.Generate(context.Background(), emp, finalizedPeriod(22), cashOptions())
		assert.NoError(t, err)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Generate waited on mail delivery")
	}
	assert.Equal(t, 1, f.slips.count())
	assert.Equal(t, 0, next.count())

	close(next.release)
	require.NoError(t, queue.Close(context.Background()))
	assert.Equal(t, 1, next.count())
}
