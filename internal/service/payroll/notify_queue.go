package payroll

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/shop-erp-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/shop-erp-backend-go/internal/domain/payroll"
)

var ErrNotificationQueueClosed = errors.New("notification queue is closed")

// NotificationQueueConfig tunes the background delivery of payslip notices.
type NotificationQueueConfig struct {
	WorkerCount int           // default: 2
	QueueSize   int           // default: 1000
	SendTimeout time.Duration // default: 2 minutes
}

type payslipNotice struct {
	ctx    context.Context
	emp    employee.Employee
	period payroll.Period
	slip   payroll.Payslip
}

// NotificationQueue is a Notifier that accepts notices immediately and hands
// them to a slower Notifier on background workers. A full queue makes
// NotifyPayslip wait for room or for its context.
type NotificationQueue struct {
	next   Notifier
	config NotificationQueueConfig

	mu     sync.RWMutex
	closed bool
	queue  chan payslipNotice
	wg     sync.WaitGroup
}

func NewNotificationQueue(next Notifier, cfg NotificationQueueConfig) *NotificationQueue {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 2 * time.Minute
	}

	q := &NotificationQueue{
		next:   next,
		config: cfg,
		queue:  make(chan payslipNotice, cfg.QueueSize),
	}
	for i := 0; i < cfg.WorkerCount; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}

	slog.Info("payslip notification queue started", "workers", cfg.WorkerCount, "queue_size", cfg.QueueSize)
	return q
}

// NotifyPayslip implements Notifier. Delivery outlives ctx's cancellation but
// keeps its values.
func (q *NotificationQueue) NotifyPayslip(ctx context.Context, emp employee.Employee, period payroll.Period, slip payroll.Payslip) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrNotificationQueueClosed
	}

	select {
	case q.queue <- payslipNotice{ctx: context.WithoutCancel(ctx), emp: emp, period: period, slip: slip}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *NotificationQueue) worker(id int) {
	defer q.wg.Done()

	for n := range q.queue {
		ctx, cancel := context.WithTimeout(n.ctx, q.config.SendTimeout)
		if err := q.next.NotifyPayslip(ctx, n.emp, n.period, n.slip); err != nil {
			slog.Error("failed to notify employee",
				"worker", id,
				"payslip_id", n.slip.ID,
				"employee_id", n.emp.ID,
				"error", err)
		}
		cancel()
	}
}

// Close stops intake and waits for queued notices to be delivered, or for ctx.
func (q *NotificationQueue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.queue)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
