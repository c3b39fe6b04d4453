package payroll

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/cmlabs-hris/shop-erp-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/shop-erp-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/shop-erp-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/shop-erp-backend-go/internal/pkg/events"
	appjwt "github.com/cmlabs-hris/shop-erp-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/shop-erp-backend-go/internal/pkg/sse"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

type fakeTransactor struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return fn(ctx)
}

type fakePayslipRepository struct {
	mu       sync.Mutex
	slips    map[string]payroll.Payslip
	createFn func(slip payroll.Payslip) error
}

func newFakePayslipRepository() *fakePayslipRepository {
	return &fakePayslipRepository{slips: map[string]payroll.Payslip{}}
}

func pairKey(employeeID, periodID string) string {
	return employeeID + "|" + periodID
}

func (f *fakePayslipRepository) Create(ctx context.Context, slip payroll.Payslip) (payroll.Payslip, error) {
	if f.createFn != nil {
		if err := f.createFn(slip); err != nil {
			return payroll.Payslip{}, err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := pairKey(slip.EmployeeID, slip.PeriodID)
	if _, ok := f.slips[key]; ok {
		return payroll.Payslip{}, payroll.ErrPayslipAlreadyExists
	}
	f.slips[key] = slip
	return slip, nil
}

func (f *fakePayslipRepository) GetByID(ctx context.Context, shopID, id string) (payroll.Payslip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.slips {
		if s.ID == id && s.ShopID == shopID {
			return s, nil
		}
	}
	return payroll.Payslip{}, payroll.ErrPayslipNotFound
}

func (f *fakePayslipRepository) ListByPeriod(ctx context.Context, shopID, periodID string) ([]payroll.Payslip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []payroll.Payslip
	for _, s := range f.slips {
		if s.ShopID == shopID && s.PeriodID == periodID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakePayslipRepository) ExistsForPeriod(ctx context.Context, shopID, employeeID, periodID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.slips[pairKey(employeeID, periodID)]
	return ok, nil
}

func (f *fakePayslipRepository) UpdateStatus(ctx context.Context, shopID, id string, status payroll.PayslipStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, s := range f.slips {
		if s.ID == id {
			s.Status = status
			f.slips[k] = s
			return nil
		}
	}
	return payroll.ErrPayslipNotFound
}

func (f *fakePayslipRepository) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.slips)
}

type fakeEmployeeRepository struct {
	mu        sync.Mutex
	employees map[string]employee.Employee
	order     []string
	slips     *fakePayslipRepository
	lockDelay time.Duration
}

func newFakeEmployeeRepository(slips *fakePayslipRepository, emps ...employee.Employee) *fakeEmployeeRepository {
	f := &fakeEmployeeRepository{employees: map[string]employee.Employee{}, slips: slips}
	for _, e := range emps {
		f.employees[e.ID] = e
		f.order = append(f.order, e.ID)
	}
	return f
}

func (f *fakeEmployeeRepository) withSlipFlag(e employee.Employee, periodID string) employee.Employee {
	if f.slips != nil {
		exists, _ := f.slips.ExistsForPeriod(context.Background(), e.ShopID, e.ID, periodID)
		e.HasSlipForPeriod = e.HasSlipForPeriod || exists
	}
	return e
}

func (f *fakeEmployeeRepository) GetByID(ctx context.Context, shopID, id string) (employee.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.employees[id]
	if !ok || e.ShopID != shopID {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

func (f *fakeEmployeeRepository) GetForPeriod(ctx context.Context, shopID, periodID, id string) (employee.Employee, error) {
	e, err := f.GetByID(ctx, shopID, id)
	if err != nil {
		return employee.Employee{}, err
	}
	return f.withSlipFlag(e, periodID), nil
}

func (f *fakeEmployeeRepository) ListForPeriod(ctx context.Context, shopID, periodID string, ids []string) ([]employee.Employee, error) {
	var out []employee.Employee
	for _, id := range ids {
		if e, err := f.GetForPeriod(ctx, shopID, periodID, id); err == nil {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEmployeeRepository) ListPayrollCandidates(ctx context.Context, shopID, periodID string) ([]employee.Employee, error) {
	all, err := f.ListForPeriod(ctx, shopID, periodID, f.order)
	if err != nil {
		return nil, err
	}
	var out []employee.Employee
	for _, e := range all {
		if e.Status == employee.StatusActive && !e.HasSlipForPeriod {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEmployeeRepository) ListActive(ctx context.Context) ([]employee.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []employee.Employee
	for _, id := range f.order {
		if e := f.employees[id]; e.Status == employee.StatusActive {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEmployeeRepository) LockForPayroll(ctx context.Context, shopID, id string) error {
	if f.lockDelay > 0 {
		time.Sleep(f.lockDelay)
	}
	return nil
}

type fakeAttendanceSource struct {
	mu        sync.Mutex
	summaries map[string]attendance.Summary
	fallback  attendance.Summary
	errs      map[string]error
}

func (f *fakeAttendanceSource) GetSummary(ctx context.Context, shopID, employeeID string, from, to time.Time) (attendance.Summary, []attendance.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.errs[employeeID]; ok {
		return attendance.Summary{}, nil, err
	}
	if s, ok := f.summaries[employeeID]; ok {
		return s, nil, nil
	}
	s := f.fallback
	s.EmployeeID = employeeID
	return s, nil, nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (r *recordingNotifier) NotifyPayslip(ctx context.Context, emp employee.Employee, period payroll.Period, slip payroll.Payslip) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, slip.ID)
	return r.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.PayslipGeneratedEvent
	err    error
}

func (r *recordingPublisher) PublishPayslipGenerated(ctx context.Context, ev events.PayslipGeneratedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recordingPublisher) Close() error { return nil }

type recordingProgress struct {
	mu     sync.Mutex
	events []sse.Event
}

func (r *recordingProgress) Publish(userID string, ev sse.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingProgress) last() payroll.BatchProgress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1].Data.(payroll.BatchProgress)
}

type memoryStorage struct {
	mu      sync.Mutex
	uploads map[string][]byte
}

func (m *memoryStorage) Upload(ctx context.Context, file io.Reader, path string, contentType string) (string, error) {
	b, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.uploads == nil {
		m.uploads = map[string][]byte{}
	}
	m.uploads[path] = b
	return path, nil
}

func (m *memoryStorage) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}

func (m *memoryStorage) Delete(ctx context.Context, path string) error { return nil }

func (m *memoryStorage) Exists(ctx context.Context, path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.uploads[path]
	return ok, nil
}

// fixture wires the payroll services over in-memory fakes.
type fixture struct {
	tx        *fakeTransactor
	slips     *fakePayslipRepository
	employees *fakeEmployeeRepository
	periods   *fakePeriodRepository
	source    *fakeAttendanceSource
	notifier  *recordingNotifier
	publisher *recordingPublisher
	progress  *recordingProgress
	storage   *memoryStorage
	engine    *Engine
	workflow  *Workflow
	batch     *BatchOrchestrator
	service   *PayrollServiceImpl
}

func fullMonth() attendance.Summary {
	return summary("176", "0", "0", 0)
}

func newFixture(emps ...employee.Employee) *fixture {
	f := &fixture{
		tx:        &fakeTransactor{},
		slips:     newFakePayslipRepository(),
		periods:   &fakePeriodRepository{periods: map[string]payroll.Period{}},
		source:    &fakeAttendanceSource{summaries: map[string]attendance.Summary{}, fallback: fullMonth(), errs: map[string]error{}},
		notifier:  &recordingNotifier{},
		publisher: &recordingPublisher{},
		progress:  &recordingProgress{},
		storage:   &memoryStorage{},
	}
	f.employees = newFakeEmployeeRepository(f.slips, emps...)
	f.engine = NewEngine(nil)
	f.workflow = NewWorkflow(f.tx, f.employees, f.slips, f.source, f.engine, f.notifier, f.publisher)
	f.batch = NewBatchOrchestrator(f.workflow, f.engine, f.source, f.progress, 4)
	f.service = NewPayrollService(f.periods, f.slips, f.employees, f.source, f.engine, f.workflow, f.batch, NewExporter(f.storage, "PHP"), appjwt.NewJWTService("test-secret", "1h")).(*PayrollServiceImpl)
	return f
}

type fakePeriodRepository struct {
	mu      sync.Mutex
	periods map[string]payroll.Period
}

func (f *fakePeriodRepository) Create(ctx context.Context, p payroll.Period) (payroll.Period, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID == "" {
		p.ID = "period-" + p.Label
	}
	f.periods[p.ID] = p
	return p, nil
}

func (f *fakePeriodRepository) GetByID(ctx context.Context, shopID, id string) (payroll.Period, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.periods[id]
	if !ok || p.ShopID != shopID {
		return payroll.Period{}, payroll.ErrPeriodNotFound
	}
	return p, nil
}

func (f *fakePeriodRepository) List(ctx context.Context, shopID string) ([]payroll.Period, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []payroll.Period
	for _, p := range f.periods {
		if p.ShopID == shopID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePeriodRepository) UpdateAttendanceStatus(ctx context.Context, shopID, id string, status payroll.AttendanceStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.periods[id]
	if !ok {
		return payroll.ErrPeriodNotFound
	}
	p.AttendanceStatus = status
	f.periods[id] = p
	return nil
}

func staffMember(id string, salary string) employee.Employee {
	e := monthlyEmployee(salary)
	e.ID = id
	e.EmployeeCode = "E-" + id
	e.FullName = "Staff " + id
	return e
}

func claimsContext(shopID, userID string) context.Context {
	token := jwt.New()
	_ = token.Set("shop_id", shopID)
	_ = token.Set("user_id", userID)
	return jwtauth.NewContext(context.Background(), token, nil)
}
