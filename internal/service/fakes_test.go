package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/capacity-service/internal/domain"
	"github.com/spec-kit/capacity-service/internal/events"
	"github.com/spec-kit/capacity-service/internal/repository"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func intPtr(v int) *int {
	return &v
}

type fakeDepartmentRepo struct {
	departments map[string]*domain.Department
	err         error
}

func newFakeDepartmentRepo(depts ...*domain.Department) *fakeDepartmentRepo {
	repo := &fakeDepartmentRepo{departments: make(map[string]*domain.Department)}
	for _, d := range depts {
		repo.departments[d.ID] = d
	}
	return repo
}

func (r *fakeDepartmentRepo) GetByID(ctx context.Context, id string) (*domain.Department, error) {
	if r.err != nil {
		return nil, r.err
	}
	dept, ok := r.departments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *dept
	return &copied, nil
}

func (r *fakeDepartmentRepo) ListActive(ctx context.Context) ([]domain.Department, error) {
	if r.err != nil {
		return nil, r.err
	}
	var result []domain.Department
	for _, dept := range r.departments {
		if dept.IsActive {
			result = append(result, *dept)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *fakeDepartmentRepo) UpdateCapacityTarget(ctx context.Context, id string, target int) error {
	if r.err != nil {
		return r.err
	}
	dept, ok := r.departments[id]
	if !ok {
		return pgx.ErrNoRows
	}
	dept.CapacityTarget = &target
	return nil
}

func (r *fakeDepartmentRepo) ResourceCounts(ctx context.Context) ([]repository.DepartmentResources, error) {
	if r.err != nil {
		return nil, r.err
	}
	var result []repository.DepartmentResources
	for _, dept := range r.departments {
		if dept.IsActive {
			result = append(result, repository.DepartmentResources{DepartmentID: dept.ID, EmployeeCount: 3, MachineCount: 2})
		}
	}
	return result, nil
}

type fakeScheduleRepo struct {
	mu      sync.Mutex
	entries []domain.JobSchedule
	err     error
}

func newFakeScheduleRepo(entries ...domain.JobSchedule) *fakeScheduleRepo {
	return &fakeScheduleRepo{entries: entries}
}

func entry(dept string, day time.Time, orderID string, qty int, status domain.ScheduleStatus) domain.JobSchedule {
	return domain.JobSchedule{
		ID:                fmt.Sprintf("sched-%s-%s-%s", dept, day.Format("2006-01-02"), orderID),
		OrderID:           orderID,
		DepartmentID:      dept,
		ScheduledDate:     day,
		ScheduledQuantity: qty,
		Status:            status,
	}
}

func inRange(day, start, end time.Time) bool {
	return !day.Before(start) && !day.After(end)
}

func (r *fakeScheduleRepo) SumScheduledQuantity(ctx context.Context, departmentID string, start, end time.Time, excludeOrderID *string) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	total := 0
	for _, e := range r.entries {
		if e.DepartmentID != departmentID || !inRange(e.ScheduledDate, start, end) || !e.Status.CountsTowardCapacity() {
			continue
		}
		if excludeOrderID != nil && e.OrderID == *excludeOrderID {
			continue
		}
		total += e.ScheduledQuantity
	}
	return total, nil
}

func (r *fakeScheduleRepo) SumByDate(ctx context.Context, departmentID string, start, end time.Time) ([]repository.DailyQuantity, error) {
	if r.err != nil {
		return nil, r.err
	}
	byDate := map[time.Time]int{}
	for _, e := range r.entries {
		if e.DepartmentID != departmentID || !inRange(e.ScheduledDate, start, end) || !e.Status.CountsTowardCapacity() {
			continue
		}
		byDate[e.ScheduledDate] += e.ScheduledQuantity
	}
	var result []repository.DailyQuantity
	for day, qty := range byDate {
		result = append(result, repository.DailyQuantity{Date: day, Quantity: qty})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

func (r *fakeScheduleRepo) SumByDepartmentOn(ctx context.Context, day time.Time, excludeDepartmentID string) ([]repository.DepartmentQuantity, error) {
	if r.err != nil {
		return nil, r.err
	}
	byDept := map[string]int{}
	for _, e := range r.entries {
		if !e.ScheduledDate.Equal(day) || e.DepartmentID == excludeDepartmentID || !e.Status.CountsTowardCapacity() {
			continue
		}
		byDept[e.DepartmentID] += e.ScheduledQuantity
	}
	var result []repository.DepartmentQuantity
	for dept, qty := range byDept {
		result = append(result, repository.DepartmentQuantity{DepartmentID: dept, Quantity: qty})
	}
	return result, nil
}

func (r *fakeScheduleRepo) Aggregates(ctx context.Context, start, end time.Time) ([]repository.DepartmentAggregate, error) {
	if r.err != nil {
		return nil, r.err
	}
	byDept := map[string]*repository.DepartmentAggregate{}
	for _, e := range r.entries {
		if !inRange(e.ScheduledDate, start, end) {
			continue
		}
		agg, ok := byDept[e.DepartmentID]
		if !ok {
			agg = &repository.DepartmentAggregate{DepartmentID: e.DepartmentID}
			byDept[e.DepartmentID] = agg
		}
		if e.Status.CountsTowardCapacity() {
			agg.ScheduledJobs++
			agg.ScheduledQuantity += e.ScheduledQuantity
		}
		if e.Status == domain.ScheduleStatusCompleted && e.ActualQuantity != nil {
			agg.CompletedQuantity += *e.ActualQuantity
		}
	}
	var result []repository.DepartmentAggregate
	for _, agg := range byDept {
		result = append(result, *agg)
	}
	return result, nil
}

func (r *fakeScheduleRepo) ListForDepartment(ctx context.Context, departmentID string, start, end time.Time) ([]domain.JobSchedule, error) {
	if r.err != nil {
		return nil, r.err
	}
	var result []domain.JobSchedule
	for _, e := range r.entries {
		if e.DepartmentID == departmentID && inRange(e.ScheduledDate, start, end) {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ScheduledDate.Before(result[j].ScheduledDate) })
	return result, nil
}

func (r *fakeScheduleRepo) Create(ctx context.Context, schedule *domain.JobSchedule) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	schedule.ID = fmt.Sprintf("sched-%d", len(r.entries)+1)
	schedule.CreatedAt = time.Now()
	schedule.UpdatedAt = schedule.CreatedAt
	r.entries = append(r.entries, *schedule)
	return nil
}

type fakeAuditRepo struct {
	entries []domain.AuditEntry
	err     error
}

func (r *fakeAuditRepo) Record(ctx context.Context, entry *domain.AuditEntry) error {
	if r.err != nil {
		return r.err
	}
	entry.ID = fmt.Sprintf("audit-%d", len(r.entries)+1)
	r.entries = append(r.entries, *entry)
	return nil
}

type capturingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *capturingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *capturingDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {}

func (d *capturingDispatcher) byType(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var result []events.Event
	for _, e := range d.events {
		if e.Type == eventType {
			result = append(result, e)
		}
	}
	return result
}

type fakeLocker struct {
	mu         sync.Mutex
	held       map[string]bool
	busy       bool
	acquireErr error
	releases   []string
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: make(map[string]bool)}
}

func (l *fakeLocker) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.acquireErr != nil {
		return false, l.acquireErr
	}
	if l.busy || l.held[key] {
		return false, nil
	}
	l.held[key] = true
	return true, nil
}

func (l *fakeLocker) ReleaseLock(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	l.releases = append(l.releases, key)
	return nil
}
