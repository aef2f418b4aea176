package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/capacity-service/internal/domain"
	"github.com/spec-kit/capacity-service/internal/events"
	"github.com/spec-kit/capacity-service/internal/repository"
	apperrors "github.com/spec-kit/capacity-service/pkg/util"
)

// CapacityService computes department utilization snapshots and handles the
// admin capacity target write path. Snapshots are derived from live reads on
// every call; nothing is cached between requests.
//
// The single configured capacity_target is compared against total usage over
// the whole requested range, with no per-day pro-rating. A week-long query
// still measures against one target number. Dependent alternative-search
// logic assumes this semantics.
type CapacityService struct {
	departments repository.DepartmentRepository
	schedules   repository.ScheduleRepository
	audits      repository.AuditRepository
	dispatcher  events.Dispatcher
}

// CapacityDependencies bundles collaborators for the capacity service.
type CapacityDependencies struct {
	DepartmentRepo repository.DepartmentRepository
	ScheduleRepo   repository.ScheduleRepository
	AuditRepo      repository.AuditRepository
	Dispatcher     events.Dispatcher
}

// NewCapacityService constructs the service.
func NewCapacityService(deps CapacityDependencies) *CapacityService {
	return &CapacityService{
		departments: deps.DepartmentRepo,
		schedules:   deps.ScheduleRepo,
		audits:      deps.AuditRepo,
		dispatcher:  deps.Dispatcher,
	}
}

// ComputeCapacity derives the utilization snapshot for one department over an
// inclusive date range.
func (s *CapacityService) ComputeCapacity(ctx context.Context, departmentID string, start, end time.Time) (*domain.CapacitySnapshot, error) {
	if err := checkRange(start, end); err != nil {
		return nil, err
	}
	dept, err := s.getDepartment(ctx, departmentID)
	if err != nil {
		return nil, err
	}

	used, err := s.schedules.SumScheduledQuantity(ctx, dept.ID, start, end, nil)
	if err != nil {
		return nil, apperrors.NewUnavailable("failed to read scheduled quantities", err)
	}

	snap := domain.NewCapacitySnapshot(dept, used)
	return &snap, nil
}

// ComputeCapacityForAll derives snapshots for every active department using
// batched aggregate reads.
func (s *CapacityService) ComputeCapacityForAll(ctx context.Context, start, end time.Time) ([]domain.CapacitySnapshot, error) {
	if err := checkRange(start, end); err != nil {
		return nil, err
	}
	depts, err := s.departments.ListActive(ctx)
	if err != nil {
		return nil, apperrors.NewUnavailable("failed to list departments", err)
	}

	aggregates, err := s.schedules.Aggregates(ctx, start, end)
	if err != nil {
		return nil, apperrors.NewUnavailable("failed to read schedule aggregates", err)
	}
	aggByDept := make(map[string]repository.DepartmentAggregate, len(aggregates))
	for _, agg := range aggregates {
		aggByDept[agg.DepartmentID] = agg
	}

	resources, err := s.departments.ResourceCounts(ctx)
	if err != nil {
		return nil, apperrors.NewUnavailable("failed to read resource counts", err)
	}
	resByDept := make(map[string]repository.DepartmentResources, len(resources))
	for _, res := range resources {
		resByDept[res.DepartmentID] = res
	}

	snapshots := make([]domain.CapacitySnapshot, 0, len(depts))
	for i := range depts {
		agg := aggByDept[depts[i].ID]
		snap := domain.NewCapacitySnapshot(&depts[i], agg.ScheduledQuantity)
		snap.ScheduledJobs = agg.ScheduledJobs
		snap.CompletedQuantity = agg.CompletedQuantity
		if res, ok := resByDept[depts[i].ID]; ok {
			snap.EmployeeCount = res.EmployeeCount
			snap.MachineCount = res.MachineCount
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, nil
}

// DepartmentDetail returns the snapshot plus the job schedules contributing
// to capacity_used in the range.
func (s *CapacityService) DepartmentDetail(ctx context.Context, departmentID string, start, end time.Time) (*domain.CapacitySnapshot, []domain.JobSchedule, error) {
	snap, err := s.ComputeCapacity(ctx, departmentID, start, end)
	if err != nil {
		return nil, nil, err
	}
	jobs, err := s.schedules.ListForDepartment(ctx, departmentID, start, end)
	if err != nil {
		return nil, nil, apperrors.NewUnavailable("failed to list job schedules", err)
	}
	return snap, jobs, nil
}

// UpdateCapacityTarget overwrites a department's capacity target, records an
// audit entry and publishes the change.
func (s *CapacityService) UpdateCapacityTarget(ctx context.Context, actorID, departmentID string, target int) error {
	if target <= 0 {
		return apperrors.NewInvalidArgument("capacity_target must be positive", map[string]any{"capacity_target": target})
	}
	dept, err := s.getDepartment(ctx, departmentID)
	if err != nil {
		return err
	}

	if err := s.departments.UpdateCapacityTarget(ctx, departmentID, target); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("department", map[string]any{"department_id": departmentID})
		}
		return apperrors.NewUnavailable("failed to update capacity target", err)
	}

	if s.audits != nil {
		entry := &domain.AuditEntry{
			ActorID:    actorID,
			Action:     "UPDATE_CAPACITY_TARGET",
			EntityType: "department",
			EntityID:   departmentID,
			OldValue:   map[string]any{"capacity_target": dept.CapacityTarget},
			NewValue:   map[string]any{"capacity_target": target},
		}
		if err := s.audits.Record(ctx, entry); err != nil {
			return apperrors.NewUnavailable("failed to record audit entry", err)
		}
	}

	s.publish(ctx, events.Event{
		Type:         events.EventCapacityTargetUpdated,
		DepartmentID: departmentID,
		ActorID:      actorID,
		Payload: events.CapacityTargetUpdatedPayload{
			OldTarget: dept.CapacityTarget,
			NewTarget: target,
		},
	})
	return nil
}

func (s *CapacityService) getDepartment(ctx context.Context, id string) (*domain.Department, error) {
	dept, err := s.departments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("department", map[string]any{"department_id": id})
		}
		return nil, apperrors.NewUnavailable("failed to load department", err)
	}
	return dept, nil
}

func (s *CapacityService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = time.Now().UTC()
	_ = s.dispatcher.Publish(ctx, event)
}

func checkRange(start, end time.Time) error {
	if start.After(end) {
		return apperrors.NewInvalidArgument("start_date must not be after end_date", map[string]any{
			"start_date": start.Format(dateLayout),
			"end_date":   end.Format(dateLayout),
		})
	}
	return nil
}

const dateLayout = "2006-01-02"
