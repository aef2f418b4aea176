package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/capacity-service/internal/config"
	"github.com/spec-kit/capacity-service/internal/domain"
	"github.com/spec-kit/capacity-service/internal/events"
	"github.com/spec-kit/capacity-service/internal/observability"
	"github.com/spec-kit/capacity-service/internal/repository"
	apperrors "github.com/spec-kit/capacity-service/pkg/util"
)

// Locker serializes the validate-and-insert sequence for one department/date.
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string) error
}

// SchedulingService is the write path: it re-validates under a department/date
// lock and inserts the schedule only if the quantity still fits. Validation on
// its own is advisory; this is where admission control actually happens.
type SchedulingService struct {
	validator  *ValidationService
	schedules  repository.ScheduleRepository
	locker     Locker
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	planning   config.PlanningConfig
	logger     *zap.Logger
}

// SchedulingDependencies bundles collaborators for the scheduling service.
type SchedulingDependencies struct {
	Validator    *ValidationService
	ScheduleRepo repository.ScheduleRepository
	Locker       Locker
	Dispatcher   events.Dispatcher
	Metrics      *observability.Metrics
	Planning     config.PlanningConfig
	Logger       *zap.Logger
}

// CommitInput describes a schedule to persist.
type CommitInput struct {
	OrderID      string
	DepartmentID string
	MachineID    *string
	Date         time.Time
	Quantity     int
	ActorID      string
}

// NewSchedulingService constructs the service.
func NewSchedulingService(deps SchedulingDependencies) *SchedulingService {
	return &SchedulingService{
		validator:  deps.Validator,
		schedules:  deps.ScheduleRepo,
		locker:     deps.Locker,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		planning:   deps.Planning,
		logger:     deps.Logger,
	}
}

// CommitSchedule validates and inserts atomically with respect to other
// commits for the same department and date. A proposal that no longer fits is
// rejected with a Conflict carrying the validation detail.
func (s *SchedulingService) CommitSchedule(ctx context.Context, in CommitInput) (*domain.JobSchedule, *domain.ValidationResult, error) {
	key := fmt.Sprintf("%s:%s", in.DepartmentID, in.Date.Format(dateLayout))

	acquired, err := s.locker.AcquireLock(ctx, key, s.planning.CommitLockTTL())
	if err != nil {
		return nil, nil, apperrors.NewUnavailable("commit lock unavailable", err)
	}
	if !acquired {
		return nil, nil, apperrors.NewConflict("another schedule commit is in progress for this department and date", nil)
	}
	defer func() {
		if err := s.locker.ReleaseLock(ctx, key); err != nil {
			s.logger.Warn("failed to release commit lock", zap.String("key", key), zap.Error(err))
		}
	}()

	result, err := s.validator.Validate(ctx, ValidateInput{
		DepartmentID: in.DepartmentID,
		Date:         in.Date,
		Quantity:     in.Quantity,
	})
	if err != nil {
		return nil, nil, err
	}
	if !result.Valid {
		s.metrics.RecordCommitRejected()
		return nil, result, apperrors.NewConflict("department capacity would be exceeded", map[string]any{
			"capacity_target":     result.CapacityTarget,
			"current_scheduled":   result.CurrentScheduled,
			"excess_quantity":     result.ExcessQuantity,
			"capacity_percentage": result.CapacityPercentage,
		})
	}

	schedule := &domain.JobSchedule{
		OrderID:           in.OrderID,
		DepartmentID:      in.DepartmentID,
		MachineID:         in.MachineID,
		ScheduledDate:     in.Date,
		ScheduledQuantity: in.Quantity,
		Status:            domain.ScheduleStatusScheduled,
	}
	if err := s.schedules.Create(ctx, schedule); err != nil {
		return nil, nil, apperrors.NewUnavailable("failed to persist schedule", err)
	}
	s.metrics.RecordScheduleCommitted()

	s.publish(ctx, events.Event{
		Type:         events.EventScheduleCommitted,
		DepartmentID: in.DepartmentID,
		ActorID:      in.ActorID,
		Payload: events.ScheduleCommittedPayload{
			ScheduleID:         schedule.ID,
			OrderID:            schedule.OrderID,
			ScheduledDate:      schedule.ScheduledDate,
			ScheduledQuantity:  schedule.ScheduledQuantity,
			CapacityPercentage: result.CapacityPercentage,
		},
	})
	if result.Severity != nil {
		s.publish(ctx, events.Event{
			Type:         events.EventCapacityThreshold,
			DepartmentID: in.DepartmentID,
			ActorID:      in.ActorID,
			Payload: events.CapacityThresholdPayload{
				Date:               in.Date,
				CapacityPercentage: result.CapacityPercentage,
				Severity:           *result.Severity,
			},
		})
	}

	return schedule, result, nil
}

func (s *SchedulingService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = time.Now().UTC()
	_ = s.dispatcher.Publish(ctx, event)
}
