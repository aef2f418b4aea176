package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/capacity-service/internal/domain"
	"github.com/spec-kit/capacity-service/internal/observability"
	"github.com/spec-kit/capacity-service/internal/repository"
	apperrors "github.com/spec-kit/capacity-service/pkg/util"
)

const (
	warningNearlyFull = "Department capacity is nearly full"
	warningExceeded   = "Department capacity will be exceeded"
)

// ValidationService decides whether a proposed quantity fits department
// capacity on a given day. The result is advisory: two concurrent
// validate-then-write sequences can both pass and jointly overshoot the
// target. Callers needing admission control must serialize validation and
// insert, as SchedulingService does.
type ValidationService struct {
	departments repository.DepartmentRepository
	schedules   repository.ScheduleRepository
	metrics     *observability.Metrics
}

// ValidationDependencies bundles collaborators for the validation service.
type ValidationDependencies struct {
	DepartmentRepo repository.DepartmentRepository
	ScheduleRepo   repository.ScheduleRepository
	Metrics        *observability.Metrics
}

// ValidateInput describes a proposed schedule placement. ExcludeOrderID,
// when set, removes that order's existing quantity from the current total so
// an in-place edit is not double counted.
type ValidateInput struct {
	DepartmentID   string
	Date           time.Time
	Quantity       int
	ExcludeOrderID *string
}

// NewValidationService constructs the service.
func NewValidationService(deps ValidationDependencies) *ValidationService {
	return &ValidationService{
		departments: deps.DepartmentRepo,
		schedules:   deps.ScheduleRepo,
		metrics:     deps.Metrics,
	}
}

// Validate checks the proposed placement and returns a structured result.
// An over-capacity proposal is a valid=false result, not an error.
func (s *ValidationService) Validate(ctx context.Context, in ValidateInput) (*domain.ValidationResult, error) {
	if in.Quantity <= 0 {
		return nil, apperrors.NewInvalidArgument("quantity must be positive", map[string]any{"quantity": in.Quantity})
	}

	dept, err := s.departments.GetByID(ctx, in.DepartmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("department", map[string]any{"department_id": in.DepartmentID})
		}
		return nil, apperrors.NewUnavailable("failed to load department", err)
	}

	current, err := s.schedules.SumScheduledQuantity(ctx, dept.ID, in.Date, in.Date, in.ExcludeOrderID)
	if err != nil {
		return nil, apperrors.NewUnavailable("failed to read scheduled quantities", err)
	}

	result := s.evaluate(dept, current, in.Quantity)
	s.recordOutcome(result)
	return result, nil
}

func (s *ValidationService) evaluate(dept *domain.Department, current, quantity int) *domain.ValidationResult {
	total := current + quantity

	// A department without a positive target is unconstrained: everything
	// fits and no warning is raised.
	if !dept.Constrained() {
		return &domain.ValidationResult{
			Valid:                true,
			CapacityTarget:       0,
			CurrentScheduled:     current,
			RequestedQuantity:    quantity,
			TotalAfterScheduling: total,
			CapacityPercentage:   0,
			AvailableCapacity:    0,
			ExcessQuantity:       0,
		}
	}

	target := *dept.CapacityTarget
	percent := domain.UtilizationPercent(target, total)

	result := &domain.ValidationResult{
		Valid:                total <= target,
		CapacityTarget:       target,
		CurrentScheduled:     current,
		RequestedQuantity:    quantity,
		TotalAfterScheduling: total,
		CapacityPercentage:   percent,
		AvailableCapacity:    maxInt(0, target-current),
		ExcessQuantity:       maxInt(0, total-target),
	}

	switch {
	case percent >= domain.ThresholdOverbooked:
		result.Warning = strPtr(warningExceeded)
		result.Severity = severityPtr(domain.SeverityError)
	case percent >= domain.ThresholdHigh:
		result.Warning = strPtr(warningNearlyFull)
		result.Severity = severityPtr(domain.SeverityWarning)
	}
	return result
}

func (s *ValidationService) recordOutcome(result *domain.ValidationResult) {
	switch {
	case result.Severity == nil:
		s.metrics.RecordValidation("valid")
	case *result.Severity == domain.SeverityError:
		s.metrics.RecordValidation("error")
	default:
		s.metrics.RecordValidation("warning")
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func strPtr(s string) *string {
	return &s
}

func severityPtr(s domain.ValidationSeverity) *domain.ValidationSeverity {
	return &s
}
