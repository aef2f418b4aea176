package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/capacity-service/internal/config"
	"github.com/spec-kit/capacity-service/internal/domain"
	"github.com/spec-kit/capacity-service/internal/observability"
	"github.com/spec-kit/capacity-service/internal/repository"
	apperrors "github.com/spec-kit/capacity-service/pkg/util"
)

// SuggestionService searches for alternative dates and departments when a
// proposed placement does not fit. Both searches use batched aggregate reads:
// one query covers the whole forward date horizon and one query covers all
// sibling departments, instead of a read per candidate.
type SuggestionService struct {
	departments repository.DepartmentRepository
	schedules   repository.ScheduleRepository
	metrics     *observability.Metrics
	planning    config.PlanningConfig
}

// SuggestionDependencies bundles collaborators for the suggestion service.
type SuggestionDependencies struct {
	DepartmentRepo repository.DepartmentRepository
	ScheduleRepo   repository.ScheduleRepository
	Metrics        *observability.Metrics
	Planning       config.PlanningConfig
}

// SuggestInput describes the placement that needs alternatives.
type SuggestInput struct {
	DepartmentID string
	Date         time.Time
	Quantity     int
	OrderID      *string
}

// NewSuggestionService constructs the service.
func NewSuggestionService(deps SuggestionDependencies) *SuggestionService {
	return &SuggestionService{
		departments: deps.DepartmentRepo,
		schedules:   deps.ScheduleRepo,
		metrics:     deps.Metrics,
		planning:    deps.Planning,
	}
}

// SuggestAlternatives returns feasible alternative dates in the original
// department and alternative departments on the original date. A candidate is
// included only when the full quantity fits. Empty lists are a valid result.
// Errors are atomic: no partial suggestion set is returned.
func (s *SuggestionService) SuggestAlternatives(ctx context.Context, in SuggestInput) (*domain.AlternativeSet, error) {
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

	set := &domain.AlternativeSet{
		OriginalDepartment:     dept.Name,
		OriginalDate:           in.Date,
		RequestedQuantity:      in.Quantity,
		DateAlternatives:       []domain.DateAlternative{},
		DepartmentAlternatives: []domain.DepartmentAlternative{},
	}

	if dept.Constrained() {
		dates, err := s.searchDates(ctx, dept, in.Date, in.Quantity)
		if err != nil {
			return nil, err
		}
		set.DateAlternatives = dates
	}

	siblings, err := s.searchDepartments(ctx, dept.ID, in.Date, in.Quantity)
	if err != nil {
		return nil, err
	}
	set.DepartmentAlternatives = siblings

	s.metrics.RecordSuggestionSearch(set.TotalSuggestions())
	return set, nil
}

// searchDates scans forward from date+1 over the configured horizon, nearest
// date first. The scan stops once MaxDateSuggestions candidates are found.
func (s *SuggestionService) searchDates(ctx context.Context, dept *domain.Department, date time.Time, quantity int) ([]domain.DateAlternative, error) {
	horizon := s.planning.SuggestionHorizon()
	start := date.AddDate(0, 0, 1)
	end := date.AddDate(0, 0, horizon)

	daily, err := s.schedules.SumByDate(ctx, dept.ID, start, end)
	if err != nil {
		return nil, apperrors.NewUnavailable("failed to read scheduled quantities", err)
	}
	byDate := make(map[string]int, len(daily))
	for _, dq := range daily {
		byDate[dq.Date.Format(dateLayout)] = dq.Quantity
	}

	target := *dept.CapacityTarget
	alternatives := []domain.DateAlternative{}
	for offset := 1; offset <= horizon; offset++ {
		candidate := date.AddDate(0, 0, offset)
		scheduled := byDate[candidate.Format(dateLayout)]
		available := target - scheduled
		if available < quantity {
			continue
		}

		alternatives = append(alternatives, domain.DateAlternative{
			SuggestedDate:           candidate,
			DaysFromOriginal:        offset,
			AvailableCapacity:       available,
			CapacityPercentageAfter: domain.UtilizationPercent(target, scheduled+quantity),
			CurrentScheduled:        scheduled,
			Reason:                  fmt.Sprintf("%d units available", available),
		})
		if s.planning.MaxDateSuggestions > 0 && len(alternatives) >= s.planning.MaxDateSuggestions {
			break
		}
	}
	return alternatives, nil
}

// searchDepartments checks every other active department on the original
// date. Departments without a positive target are skipped: they cannot be
// ranked by available capacity. Results are sorted by descending available
// capacity, name as tie break, so output is deterministic.
func (s *SuggestionService) searchDepartments(ctx context.Context, originalDeptID string, date time.Time, quantity int) ([]domain.DepartmentAlternative, error) {
	actives, err := s.departments.ListActive(ctx)
	if err != nil {
		return nil, apperrors.NewUnavailable("failed to list departments", err)
	}

	sums, err := s.schedules.SumByDepartmentOn(ctx, date, originalDeptID)
	if err != nil {
		return nil, apperrors.NewUnavailable("failed to read scheduled quantities", err)
	}
	byDept := make(map[string]int, len(sums))
	for _, dq := range sums {
		byDept[dq.DepartmentID] = dq.Quantity
	}

	alternatives := []domain.DepartmentAlternative{}
	for i := range actives {
		sibling := &actives[i]
		if sibling.ID == originalDeptID || !sibling.Constrained() {
			continue
		}

		target := *sibling.CapacityTarget
		scheduled := byDept[sibling.ID]
		available := target - scheduled
		if available < quantity {
			continue
		}

		alternatives = append(alternatives, domain.DepartmentAlternative{
			DepartmentID:            sibling.ID,
			DepartmentName:          sibling.Name,
			AvailableCapacity:       available,
			CapacityPercentageAfter: domain.UtilizationPercent(target, scheduled+quantity),
			Reason:                  "Department has capacity on this date",
		})
	}

	sort.Slice(alternatives, func(i, j int) bool {
		if alternatives[i].AvailableCapacity != alternatives[j].AvailableCapacity {
			return alternatives[i].AvailableCapacity > alternatives[j].AvailableCapacity
		}
		return alternatives[i].DepartmentName < alternatives[j].DepartmentName
	})
	return alternatives, nil
}
