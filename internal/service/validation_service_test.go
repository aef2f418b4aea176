package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/capacity-service/internal/domain"
	"github.com/spec-kit/capacity-service/internal/observability"
	apperrors "github.com/spec-kit/capacity-service/pkg/util"
)

func newValidator(depts *fakeDepartmentRepo, schedules *fakeScheduleRepo) *ValidationService {
	return NewValidationService(ValidationDependencies{
		DepartmentRepo: depts,
		ScheduleRepo:   schedules,
		Metrics:        observability.NewMetrics(),
	})
}

func TestValidate(t *testing.T) {
	day := date(2026, time.March, 2)

	tests := map[string]struct {
		target       *int
		current      int
		quantity     int
		wantValid    bool
		wantTotal    int
		wantPercent  float64
		wantExcess   int
		wantSeverity *domain.ValidationSeverity
	}{
		"OverbookedRejected": {
			target: intPtr(100), current: 90, quantity: 20,
			wantValid: false, wantTotal: 110, wantPercent: 110.0, wantExcess: 10,
			wantSeverity: severityPtr(domain.SeverityError),
		},
		"NearlyFullWarns": {
			target: intPtr(100), current: 50, quantity: 35,
			wantValid: true, wantTotal: 85, wantPercent: 85.0, wantExcess: 0,
			wantSeverity: severityPtr(domain.SeverityWarning),
		},
		"ComfortablyFits": {
			target: intPtr(100), current: 10, quantity: 20,
			wantValid: true, wantTotal: 30, wantPercent: 30.0, wantExcess: 0,
			wantSeverity: nil,
		},
		"ExactlyFullIsError": {
			target: intPtr(100), current: 80, quantity: 20,
			wantValid: true, wantTotal: 100, wantPercent: 100.0, wantExcess: 0,
			wantSeverity: severityPtr(domain.SeverityError),
		},
		"ExactlyHighIsWarning": {
			target: intPtr(100), current: 60, quantity: 20,
			wantValid: true, wantTotal: 80, wantPercent: 80.0, wantExcess: 0,
			wantSeverity: severityPtr(domain.SeverityWarning),
		},
		"UnconstrainedAlwaysFits": {
			target: nil, current: 900, quantity: 5000,
			wantValid: true, wantTotal: 5900, wantPercent: 0, wantExcess: 0,
			wantSeverity: nil,
		},
		"ZeroTargetAlwaysFits": {
			target: intPtr(0), current: 40, quantity: 10,
			wantValid: true, wantTotal: 50, wantPercent: 0, wantExcess: 0,
			wantSeverity: nil,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			dept := &domain.Department{ID: "d1", Name: "Assembly", CapacityTarget: tc.target, IsActive: true}
			schedules := newFakeScheduleRepo(entry("d1", day, "ord-1", tc.current, domain.ScheduleStatusScheduled))
			if tc.current == 0 {
				schedules = newFakeScheduleRepo()
			}
			validator := newValidator(newFakeDepartmentRepo(dept), schedules)

			result, err := validator.Validate(context.Background(), ValidateInput{
				DepartmentID: "d1",
				Date:         day,
				Quantity:     tc.quantity,
			})
			require.NoError(t, err)

			assert.Equal(t, tc.wantValid, result.Valid)
			assert.Equal(t, tc.current, result.CurrentScheduled)
			assert.Equal(t, tc.quantity, result.RequestedQuantity)
			assert.Equal(t, tc.wantTotal, result.TotalAfterScheduling)
			assert.Equal(t, tc.wantPercent, result.CapacityPercentage)
			assert.Equal(t, tc.wantExcess, result.ExcessQuantity)
			assert.GreaterOrEqual(t, result.ExcessQuantity, 0)
			if tc.wantSeverity == nil {
				assert.Nil(t, result.Severity)
				assert.Nil(t, result.Warning)
			} else {
				require.NotNil(t, result.Severity)
				assert.Equal(t, *tc.wantSeverity, *result.Severity)
				require.NotNil(t, result.Warning)
			}
		})
	}
}

func TestValidateAvailableCapacityIsPreAddition(t *testing.T) {
	day := date(2026, time.March, 2)
	dept := &domain.Department{ID: "d1", Name: "Assembly", CapacityTarget: intPtr(100), IsActive: true}
	schedules := newFakeScheduleRepo(entry("d1", day, "ord-1", 90, domain.ScheduleStatusScheduled))
	validator := newValidator(newFakeDepartmentRepo(dept), schedules)

	result, err := validator.Validate(context.Background(), ValidateInput{DepartmentID: "d1", Date: day, Quantity: 20})
	require.NoError(t, err)
	assert.Equal(t, 10, result.AvailableCapacity)
}

func TestValidateExcludesCancelledAndRejected(t *testing.T) {
	day := date(2026, time.March, 2)
	dept := &domain.Department{ID: "d1", Name: "Assembly", CapacityTarget: intPtr(100), IsActive: true}
	schedules := newFakeScheduleRepo(
		entry("d1", day, "ord-1", 40, domain.ScheduleStatusScheduled),
		entry("d1", day, "ord-2", 30, domain.ScheduleStatusInProgress),
		entry("d1", day, "ord-3", 25, domain.ScheduleStatusCompleted),
		entry("d1", day, "ord-4", 500, domain.ScheduleStatusCancelled),
		entry("d1", day, "ord-5", 300, domain.ScheduleStatusRejected),
	)
	validator := newValidator(newFakeDepartmentRepo(dept), schedules)

	result, err := validator.Validate(context.Background(), ValidateInput{DepartmentID: "d1", Date: day, Quantity: 5})
	require.NoError(t, err)
	assert.Equal(t, 95, result.CurrentScheduled)
	assert.Equal(t, 100, result.TotalAfterScheduling)
	assert.True(t, result.Valid)
}

func TestValidateExcludeOrderIsIdempotent(t *testing.T) {
	day := date(2026, time.March, 2)
	dept := &domain.Department{ID: "d1", Name: "Assembly", CapacityTarget: intPtr(100), IsActive: true}
	schedules := newFakeScheduleRepo(
		entry("d1", day, "ord-edit", 30, domain.ScheduleStatusScheduled),
		entry("d1", day, "ord-other", 60, domain.ScheduleStatusScheduled),
	)
	validator := newValidator(newFakeDepartmentRepo(dept), schedules)
	orderID := "ord-edit"

	// Re-validating the order's own quantity in place must not double count it.
	result, err := validator.Validate(context.Background(), ValidateInput{
		DepartmentID:   "d1",
		Date:           day,
		Quantity:       30,
		ExcludeOrderID: &orderID,
	})
	require.NoError(t, err)
	assert.Equal(t, 60, result.CurrentScheduled)
	assert.Equal(t, 90, result.TotalAfterScheduling)
	assert.True(t, result.Valid)

	// Without exclusion the same edit would appear to overbook.
	withoutExclude, err := validator.Validate(context.Background(), ValidateInput{
		DepartmentID: "d1",
		Date:         day,
		Quantity:     30,
	})
	require.NoError(t, err)
	assert.False(t, withoutExclude.Valid)
}

func TestValidateRejectsNonPositiveQuantity(t *testing.T) {
	validator := newValidator(newFakeDepartmentRepo(), newFakeScheduleRepo())

	for _, quantity := range []int{0, -5} {
		_, err := validator.Validate(context.Background(), ValidateInput{
			DepartmentID: "d1",
			Date:         date(2026, time.March, 2),
			Quantity:     quantity,
		})
		var domainErr *apperrors.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_ARGUMENT", domainErr.Code)
	}
}

func TestValidateUnknownDepartment(t *testing.T) {
	validator := newValidator(newFakeDepartmentRepo(), newFakeScheduleRepo())

	_, err := validator.Validate(context.Background(), ValidateInput{
		DepartmentID: "missing",
		Date:         date(2026, time.March, 2),
		Quantity:     10,
	})
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
}

func TestValidateRepositoryFailureIsUnavailable(t *testing.T) {
	dept := &domain.Department{ID: "d1", Name: "Assembly", CapacityTarget: intPtr(100), IsActive: true}
	schedules := newFakeScheduleRepo()
	schedules.err = errors.New("connection refused")
	validator := newValidator(newFakeDepartmentRepo(dept), schedules)

	_, err := validator.Validate(context.Background(), ValidateInput{
		DepartmentID: "d1",
		Date:         date(2026, time.March, 2),
		Quantity:     10,
	})
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "UNAVAILABLE", domainErr.Code)
}
