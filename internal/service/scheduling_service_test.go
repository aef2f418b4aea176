package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/capacity-service/internal/config"
	"github.com/spec-kit/capacity-service/internal/domain"
	"github.com/spec-kit/capacity-service/internal/events"
	"github.com/spec-kit/capacity-service/internal/observability"
	apperrors "github.com/spec-kit/capacity-service/pkg/util"
)

func newScheduler(depts *fakeDepartmentRepo, schedules *fakeScheduleRepo, locker *fakeLocker, dispatcher *capturingDispatcher) *SchedulingService {
	metrics := observability.NewMetrics()
	validator := NewValidationService(ValidationDependencies{
		DepartmentRepo: depts,
		ScheduleRepo:   schedules,
		Metrics:        metrics,
	})
	return NewSchedulingService(SchedulingDependencies{
		Validator:    validator,
		ScheduleRepo: schedules,
		Locker:       locker,
		Dispatcher:   dispatcher,
		Metrics:      metrics,
		Planning:     config.PlanningConfig{CommitLockTTLSeconds: 5},
		Logger:       zap.NewNop(),
	})
}

func TestCommitSchedulePersistsWhenCapacityFits(t *testing.T) {
	day := date(2026, time.March, 2)
	dept := &domain.Department{ID: "d1", Name: "Assembly", CapacityTarget: intPtr(100), IsActive: true}
	schedules := newFakeScheduleRepo(entry("d1", day, "ord-1", 40, domain.ScheduleStatusScheduled))
	locker := newFakeLocker()
	dispatcher := &capturingDispatcher{}

	svc := newScheduler(newFakeDepartmentRepo(dept), schedules, locker, dispatcher)
	schedule, result, err := svc.CommitSchedule(context.Background(), CommitInput{
		OrderID:      "ord-2",
		DepartmentID: "d1",
		Date:         day,
		Quantity:     30,
		ActorID:      "planner-1",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, schedule.ID)
	assert.Equal(t, domain.ScheduleStatusScheduled, schedule.Status)
	assert.True(t, result.Valid)
	assert.Equal(t, 70, result.TotalAfterScheduling)

	// Lock cycle completed and the commit was announced.
	assert.Len(t, locker.releases, 1)
	assert.Len(t, dispatcher.byType(events.EventScheduleCommitted), 1)
	assert.Empty(t, dispatcher.byType(events.EventCapacityThreshold))
}

func TestCommitScheduleEmitsThresholdEventNearCapacity(t *testing.T) {
	day := date(2026, time.March, 2)
	dept := &domain.Department{ID: "d1", Name: "Assembly", CapacityTarget: intPtr(100), IsActive: true}
	schedules := newFakeScheduleRepo(entry("d1", day, "ord-1", 60, domain.ScheduleStatusScheduled))
	dispatcher := &capturingDispatcher{}

	svc := newScheduler(newFakeDepartmentRepo(dept), schedules, newFakeLocker(), dispatcher)
	_, result, err := svc.CommitSchedule(context.Background(), CommitInput{
		OrderID:      "ord-2",
		DepartmentID: "d1",
		Date:         day,
		Quantity:     30,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Severity)
	assert.Equal(t, domain.SeverityWarning, *result.Severity)

	breaches := dispatcher.byType(events.EventCapacityThreshold)
	require.Len(t, breaches, 1)
	payload, ok := breaches[0].Payload.(events.CapacityThresholdPayload)
	require.True(t, ok)
	assert.Equal(t, 90.0, payload.CapacityPercentage)
}

func TestCommitScheduleRejectsOverCapacity(t *testing.T) {
	day := date(2026, time.March, 2)
	dept := &domain.Department{ID: "d1", Name: "Assembly", CapacityTarget: intPtr(100), IsActive: true}
	schedules := newFakeScheduleRepo(entry("d1", day, "ord-1", 90, domain.ScheduleStatusScheduled))
	locker := newFakeLocker()

	svc := newScheduler(newFakeDepartmentRepo(dept), schedules, locker, nil)
	_, result, err := svc.CommitSchedule(context.Background(), CommitInput{
		OrderID:      "ord-2",
		DepartmentID: "d1",
		Date:         day,
		Quantity:     20,
	})

	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "CONFLICT", domainErr.Code)
	assert.Equal(t, 10, domainErr.Details["excess_quantity"])

	// The rejected validation detail is still returned for rendering.
	require.NotNil(t, result)
	assert.False(t, result.Valid)

	// Nothing was persisted and the lock was released.
	assert.Len(t, schedules.entries, 1)
	assert.Len(t, locker.releases, 1)
}

func TestCommitScheduleLockBusy(t *testing.T) {
	dept := &domain.Department{ID: "d1", Name: "Assembly", CapacityTarget: intPtr(100), IsActive: true}
	locker := newFakeLocker()
	locker.busy = true

	svc := newScheduler(newFakeDepartmentRepo(dept), newFakeScheduleRepo(), locker, nil)
	_, _, err := svc.CommitSchedule(context.Background(), CommitInput{
		OrderID:      "ord-1",
		DepartmentID: "d1",
		Date:         date(2026, time.March, 2),
		Quantity:     10,
	})

	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "CONFLICT", domainErr.Code)
}

func TestCommitScheduleLockFailureIsUnavailable(t *testing.T) {
	dept := &domain.Department{ID: "d1", Name: "Assembly", CapacityTarget: intPtr(100), IsActive: true}
	locker := newFakeLocker()
	locker.acquireErr = errors.New("redis down")

	svc := newScheduler(newFakeDepartmentRepo(dept), newFakeScheduleRepo(), locker, nil)
	_, _, err := svc.CommitSchedule(context.Background(), CommitInput{
		OrderID:      "ord-1",
		DepartmentID: "d1",
		Date:         date(2026, time.March, 2),
		Quantity:     10,
	})

	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "UNAVAILABLE", domainErr.Code)
}
